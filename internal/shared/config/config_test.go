package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaultsForBetService(t *testing.T) {
	t.Setenv("SERVICE_NAME", "bet-service")
	t.Setenv("ENV", "local")

	cfg := Load()

	assert.Equal(t, "8083", cfg.HTTPPort)
	assert.Equal(t, "9099", cfg.MetricsPort)
	assert.Equal(t, 10*time.Second, cfg.LoteriaTimeout)
	assert.Equal(t, 10, cfg.GroupMaxMembers)
	assert.Equal(t, "bet_placed", cfg.TopicBetPlaced)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "bet-audit-worker")
	t.Setenv("ENV", "prod")
	t.Setenv("LOTERIA_TIMEOUT", "3s")
	t.Setenv("GROUP_MAX_MEMBERS", "25")
	t.Setenv("TEIMOSINHA_MAX", "abc")

	cfg := Load()

	assert.Equal(t, "", cfg.HTTPPort)
	assert.Equal(t, "9097", cfg.MetricsPort)
	assert.Equal(t, 3*time.Second, cfg.LoteriaTimeout)
	assert.Equal(t, 25, cfg.GroupMaxMembers)
	assert.Equal(t, 24, cfg.TeimosinhaMax) // inválido cai no default
	assert.True(t, cfg.IsProduction())
}

func TestLoadGatewayTarget(t *testing.T) {
	t.Setenv("SERVICE_NAME", "api-gateway")
	t.Setenv("BET_URL", "http://bet-service:8083")

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://bet-service:8083", cfg.BetServiceURL)
}

func TestIsProduction(t *testing.T) {
	for env, want := range map[string]bool{
		"prod":       true,
		"production": true,
		"Production": true,
		"local":      false,
		"dev":        false,
		"":           false,
	} {
		assert.Equal(t, want, Config{Env: env}.IsProduction(), env)
	}
}
