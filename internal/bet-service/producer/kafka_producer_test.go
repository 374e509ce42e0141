package producer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/lottery-bet-platform/pkg/contracts/events"
)

type captureWriter struct{ msgs []kafka.Message }

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func TestPublishBetPlaced(t *testing.T) {
	placed, checked := &captureWriter{}, &captureWriter{}
	p := NewKafkaPublisher(placed, checked)

	require.NoError(t, p.PublishBetPlaced(context.Background(), events.BetPlaced{BetID: "b1", UserID: "u1", Jogo: "quina"}))

	require.Len(t, placed.msgs, 1)
	assert.Empty(t, checked.msgs)
	assert.Equal(t, "b1", string(placed.msgs[0].Key))

	var got events.BetPlaced
	require.NoError(t, json.Unmarshal(placed.msgs[0].Value, &got))
	assert.Equal(t, "quina", got.Jogo)
	assert.NotZero(t, got.TsUnixMs)
}

func TestPublishBetResultChecked(t *testing.T) {
	placed, checked := &captureWriter{}, &captureWriter{}
	p := NewKafkaPublisher(placed, checked)

	require.NoError(t, p.PublishBetResultChecked(context.Background(), events.BetResultChecked{BetID: "b1", NewStatus: "prize", Acertos: 4}))

	require.Len(t, checked.msgs, 1)
	var got events.BetResultChecked
	require.NoError(t, json.Unmarshal(checked.msgs[0].Value, &got))
	assert.Equal(t, "prize", got.NewStatus)
	assert.False(t, got.Ts.IsZero())
}
