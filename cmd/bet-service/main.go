package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/lottery-bet-platform/internal/bet-service/auth"
	bhttp "github.com/radieske/lottery-bet-platform/internal/bet-service/http"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/loteria"
	kpub "github.com/radieske/lottery-bet-platform/internal/bet-service/producer"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/repo"
	"github.com/radieske/lottery-bet-platform/internal/bet-service/service"
	sharedcache "github.com/radieske/lottery-bet-platform/internal/shared/cache"
	"github.com/radieske/lottery-bet-platform/internal/shared/config"
	"github.com/radieske/lottery-bet-platform/internal/shared/db"
	"github.com/radieske/lottery-bet-platform/internal/shared/kafka"
	"github.com/radieske/lottery-bet-platform/internal/shared/logger"
	"github.com/radieske/lottery-bet-platform/internal/shared/metrics"
	"github.com/radieske/lottery-bet-platform/internal/shared/store"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.AuthJWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET não configurado")
	}

	// Postgres: store hierárquico de apostas e perfis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	kv := store.NewPostgres(pg)
	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 10*time.Second)
	if err := kv.EnsureSchema(schemaCtx); err != nil {
		log.Fatal("postgres schema", zap.Error(err))
	}
	cancelSchema()

	// Redis: cache de resultados de sorteios
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers (bet_placed e bet_result_checked)
	placedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer placedWriter.Close()
	checkedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetResultChecked)
	defer checkedWriter.Close()

	// Métricas Prometheus
	reconciled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bet_reconcile_total", Help: "conferências por origem"}, []string{"outcome"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bet_reconcile_errors_total", Help: "erros por estágio"}, []string{"stage"})
	created := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bets_created_total", Help: "registros de aposta criados"}, []string{"tipo"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "loteria_fetch_total", Help: "buscas de resultado por origem"}, []string{"source"})
	prometheus.MustRegister(reconciled, errorsBy, created, fetches)

	// deps
	client := loteria.NewClient(cfg.LoteriaAPIURL, cfg.LoteriaTimeout, cfg.LoteriaRPS)
	fetcher := loteria.NewCachedFetcher(client, loteria.NewRedisCache(rdb, cfg.ResultCacheTTL), log)
	fetcher.OnHit = func() { fetches.WithLabelValues("cache").Inc() }
	fetcher.OnMiss = func() { fetches.WithLabelValues("upstream").Inc() }

	svc := service.New(
		repo.New(kv),
		fetcher,
		kpub.NewKafkaPublisher(placedWriter, checkedWriter),
		log,
		service.Options{GroupMaxMembers: cfg.GroupMaxMembers, TeimosinhaMax: cfg.TeimosinhaMax},
	)
	svc.OnCreated = func(tipo string, n int) { created.WithLabelValues(tipo).Add(float64(n)) }
	svc.OnFastPath = func() { reconciled.WithLabelValues("cached").Inc() }
	svc.OnFetched = func() { reconciled.WithLabelValues("fetched").Inc() }
	svc.OnError = func(stage string) { errorsBy.WithLabelValues(stage).Inc() }

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, map[string]metrics.HealthFunc{
		"pg":    kv.Ping,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	// HTTP público
	api := bhttp.NewServer(log, svc, auth.NewJWTVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer), cfg.IsProduction(), cfg.RequestTimeout)
	apiSrv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		log.Info("bet-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("bet-service stopped")
}
