package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/lottery-bet-platform/internal/bet-audit/consumer"
	"github.com/radieske/lottery-bet-platform/internal/bet-audit/repository"
	"github.com/radieske/lottery-bet-platform/internal/shared/config"
	"github.com/radieske/lottery-bet-platform/internal/shared/db"
	"github.com/radieske/lottery-bet-platform/internal/shared/kafka"
	"github.com/radieske/lottery-bet-platform/internal/shared/logger"
	"github.com/radieske/lottery-bet-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: trilha de auditoria (bet_transactions)
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	repo := repository.NewPostgresRepo(pg)
	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repo.EnsureSchema(schemaCtx); err != nil {
		log.Fatal("postgres schema", zap.Error(err))
	}
	cancelSchema()

	// Kafka consumer (consumer group bet-audit) nos dois tópicos de aposta
	reader := kafka.NewGroupReader(cfg.KafkaBrokers, "bet-audit", cfg.TopicBetPlaced, cfg.TopicBetResultChecked)
	defer reader.Close()

	dlq := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetAuditDLQ)
	defer dlq.Close()

	// Métricas Prometheus
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_audit_messages_consumed_total", Help: "mensagens consumidas"})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_audit_db_writes_total", Help: "registros gravados"})
	dlqSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "bet_audit_dlq_total", Help: "mensagens enviadas para a DLQ"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "bet_audit_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persisted, dlqSent, errorsBy)

	proc := &consumer.Processor{
		Log:          log,
		Reader:       reader,
		Repo:         repo,
		DLQ:          dlq,
		TopicPlaced:  cfg.TopicBetPlaced,
		TopicChecked: cfg.TopicBetResultChecked,
		Retries:      3,
		Backoff:      300 * time.Millisecond,
		OnConsumed:   func() { consumed.Inc() },
		OnPersist:    func() { persisted.Inc() },
		OnDLQ:        func() { dlqSent.Inc() },
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log, map[string]metrics.HealthFunc{
		"pg": pg.PingContext,
	})

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("bet-audit-worker started",
		zap.String("consume", cfg.TopicBetPlaced+","+cfg.TopicBetResultChecked),
		zap.String("dlq", cfg.TopicBetAuditDLQ),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("bet-audit-worker stopped")
}
