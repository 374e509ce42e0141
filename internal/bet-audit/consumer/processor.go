package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/lottery-bet-platform/pkg/contracts/events"
)

// Reader é o subconjunto de *kafka.Reader usado pelo processor (commit manual)
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Repo grava a trilha de auditoria
type Repo interface {
	InsertPlaced(ctx context.Context, e events.BetPlaced) error
	InsertResultChecked(ctx context.Context, e events.BetResultChecked) error
}

// Processor consome bet_placed e bet_result_checked e grava em bet_transactions.
// Falhas persistentes vão para a DLQ depois de Retries tentativas extras.
type Processor struct {
	Log    *zap.Logger
	Reader Reader
	Repo   Repo
	DLQ    Writer // opcional

	TopicPlaced  string
	TopicChecked string

	Retries int
	Backoff time.Duration

	OnConsumed func()       // métricas (counter++)
	OnPersist  func()       // métricas
	OnDLQ      func()       // métricas
	OnError    func(string) // métricas por fase
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}

// Run inicia o loop de consumo; a mensagem só é confirmada depois de gravada ou enviada à DLQ
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.handleUntilDone(ctx, m); err != nil {
			return err
		}
		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			p.Log.Warn("kafka commit failed", zap.Error(err))
			p.fail("commit")
		}
	}
}

// handleUntilDone repete a mesma mensagem até gravá-la ou mandá-la à DLQ;
// o offset só avança depois disso.
func (p *Processor) handleUntilDone(ctx context.Context, m kafka.Message) error {
	pause := p.Backoff
	if pause <= 0 {
		pause = 500 * time.Millisecond
	}
	for {
		err := p.Handle(ctx, m)
		if err == nil {
			return nil
		}
		p.fail("handle")
		p.Log.Error("mensagem não processada, tentando de novo", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
}

// Handle grava uma mensagem. Retorna erro só quando nem a gravação nem a DLQ funcionaram.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) error {
	persist, err := p.decode(m)
	if err != nil {
		p.Log.Warn("invalid message", zap.String("topic", m.Topic), zap.Error(err))
		p.fail("decode")
		return p.toDLQ(ctx, m, err)
	}

	for attempt := 0; ; attempt++ {
		if err = persist(ctx); err == nil {
			if p.OnPersist != nil {
				p.OnPersist()
			}
			return nil
		}
		p.fail("db_insert")
		if attempt >= p.Retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Backoff * time.Duration(attempt+1)):
		}
	}
	p.Log.Warn("db insert failed, enviando para DLQ", zap.String("key", string(m.Key)), zap.Error(err))
	return p.toDLQ(ctx, m, err)
}

func (p *Processor) decode(m kafka.Message) (func(context.Context) error, error) {
	switch m.Topic {
	case p.TopicPlaced:
		var e events.BetPlaced
		if err := json.Unmarshal(m.Value, &e); err != nil {
			return nil, err
		}
		if e.BetID == "" {
			return nil, errors.New("bet_placed sem bet_id")
		}
		return func(ctx context.Context) error { return p.Repo.InsertPlaced(ctx, e) }, nil
	case p.TopicChecked:
		var e events.BetResultChecked
		if err := json.Unmarshal(m.Value, &e); err != nil {
			return nil, err
		}
		if e.BetID == "" {
			return nil, errors.New("bet_result_checked sem bet_id")
		}
		return func(ctx context.Context) error { return p.Repo.InsertResultChecked(ctx, e) }, nil
	default:
		return nil, fmt.Errorf("tópico inesperado %q", m.Topic)
	}
}

// toDLQ reenvia a mensagem original com o motivo nos headers; sem DLQ, descarta
func (p *Processor) toDLQ(ctx context.Context, m kafka.Message, cause error) error {
	if p.DLQ == nil {
		return nil
	}
	err := p.DLQ.WriteMessages(ctx, kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "origin_topic", Value: []byte(m.Topic)},
			{Key: "error", Value: []byte(cause.Error())},
		},
	})
	if err != nil {
		p.fail("dlq")
		return fmt.Errorf("dlq: %w", err)
	}
	if p.OnDLQ != nil {
		p.OnDLQ()
	}
	return nil
}
