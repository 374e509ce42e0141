package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/lottery-bet-platform/pkg/contracts/events"
)

// MessageWriter é o subconjunto de *kafka.Writer usado aqui
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher publica os eventos de aposta, chaveados pelo id da aposta
type KafkaPublisher struct {
	Placed  MessageWriter
	Checked MessageWriter
}

func NewKafkaPublisher(placed, checked MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Placed: placed, Checked: checked}
}

func (p *KafkaPublisher) PublishBetPlaced(ctx context.Context, e events.BetPlaced) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Placed, e.BetID, e)
}

func (p *KafkaPublisher) PublishBetResultChecked(ctx context.Context, e events.BetResultChecked) error {
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}
	return write(ctx, p.Checked, e.BetID, e)
}

func write(ctx context.Context, w MessageWriter, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: time.Now()})
}
