package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/lottery-bet-platform/pkg/contracts/events"
)

type fakeRepo struct {
	mu       sync.Mutex
	failures int // falhas antes de aceitar
	placed   []events.BetPlaced
	checked  []events.BetResultChecked
	calls    int
}

func (r *fakeRepo) try() error {
	r.calls++
	if r.failures > 0 {
		r.failures--
		return errors.New("pg fora")
	}
	return nil
}

func (r *fakeRepo) InsertPlaced(_ context.Context, e events.BetPlaced) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.try(); err != nil {
		return err
	}
	r.placed = append(r.placed, e)
	return nil
}

func (r *fakeRepo) InsertResultChecked(_ context.Context, e events.BetResultChecked) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.try(); err != nil {
		return err
	}
	r.checked = append(r.checked, e)
	return nil
}

type fakeWriter struct {
	msgs     []kafka.Message
	err      error
	failures int // falhas antes de aceitar
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	if w.failures > 0 {
		w.failures--
		return errors.New("kafka fora")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

// fakeReader entrega as mensagens e depois cancela o contexto
type fakeReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func newProcessor(repo *fakeRepo, dlq *fakeWriter) *Processor {
	p := &Processor{
		Log:          zap.NewNop(),
		Repo:         repo,
		TopicPlaced:  "bet_placed",
		TopicChecked: "bet_result_checked",
		Retries:      3,
	}
	if dlq != nil {
		p.DLQ = dlq
	}
	return p
}

func msg(t *testing.T, topic string, v any) kafka.Message {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return kafka.Message{Topic: topic, Key: []byte("b1"), Value: b}
}

func TestHandleRoutesByTopic(t *testing.T) {
	repo := &fakeRepo{}
	p := newProcessor(repo, &fakeWriter{})

	require.NoError(t, p.Handle(context.Background(), msg(t, "bet_placed", events.BetPlaced{BetID: "b1", Status: "pending"})))
	require.NoError(t, p.Handle(context.Background(), msg(t, "bet_result_checked", events.BetResultChecked{BetID: "b1", NewStatus: "prize"})))

	assert.Len(t, repo.placed, 1)
	require.Len(t, repo.checked, 1)
	assert.Equal(t, "prize", repo.checked[0].NewStatus)
}

func TestHandleRetriesThenSucceeds(t *testing.T) {
	repo := &fakeRepo{failures: 2}
	dlq := &fakeWriter{}
	p := newProcessor(repo, dlq)
	var errs []string
	p.OnError = func(s string) { errs = append(errs, s) }

	require.NoError(t, p.Handle(context.Background(), msg(t, "bet_placed", events.BetPlaced{BetID: "b1"})))
	assert.Equal(t, 3, repo.calls)
	assert.Len(t, repo.placed, 1)
	assert.Empty(t, dlq.msgs)
	assert.Equal(t, []string{"db_insert", "db_insert"}, errs)
}

func TestHandleSendsToDLQAfterRetries(t *testing.T) {
	repo := &fakeRepo{failures: 100}
	dlq := &fakeWriter{}
	p := newProcessor(repo, dlq)
	dlqCount := 0
	p.OnDLQ = func() { dlqCount++ }

	require.NoError(t, p.Handle(context.Background(), msg(t, "bet_placed", events.BetPlaced{BetID: "b1"})))
	assert.Equal(t, 4, repo.calls, "1 tentativa + 3 retries")
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, 1, dlqCount)
	assert.Equal(t, "origin_topic", dlq.msgs[0].Headers[0].Key)
	assert.Equal(t, "bet_placed", string(dlq.msgs[0].Headers[0].Value))
}

func TestHandleInvalidPayloadGoesToDLQ(t *testing.T) {
	repo := &fakeRepo{}
	dlq := &fakeWriter{}
	p := newProcessor(repo, dlq)

	require.NoError(t, p.Handle(context.Background(), kafka.Message{Topic: "bet_placed", Value: []byte("{")}))
	require.NoError(t, p.Handle(context.Background(), msg(t, "bet_placed", events.BetPlaced{})))
	require.NoError(t, p.Handle(context.Background(), msg(t, "outro", events.BetPlaced{BetID: "b1"})))

	assert.Zero(t, repo.calls)
	assert.Len(t, dlq.msgs, 3)
}

func TestHandleFailsWhenDLQFails(t *testing.T) {
	p := newProcessor(&fakeRepo{failures: 100}, &fakeWriter{err: errors.New("kafka fora")})
	err := p.Handle(context.Background(), msg(t, "bet_placed", events.BetPlaced{BetID: "b1"}))
	assert.Error(t, err)
}

func TestRunCommitsProcessedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &fakeRepo{}
	reader := &fakeReader{cancel: cancel, msgs: []kafka.Message{
		msg(t, "bet_placed", events.BetPlaced{BetID: "b1"}),
		msg(t, "bet_result_checked", events.BetResultChecked{BetID: "b1"}),
	}}
	p := newProcessor(repo, &fakeWriter{})
	p.Reader = reader
	consumed := 0
	p.OnConsumed = func() { consumed++ }

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, consumed)
	assert.Len(t, reader.committed, 2)
	assert.Len(t, repo.placed, 1)
	assert.Len(t, repo.checked, 1)
}

func TestRunRetriesFailedMessageBeforeMovingOn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// primeira passada: 4 tentativas no banco falham e a DLQ também
	repo := &fakeRepo{failures: 4}
	dlq := &fakeWriter{failures: 1}
	first := msg(t, "bet_placed", events.BetPlaced{BetID: "b1"})
	first.Offset = 10
	second := msg(t, "bet_placed", events.BetPlaced{BetID: "b2"})
	second.Offset = 11
	reader := &fakeReader{cancel: cancel, msgs: []kafka.Message{first, second}}

	p := newProcessor(repo, dlq)
	p.Reader = reader
	p.Backoff = time.Millisecond
	var stages []string
	p.OnError = func(s string) { stages = append(stages, s) }

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, repo.placed, 2)
	assert.Equal(t, "b1", repo.placed[0].BetID)
	assert.Equal(t, "b2", repo.placed[1].BetID)
	assert.Empty(t, dlq.msgs)

	require.Len(t, reader.committed, 2)
	assert.Equal(t, int64(10), reader.committed[0].Offset)
	assert.Equal(t, int64(11), reader.committed[1].Offset)
	assert.Contains(t, stages, "handle")
}

func TestRunStopsOnCancelWhileRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{cancel: cancel, msgs: []kafka.Message{msg(t, "bet_placed", events.BetPlaced{BetID: "b1"})}}
	p := newProcessor(&fakeRepo{failures: 1 << 30}, &fakeWriter{err: errors.New("kafka fora")})
	p.Reader = reader
	p.Backoff = time.Millisecond
	p.OnError = func(s string) {
		if s == "handle" {
			cancel()
		}
	}

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reader.committed)
}
