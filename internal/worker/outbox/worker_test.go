package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/corray333/backend-labs/shop/internal/dal/memory"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	routingKey string
	body       string
}

type fakePublisher struct {
	err  error
	sent []published
}

func (p *fakePublisher) Publish(_, routingKey, _ string, body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, published{routingKey: routingKey, body: string(body)})

	return nil
}

func newWorker(store *memory.Store, pub publisher) *Worker {
	return &Worker{
		outboxRepo:   store.NewUnitOfWork().OutboxRepository(),
		publisher:    pub,
		pollInterval: time.Millisecond,
		batchSize:    10,
		maxBackoff:   5 * time.Minute,
		now:          time.Now,
	}
}

func enqueue(t *testing.T, store *memory.Store, body string) {
	t.Helper()

	past := time.Now().Add(-time.Second)
	err := store.NewUnitOfWork().OutboxRepository().Insert(context.Background(), outbox.OutboxMessage{
		QueueName:   "shop.orders",
		RoutingKey:  "shop.orders",
		Payload:     []byte(body),
		ContentType: "application/json",
		MaxRetries:  5,
		NextRetryAt: past,
	})
	require.NoError(t, err)
}

func TestWorker_PublishesAndDeletes(t *testing.T) {
	store := memory.NewStore()
	enqueue(t, store, `{"order_id":1}`)
	enqueue(t, store, `{"order_id":2}`)

	pub := &fakePublisher{}
	newWorker(store, pub).processMessages(context.Background())

	require.Len(t, pub.sent, 2)
	assert.Equal(t, "shop.orders", pub.sent[0].routingKey)
	assert.Equal(t, `{"order_id":1}`, pub.sent[0].body)
	assert.Empty(t, store.OutboxMessages())
}

func TestWorker_SchedulesRetryOnFailure(t *testing.T) {
	store := memory.NewStore()
	enqueue(t, store, `{"order_id":1}`)

	w := newWorker(store, &fakePublisher{err: errors.New("connection reset")})
	w.processMessages(context.Background())

	messages := store.OutboxMessages()
	require.Len(t, messages, 1)
	assert.Equal(t, 1, messages[0].RetryCount)
	assert.Equal(t, "connection reset", messages[0].LastError)
	assert.True(t, messages[0].NextRetryAt.After(time.Now()))

	pub := &fakePublisher{}
	w.publisher = pub
	w.processMessages(context.Background())
	assert.Empty(t, pub.sent, "message must wait for its backoff")
}

func TestWorker_Backoff(t *testing.T) {
	w := &Worker{maxBackoff: 5 * time.Minute}

	assert.Equal(t, time.Minute, w.backoff(1))
	assert.Equal(t, 2*time.Minute, w.backoff(2))
	assert.Equal(t, 4*time.Minute, w.backoff(3))
	assert.Equal(t, 5*time.Minute, w.backoff(4))
	assert.Equal(t, 5*time.Minute, w.backoff(100))
}

func TestWorker_StartStopsOnCancel(t *testing.T) {
	store := memory.NewStore()
	w := newWorker(store, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
