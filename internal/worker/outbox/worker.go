package outbox

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/ioutboxrepo"
	"github.com/spf13/viper"
)

const baseBackoff = 30 * time.Second

// publisher delivers one message to the broker.
type publisher interface {
	Publish(exchange, routingKey, contentType string, body []byte) error
}

// Worker relays order events from the outbox table to RabbitMQ.
type Worker struct {
	outboxRepo   ioutboxrepo.IOutboxRepository
	publisher    publisher
	pollInterval time.Duration
	batchSize    int
	maxBackoff   time.Duration
	now          func() time.Time
}

// NewWorker creates a new outbox worker configured from rabbitmq.outbox.*.
func NewWorker(outboxRepo ioutboxrepo.IOutboxRepository, publisher publisher) *Worker {
	pollInterval := viper.GetDuration("rabbitmq.outbox.interval")
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize <= 0 {
		batchSize = 100
	}

	maxBackoff := viper.GetDuration("rabbitmq.outbox.max_backoff")
	if maxBackoff <= 0 {
		maxBackoff = 5 * time.Minute
	}

	return &Worker{
		outboxRepo:   outboxRepo,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxBackoff:   maxBackoff,
		now:          time.Now,
	}
}

// Start processes the outbox every poll interval until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return nil
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// processMessages publishes one batch of pending messages.
func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.outboxRepo.GetPendingMessages(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from outbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Debug("Processing outbox messages", "count", len(messages))

	for _, msg := range messages {
		err := w.publisher.Publish(msg.ExchangeName, msg.RoutingKey, msg.ContentType, msg.Payload)
		if err != nil {
			newRetryCount := msg.RetryCount + 1
			nextRetryAt := w.now().Add(w.backoff(newRetryCount))

			slog.Warn("Failed to publish message from outbox, will retry",
				"outbox_id", msg.ID,
				"retry_count", newRetryCount,
				"next_retry", nextRetryAt,
				"error", err,
			)

			if err := w.outboxRepo.UpdateRetry(ctx, msg.ID, newRetryCount, err.Error(), nextRetryAt); err != nil {
				slog.Error("Failed to update retry information", "outbox_id", msg.ID, "error", err)
			}

			continue
		}

		if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete message from outbox after successful publish",
				"outbox_id", msg.ID,
				"error", err,
			)

			continue
		}

		slog.Info("Order event published", "outbox_id", msg.ID, "routing_key", msg.RoutingKey)
	}
}

// backoff doubles from 60s with every retry and is capped at maxBackoff.
func (w *Worker) backoff(retry int) time.Duration {
	if retry > 16 {
		return w.maxBackoff
	}

	d := time.Duration(math.Pow(2, float64(retry))) * baseBackoff
	if d > w.maxBackoff {
		return w.maxBackoff
	}

	return d
}
