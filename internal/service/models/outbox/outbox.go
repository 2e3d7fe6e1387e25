package outbox

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// ContentTypeJSON is the content type of JSON payloads.
	ContentTypeJSON = "application/json"
	// DefaultMaxRetries is how many publish attempts a message gets.
	DefaultMaxRetries = 5
)

// OutboxMessage represents an event waiting to be published to RabbitMQ.
type OutboxMessage struct {
	ID           int64
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// NewJSONMessage builds a message carrying v as JSON, due at now. It targets the
// default exchange, which routes on the queue name.
func NewJSONMessage(queue string, v any, now time.Time) (OutboxMessage, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	return OutboxMessage{
		QueueName:   queue,
		RoutingKey:  queue,
		Payload:     payload,
		ContentType: ContentTypeJSON,
		MaxRetries:  DefaultMaxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}, nil
}
