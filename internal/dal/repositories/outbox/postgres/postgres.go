package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
)

// OutboxColumns are the writable columns of the outbox table.
var OutboxColumns = []string{
	"queue_name",
	"exchange_name",
	"routing_key",
	"payload",
	"content_type",
	"retry_count",
	"max_retries",
	"last_error",
	"created_at",
	"updated_at",
	"next_retry_at",
}

// OutboxDal represents outbox message data access layer model.
type OutboxDal struct {
	Id           int64     `db:"id"`
	QueueName    string    `db:"queue_name"`
	ExchangeName string    `db:"exchange_name"`
	RoutingKey   string    `db:"routing_key"`
	Payload      []byte    `db:"payload"`
	ContentType  string    `db:"content_type"`
	RetryCount   int       `db:"retry_count"`
	MaxRetries   int       `db:"max_retries"`
	LastError    string    `db:"last_error"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	NextRetryAt  time.Time `db:"next_retry_at"`
}

// ScanTargets returns the destinations matching id followed by OutboxColumns.
func (m *OutboxDal) ScanTargets() []any {
	return []any{
		&m.Id, &m.QueueName, &m.ExchangeName, &m.RoutingKey, &m.Payload, &m.ContentType,
		&m.RetryCount, &m.MaxRetries, &m.LastError, &m.CreatedAt, &m.UpdatedAt, &m.NextRetryAt,
	}
}

// ToModel converts OutboxDal to service layer OutboxMessage model.
func (m *OutboxDal) ToModel() outbox.OutboxMessage {
	return outbox.OutboxMessage{
		ID:           m.Id,
		QueueName:    m.QueueName,
		ExchangeName: m.ExchangeName,
		RoutingKey:   m.RoutingKey,
		Payload:      m.Payload,
		ContentType:  m.ContentType,
		RetryCount:   m.RetryCount,
		MaxRetries:   m.MaxRetries,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		NextRetryAt:  m.NextRetryAt,
	}
}

// OutboxRepository implements the outbox repository for PostgreSQL.
type OutboxRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
	now  func() time.Time
}

// NewOutboxRepository creates a new outbox repository.
// Pass a transaction to make the insert part of the caller's unit of work.
func NewOutboxRepository(conn postgres.Conn) *OutboxRepository {
	return &OutboxRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:  time.Now,
	}
}

// Insert adds a new message to the outbox.
func (r *OutboxRepository) Insert(ctx context.Context, msg outbox.OutboxMessage) error {
	query, args, err := r.sb.Insert("outbox").
		Columns(OutboxColumns...).
		Values(
			msg.QueueName,
			msg.ExchangeName,
			msg.RoutingKey,
			msg.Payload,
			msg.ContentType,
			msg.RetryCount,
			msg.MaxRetries,
			msg.LastError,
			msg.CreatedAt,
			msg.UpdatedAt,
			msg.NextRetryAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return postgres.TranslateError(err, "failed to insert outbox message")
	}

	return nil
}

// InsertOrderCreated queues the event of a freshly created order for queue.
func (r *OutboxRepository) InsertOrderCreated(
	ctx context.Context,
	queue string,
	event order.CreatedEvent,
) error {
	msg, err := outbox.NewJSONMessage(queue, event, r.now())
	if err != nil {
		return err
	}

	if err := r.Insert(ctx, msg); err != nil {
		return fmt.Errorf("order %d: %w", event.OrderID, err)
	}

	return nil
}

// GetPendingMessages retrieves messages that are due and have retries left,
// oldest due first.
func (r *OutboxRepository) GetPendingMessages(
	ctx context.Context,
	limit int,
) ([]outbox.OutboxMessage, error) {
	query, args, err := r.sb.
		Select(append([]string{"id"}, OutboxColumns...)...).
		From("outbox").
		Where(sq.LtOrEq{"next_retry_at": r.now()}).
		Where(sq.Expr("retry_count < max_retries")).
		OrderBy("next_retry_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, postgres.TranslateError(err, "failed to query outbox messages")
	}
	defer rows.Close()

	var messages []outbox.OutboxMessage
	for rows.Next() {
		var dal OutboxDal
		if err := rows.Scan(dal.ScanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.TranslateError(err, "rows iteration error")
	}

	return messages, nil
}

// Delete removes a message from the outbox after successful delivery.
func (r *OutboxRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.sb.Delete("outbox").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return postgres.TranslateError(err, fmt.Sprintf("failed to delete outbox message %d", id))
	}

	return nil
}

// UpdateRetry records a failed publish and when to try again.
func (r *OutboxRepository) UpdateRetry(
	ctx context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	query, args, err := r.sb.Update("outbox").
		Set("retry_count", retryCount).
		Set("last_error", lastError).
		Set("next_retry_at", nextRetryAt).
		Set("updated_at", r.now()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return postgres.TranslateError(err, fmt.Sprintf("failed to update outbox message %d", id))
	}

	return nil
}
