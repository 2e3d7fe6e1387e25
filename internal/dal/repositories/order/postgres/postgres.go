package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderDal represents order data access layer model
type OrderDal struct {
	Id          int64          `db:"id"`
	UserId      int64          `db:"user_id"`
	Status      string         `db:"status"`
	TotalAmount pgtype.Numeric `db:"total_amount"`
	CreatedAt   time.Time      `db:"created_at"`
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() *order.Order {
	return &order.Order{
		ID:          o.Id,
		UserID:      o.UserId,
		Status:      o.Status,
		TotalAmount: postgres.NumericToDecimal(o.TotalAmount),
		CreatedAt:   o.CreatedAt,
		OrderItems:  []orderitem.OrderItem{}, // Will be populated separately
	}
}

type PostgresOrderRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

func NewPostgresOrderRepository(conn postgres.Conn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert inserts an order and returns it with the generated id and creation time.
// Order items are not written here.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	sql, args, err := r.sb.
		Insert("orders").
		Columns("user_id", "status", "total_amount").
		Values(o.UserID, o.Status, o.TotalAmount).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&o.ID, &o.CreatedAt); err != nil {
		return order.Order{}, postgres.TranslateError(err, "failed to insert order")
	}

	return o, nil
}

// Get retrieves a single order by id, without items.
func (r *PostgresOrderRepository) Get(ctx context.Context, id int64) (order.Order, error) {
	orders, err := r.Query(ctx, &order.QueryOrdersModel{Ids: []int64{id}})
	if err != nil {
		return order.Order{}, err
	}
	if len(orders) == 0 {
		return order.Order{}, apperr.NotFound("order", id)
	}

	return orders[0], nil
}

// Query retrieves orders based on filter criteria
func (r *PostgresOrderRepository) Query(
	ctx context.Context,
	filter *order.QueryOrdersModel,
) ([]order.Order, error) {
	query := r.sb.
		Select("id", "user_id", "status", "total_amount", "created_at").
		From("orders").
		OrderBy("id")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	if len(filter.UserIds) > 0 {
		query = query.Where(sq.Eq{"user_id": filter.UserIds})
	}

	if filter.Status != "" {
		query = query.Where(sq.Eq{"status": filter.Status})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.TranslateError(err, "failed to query orders")
	}
	defer rows.Close()

	result := []order.Order{}
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.Id,
			&dal.UserId,
			&dal.Status,
			&dal.TotalAmount,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// SetTotal writes the accumulated total onto an order.
func (r *PostgresOrderRepository) SetTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	return r.update(ctx, id, "total_amount", total)
}

// UpdateStatus changes the status of an order.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.update(ctx, id, "status", status)
}

func (r *PostgresOrderRepository) update(ctx context.Context, id int64, column string, value any) error {
	sql, args, err := r.sb.
		Update("orders").
		Set(column, value).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, "failed to update order "+column)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("order", id)
	}

	return nil
}

// Delete removes an order; the schema cascades the delete to its items.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("orders").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, "failed to delete order")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("order", id)
	}

	return nil
}
