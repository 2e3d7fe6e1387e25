package postgresrepo

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id              int64          `db:"id"`
	OrderId         int64          `db:"order_id"`
	ProductId       *int64         `db:"product_id"`
	Quantity        int            `db:"quantity"`
	PriceAtPurchase pgtype.Numeric `db:"price_at_purchase"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() *orderitem.OrderItem {
	return &orderitem.OrderItem{
		ID:              oi.Id,
		OrderID:         oi.OrderId,
		ProductID:       oi.ProductId,
		Quantity:        oi.Quantity,
		PriceAtPurchase: postgres.NumericToDecimal(oi.PriceAtPurchase),
	}
}

// joinedProductDal holds the product columns of a LEFT JOIN; all of them are NULL
// once the product has been deleted.
type joinedProductDal struct {
	Id          *int64
	Name        *string
	Description *string
	Price       pgtype.Numeric
	Stock       *int
	CreatedAt   *time.Time
}

func (p *joinedProductDal) toModel() *product.Product {
	if p.Id == nil {
		return nil
	}

	return &product.Product{
		ID:          *p.Id,
		Name:        deref(p.Name),
		Description: p.Description,
		Price:       postgres.NumericToDecimal(p.Price),
		Stock:       deref(p.Stock),
		CreatedAt:   deref(p.CreatedAt),
	}
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}

	return *v
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.Conn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts multiple order items and returns them with their IDs, ordered by id.
// Products carried by the input items are attached by product id.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	builder := r.sb.
		Insert("order_items").
		Columns("order_id", "product_id", "quantity", "price_at_purchase")

	for _, oi := range orderItems {
		builder = builder.Values(oi.OrderID, oi.ProductID, oi.Quantity, oi.PriceAtPurchase)
	}

	sql, args, err := builder.
		Suffix("RETURNING id, order_id, product_id, quantity, price_at_purchase").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build order items insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.TranslateError(err, "failed to bulk insert order items")
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, 0, len(orderItems))
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.Quantity,
			&dal.PriceAtPurchase,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, postgres.TranslateError(err, "rows iteration error")
	}

	return attachProducts(result, orderItems), nil
}

// attachProducts copies the products of the requested items onto the inserted rows,
// matching on product id, and sorts the rows by id.
func attachProducts(inserted, requested []orderitem.OrderItem) []orderitem.OrderItem {
	products := make(map[int64]*product.Product, len(requested))
	for _, oi := range requested {
		if oi.ProductID != nil && oi.Product != nil {
			products[*oi.ProductID] = oi.Product
		}
	}

	for i := range inserted {
		if inserted[i].ProductID != nil {
			inserted[i].Product = products[*inserted[i].ProductID]
		}
	}

	slices.SortFunc(inserted, func(a, b orderitem.OrderItem) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return inserted
}

// Query retrieves order items, each with its product if it still exists.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	query := r.sb.
		Select(
			"oi.id",
			"oi.order_id",
			"oi.product_id",
			"oi.quantity",
			"oi.price_at_purchase",
			"p.id",
			"p.name",
			"p.description",
			"p.price",
			"p.stock",
			"p.created_at",
		).
		From("order_items oi").
		LeftJoin("products p ON p.id = oi.product_id").
		OrderBy("oi.order_id", "oi.id")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"oi.id": filter.Ids})
	}

	if len(filter.OrderIds) > 0 {
		query = query.Where(sq.Eq{"oi.order_id": filter.OrderIds})
	}

	if len(filter.ProductIds) > 0 {
		query = query.Where(sq.Eq{"oi.product_id": filter.ProductIds})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.TranslateError(err, "failed to query order items")
	}
	defer rows.Close()

	result := []orderitem.OrderItem{}
	for rows.Next() {
		var dal OrderItemDal
		var p joinedProductDal

		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.Quantity,
			&dal.PriceAtPurchase,
			&p.Id,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.Stock,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		item := dal.ToModel()
		item.Product = p.toModel()
		result = append(result, *item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
