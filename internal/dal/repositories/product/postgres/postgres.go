package postgresrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/jackc/pgx/v5/pgtype"
)

// ProductColumns are the product columns in scan order.
var ProductColumns = []string{"id", "name", "description", "price", "stock", "created_at"}

// ProductDal represents product data access layer model.
type ProductDal struct {
	Id          int64          `db:"id"`
	Name        string         `db:"name"`
	Description *string        `db:"description"`
	Price       pgtype.Numeric `db:"price"`
	Stock       int            `db:"stock"`
	CreatedAt   time.Time      `db:"created_at"`
}

// ToModel converts ProductDal to service layer Product model.
func (p *ProductDal) ToModel() *product.Product {
	return &product.Product{
		ID:          p.Id,
		Name:        p.Name,
		Description: p.Description,
		Price:       postgres.NumericToDecimal(p.Price),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}

// ScanTargets returns the destinations matching ProductColumns.
func (p *ProductDal) ScanTargets() []any {
	return []any{&p.Id, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt}
}

// PostgresProductRepository represents a Postgres product repository.
type PostgresProductRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresProductRepository creates a new Postgres product repository.
func NewPostgresProductRepository(conn postgres.Conn) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert inserts a product and returns it with the generated id and creation time.
func (r *PostgresProductRepository) Insert(
	ctx context.Context,
	p product.Product,
) (product.Product, error) {
	sql, args, err := r.sb.
		Insert("products").
		Columns("name", "description", "price", "stock").
		Values(p.Name, p.Description, p.Price, p.Stock).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.CreatedAt); err != nil {
		return product.Product{}, postgres.TranslateError(err, "failed to insert product")
	}

	return p, nil
}

// Get retrieves a single product by id.
func (r *PostgresProductRepository) Get(ctx context.Context, id int64) (product.Product, error) {
	sql, args, err := r.sb.
		Select(ProductColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to build query: %w", err)
	}

	var dal ProductDal
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(dal.ScanTargets()...); err != nil {
		return product.Product{}, postgres.TranslateError(err, fmt.Sprintf("failed to get product %d", id))
	}

	return *dal.ToModel(), nil
}

// Query retrieves products based on filter criteria.
func (r *PostgresProductRepository) Query(
	ctx context.Context,
	filter *product.QueryProductsModel,
) ([]product.Product, error) {
	query := r.sb.
		Select(ProductColumns...).
		From("products").
		OrderBy("id")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.TranslateError(err, "failed to query products")
	}
	defer rows.Close()

	result := []product.Product{}
	for rows.Next() {
		var dal ProductDal
		if err := rows.Scan(dal.ScanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Update applies the non-nil fields of patch and returns the stored product.
func (r *PostgresProductRepository) Update(
	ctx context.Context,
	id int64,
	patch product.UpdateProductModel,
) (product.Product, error) {
	if patch.IsEmpty() {
		return r.Get(ctx, id)
	}

	query := r.sb.Update("products").Where(sq.Eq{"id": id})
	if patch.Name != nil {
		query = query.Set("name", *patch.Name)
	}
	if patch.ClearDescription {
		query = query.Set("description", nil)
	} else if patch.Description != nil {
		query = query.Set("description", *patch.Description)
	}
	if patch.Price != nil {
		query = query.Set("price", *patch.Price)
	}
	if patch.Stock != nil {
		query = query.Set("stock", *patch.Stock)
	}

	sql, args, err := query.Suffix("RETURNING " + strings.Join(ProductColumns, ", ")).ToSql()
	if err != nil {
		return product.Product{}, fmt.Errorf("failed to build update query: %w", err)
	}

	var dal ProductDal
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(dal.ScanTargets()...); err != nil {
		return product.Product{}, postgres.TranslateError(err, fmt.Sprintf("failed to update product %d", id))
	}

	return *dal.ToModel(), nil
}

// Delete removes a product. Line items referencing it keep their price snapshot.
func (r *PostgresProductRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("products").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, "failed to delete product")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("product", id)
	}

	return nil
}
