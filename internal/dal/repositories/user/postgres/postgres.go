package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
)

// UserDal represents user data access layer model.
type UserDal struct {
	Id        int64     `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     *string   `db:"phone"`
	CreatedAt time.Time `db:"created_at"`
	OrderIds  []int64   `db:"order_ids"`
}

// ToModel converts UserDal to service layer User model.
func (u *UserDal) ToModel() *user.User {
	orderIDs := u.OrderIds
	if orderIDs == nil {
		orderIDs = []int64{}
	}

	return &user.User{
		ID:        u.Id,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
		OrderIDs:  orderIDs,
	}
}

// PostgresUserRepository represents a Postgres user repository.
type PostgresUserRepository struct {
	conn postgres.Conn
	sb   sq.StatementBuilderType
}

// NewPostgresUserRepository creates a new Postgres user repository.
func NewPostgresUserRepository(conn postgres.Conn) *PostgresUserRepository {
	return &PostgresUserRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// selectUsers selects users together with the ids of their orders.
func (r *PostgresUserRepository) selectUsers() sq.SelectBuilder {
	return r.sb.
		Select(
			"u.id",
			"u.name",
			"u.email",
			"u.phone",
			"u.created_at",
			"COALESCE(array_agg(o.id ORDER BY o.id) FILTER (WHERE o.id IS NOT NULL), '{}')::bigint[] AS order_ids",
		).
		From("users u").
		LeftJoin("orders o ON o.user_id = u.id").
		GroupBy("u.id").
		OrderBy("u.id")
}

// Insert inserts a user and returns it with the generated id and creation time.
func (r *PostgresUserRepository) Insert(ctx context.Context, u user.User) (user.User, error) {
	sql, args, err := r.sb.
		Insert("users").
		Columns("name", "email", "phone").
		Values(u.Name, u.Email, u.Phone).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return user.User{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		return user.User{}, postgres.TranslateError(err, "failed to insert user")
	}
	u.OrderIDs = []int64{}

	return u, nil
}

// Get retrieves a single user by id.
func (r *PostgresUserRepository) Get(ctx context.Context, id int64) (user.User, error) {
	users, err := r.Query(ctx, &user.QueryUsersModel{Ids: []int64{id}})
	if err != nil {
		return user.User{}, err
	}
	if len(users) == 0 {
		return user.User{}, apperr.NotFound("user", id)
	}

	return users[0], nil
}

// Query retrieves users based on filter criteria.
func (r *PostgresUserRepository) Query(
	ctx context.Context,
	filter *user.QueryUsersModel,
) ([]user.User, error) {
	query := r.selectUsers()

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"u.id": filter.Ids})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.TranslateError(err, "failed to query users")
	}
	defer rows.Close()

	result := []user.User{}
	for rows.Next() {
		var dal UserDal
		err := rows.Scan(
			&dal.Id,
			&dal.Name,
			&dal.Email,
			&dal.Phone,
			&dal.CreatedAt,
			&dal.OrderIds,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}

		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Update applies the non-nil fields of patch and returns the stored user.
func (r *PostgresUserRepository) Update(
	ctx context.Context,
	id int64,
	patch user.UpdateUserModel,
) (user.User, error) {
	if patch.IsEmpty() {
		return r.Get(ctx, id)
	}

	query := r.sb.Update("users").Where(sq.Eq{"id": id})
	if patch.Name != nil {
		query = query.Set("name", *patch.Name)
	}
	if patch.Email != nil {
		query = query.Set("email", *patch.Email)
	}
	if patch.ClearPhone {
		query = query.Set("phone", nil)
	} else if patch.Phone != nil {
		query = query.Set("phone", *patch.Phone)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return user.User{}, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return user.User{}, postgres.TranslateError(err, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return user.User{}, apperr.NotFound("user", id)
	}

	return r.Get(ctx, id)
}

// Delete removes a user; the schema cascades the delete to the user's orders.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.TranslateError(err, "failed to delete user")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user", id)
	}

	return nil
}

// OrderCounts returns the number of orders per user. Users without orders are omitted.
func (r *PostgresUserRepository) OrderCounts(ctx context.Context) ([]user.OrderCount, error) {
	sql, args, err := r.sb.
		Select("u.id", "u.name", "count(o.id) AS total_orders").
		From("users u").
		Join("orders o ON o.user_id = u.id").
		GroupBy("u.id").
		OrderBy("u.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.TranslateError(err, "failed to count orders")
	}
	defer rows.Close()

	result := []user.OrderCount{}
	for rows.Next() {
		var c user.OrderCount
		if err := rows.Scan(&c.UserID, &c.UserName, &c.TotalOrders); err != nil {
			return nil, fmt.Errorf("failed to scan order count: %w", err)
		}
		result = append(result, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
