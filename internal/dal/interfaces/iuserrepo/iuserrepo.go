package iuserrepo

import (
	"context"

	"github.com/corray333/backend-labs/shop/internal/service/models/user"
)

// IUserRepository is an interface for user postgres repository.
type IUserRepository interface {
	Insert(ctx context.Context, u user.User) (user.User, error)
	Get(ctx context.Context, id int64) (user.User, error)
	Query(ctx context.Context, filter *user.QueryUsersModel) ([]user.User, error)
	Update(ctx context.Context, id int64, patch user.UpdateUserModel) (user.User, error)
	Delete(ctx context.Context, id int64) error
	OrderCounts(ctx context.Context) ([]user.OrderCount, error)
}
