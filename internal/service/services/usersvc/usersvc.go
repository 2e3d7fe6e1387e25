package usersvc

import (
	"context"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"go.opentelemetry.io/otel"
)

// UserService is a service for managing users.
type UserService struct {
	userRepo iuserrepo.IUserRepository
}

// option is a function that configures the UserService.
type option func(*UserService)

// MustNewUserService creates a new UserService.
func MustNewUserService(opts ...option) *UserService {
	s := &UserService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.userRepo == nil {
		panic("usersvc: user repository is not configured")
	}

	return s
}

// WithUserRepository sets the user repository for the UserService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUserRepository(repo iuserrepo.IUserRepository) option {
	return func(s *UserService) {
		s.userRepo = repo
	}
}

// CreateUser stores a new user. Fails with Conflict if the email is taken.
func (s *UserService) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "UserService.CreateUser")
	defer span.End()

	if strings.TrimSpace(u.Name) == "" {
		return user.User{}, apperr.Validation("name is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return user.User{}, apperr.Validation("email is required")
	}

	created, err := s.userRepo.Insert(ctx, u)
	if err != nil {
		return user.User{}, err
	}

	slog.Info("User created", "user_id", created.ID)

	return created, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (user.User, error) {
	return s.userRepo.Get(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.userRepo.Query(ctx, &user.QueryUsersModel{})
}

// UpdateUser overwrites only the supplied fields.
func (s *UserService) UpdateUser(
	ctx context.Context,
	id int64,
	patch user.UpdateUserModel,
) (user.User, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "UserService.UpdateUser")
	defer span.End()

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return user.User{}, apperr.Validation("name must not be empty")
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) == "" {
		return user.User{}, apperr.Validation("email must not be empty")
	}

	return s.userRepo.Update(ctx, id, patch)
}

// DeleteUser deletes a user and, through the schema, all of the user's orders.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("service").Start(ctx, "UserService.DeleteUser")
	defer span.End()

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("User deleted", "user_id", id)

	return nil
}

// OrderCounts reports how many orders each user has placed.
func (s *UserService) OrderCounts(ctx context.Context) ([]user.OrderCount, error) {
	return s.userRepo.OrderCounts(ctx)
}
