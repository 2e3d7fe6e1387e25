package usersvc

import (
	"context"
	"testing"

	"github.com/corray333/backend-labs/shop/internal/dal/memory"
	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestUserService_CreateUser(t *testing.T) {
	store := memory.NewStore()
	svc := MustNewUserService(WithUserRepository(store.UserRepository()))
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, user.User{Name: "Alice", Email: "alice@example.com", Phone: ptr("555-0100")})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Empty(t, created.OrderIDs)

	_, err = svc.CreateUser(ctx, user.User{Name: "Alice Again", Email: "alice@example.com"})
	require.ErrorIs(t, err, apperr.ErrConflict)

	tests := []struct {
		name string
		in   user.User
	}{
		{name: "missing name", in: user.User{Email: "x@example.com"}},
		{name: "blank name", in: user.User{Name: "  ", Email: "x@example.com"}},
		{name: "missing email", in: user.User{Name: "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tt.in)
			require.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestUserService_UpdateUser(t *testing.T) {
	store := memory.NewStore()
	svc := MustNewUserService(WithUserRepository(store.UserRepository()))
	ctx := context.Background()

	alice, err := svc.CreateUser(ctx, user.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, user.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, alice.ID, user.UpdateUserModel{Phone: ptr("555-0199")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)
	require.NotNil(t, updated.Phone)
	assert.Equal(t, "555-0199", *updated.Phone)

	cleared, err := svc.UpdateUser(ctx, alice.ID, user.UpdateUserModel{Phone: ptr("555-0123"), ClearPhone: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Phone)
	assert.Equal(t, "Alice", cleared.Name)

	_, err = svc.UpdateUser(ctx, alice.ID, user.UpdateUserModel{Email: ptr("bob@example.com")})
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.UpdateUser(ctx, alice.ID, user.UpdateUserModel{Name: ptr("")})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateUser(ctx, 404, user.UpdateUserModel{Name: ptr("Nobody")})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserService_DeleteUserCascadesOrders(t *testing.T) {
	store := memory.NewStore()
	svc := MustNewUserService(WithUserRepository(store.UserRepository()))
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, user.User{Name: "Carol", Email: "carol@example.com"})
	require.NoError(t, err)

	_, err = store.NewUnitOfWork().OrderRepository().Insert(ctx, order.Order{UserID: u.ID, Status: order.StatusPending})
	require.NoError(t, err)

	counts, err := svc.OrderCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, user.OrderCount{UserID: u.ID, UserName: "Carol", TotalOrders: 1}, counts[0])

	require.NoError(t, svc.DeleteUser(ctx, u.ID))

	_, err = svc.GetUser(ctx, u.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, _, orders, _, _ := store.Counts()
	assert.Zero(t, orders)

	require.ErrorIs(t, svc.DeleteUser(ctx, u.ID), apperr.ErrNotFound)
}

func TestUserService_ListUsers(t *testing.T) {
	store := memory.NewStore()
	svc := MustNewUserService(WithUserRepository(store.UserRepository()))
	ctx := context.Background()

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		_, err := svc.CreateUser(ctx, user.User{Name: "U", Email: email})
		require.NoError(t, err)
	}

	users, err = svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@example.com", users[0].Email)
}

func TestMustNewUserService_PanicsWithoutRepository(t *testing.T) {
	assert.Panics(t, func() { MustNewUserService() })
}
