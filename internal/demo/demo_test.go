package demo

import (
	"bytes"
	"context"
	"testing"

	"github.com/corray333/backend-labs/shop/internal/dal/memory"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/shop/internal/service/services/productsvc"
	"github.com/corray333/backend-labs/shop/internal/service/services/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type services struct {
	users    *usersvc.UserService
	products *productsvc.ProductService
	orders   *ordersvc.OrderService
}

func newServices(store *memory.Store) services {
	return services{
		users:    usersvc.MustNewUserService(usersvc.WithUserRepository(store.UserRepository())),
		products: productsvc.MustNewProductService(productsvc.WithProductRepository(store.ProductRepository())),
		orders: ordersvc.MustNewOrderService(ordersvc.WithUnitOfWork(func() ordersvc.UnitOfWork {
			return store.NewUnitOfWork()
		})),
	}
}

func TestRunner_Run(t *testing.T) {
	store := memory.NewStore()
	svc := newServices(store)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, NewRunner(svc.users, svc.products, svc.orders, &out).Run(ctx))

	report := out.String()
	assert.Contains(t, report, "Added 3 users")
	assert.Contains(t, report, "Added 5 orders")
	assert.Contains(t, report, "Before: Laptop - $999.00")
	assert.Contains(t, report, "After: Laptop - $899.00")
	assert.Contains(t, report, "Deleting user: Charlie Brown")
	assert.Contains(t, report, "Alice Johnson: 2 order(s)")
	assert.Contains(t, report, "Bob Smith: 2 order(s)")
	assert.NotContains(t, report, "Charlie Brown: ")

	users, err := svc.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	orders, err := svc.orders.GetOrders(ctx, order.QueryOrdersModel{})
	require.NoError(t, err)
	require.Len(t, orders, 4)
	assert.Equal(t, "999", orders[0].OrderItems[0].PriceAtPurchase.String(), "price change must not touch old orders")

	pending, err := svc.orders.GetOrders(ctx, order.QueryOrdersModel{Status: order.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestRunner_CleanAllowsRerun(t *testing.T) {
	store := memory.NewStore()
	svc := newServices(store)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, NewRunner(svc.users, svc.products, svc.orders, &out).Run(ctx))

	err := NewRunner(svc.users, svc.products, svc.orders, &out).Run(ctx)
	require.Error(t, err, "seeding twice must hit the unique email constraint")

	runner := NewRunner(svc.users, svc.products, svc.orders, &out)
	runner.Clean = true
	require.NoError(t, runner.Run(ctx))
}
