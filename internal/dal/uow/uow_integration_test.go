package uow_test

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"

	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	orderrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/orderitem/postgres"
	productrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/product/postgres"
	userrepo "github.com/corray333/backend-labs/shop/internal/dal/repositories/user/postgres"
	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/corray333/backend-labs/shop/internal/service/services/ordersvc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClient connects to SHOP_TEST_DATABASE_URL and empties every table.
// The test is skipped when the variable is unset.
func newClient(t *testing.T) *postgres.Client {
	t.Helper()

	dsn := os.Getenv("SHOP_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SHOP_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	client, err := postgres.NewClient(ctx, dsn, 8)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	_, err = client.Pool().Exec(ctx,
		"TRUNCATE users, products, orders, order_items, outbox RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	return client
}

func seed(t *testing.T, client *postgres.Client) (user.User, product.Product, product.Product) {
	t.Helper()
	ctx := context.Background()

	u, err := userrepo.NewPostgresUserRepository(client.Pool()).Insert(ctx, user.User{
		Name:  "Alice",
		Email: "alice@example.com",
	})
	require.NoError(t, err)

	products := productrepo.NewPostgresProductRepository(client.Pool())
	keyboard, err := products.Insert(ctx, product.Product{Name: "Keyboard", Price: decimal.NewFromInt(100)})
	require.NoError(t, err)
	mouse, err := products.Insert(ctx, product.Product{Name: "Mouse", Price: decimal.NewFromInt(50)})
	require.NoError(t, err)

	return u, keyboard, mouse
}

func TestCreateOrder_Postgres(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()
	u, keyboard, mouse := seed(t, client)

	svc := ordersvc.MustNewOrderService(ordersvc.WithPostgresClient(client), ordersvc.WithOrderEvents("shop.orders"))

	created, err := svc.CreateOrder(ctx, ordersvc.CreateOrderInput{
		UserID: u.ID,
		Items: []ordersvc.CreateOrderItem{
			{ProductID: keyboard.ID, Quantity: 2},
			{ProductID: mouse.ID},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "250", created.TotalAmount.String())

	stored, err := svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(250)))
	require.Len(t, stored.OrderItems, 2)
	assert.Equal(t, "Keyboard", stored.OrderItems[0].Product.Name)

	var messages int
	require.NoError(t, client.Pool().QueryRow(ctx, "SELECT count(*) FROM outbox").Scan(&messages))
	assert.Equal(t, 1, messages)

	var routingKey string
	var payload []byte
	require.NoError(t, client.Pool().QueryRow(ctx, "SELECT routing_key, payload FROM outbox").Scan(&routingKey, &payload))
	assert.Equal(t, "shop.orders", routingKey)

	var event order.CreatedEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, order.CreatedEventName, event.Event)
	assert.Equal(t, created.ID, event.OrderID)
}

func TestCreateOrder_Postgres_RollsBack(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()
	u, keyboard, _ := seed(t, client)

	svc := ordersvc.MustNewOrderService(ordersvc.WithPostgresClient(client), ordersvc.WithOrderEvents("shop.orders"))

	_, err := svc.CreateOrder(ctx, ordersvc.CreateOrderInput{
		UserID: u.ID,
		Items: []ordersvc.CreateOrderItem{
			{ProductID: keyboard.ID, Quantity: 1},
			{ProductID: 999999, Quantity: 1},
		},
	})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	var orders, items, messages int
	require.NoError(t, client.Pool().QueryRow(ctx,
		"SELECT (SELECT count(*) FROM orders), (SELECT count(*) FROM order_items), (SELECT count(*) FROM outbox)",
	).Scan(&orders, &items, &messages))
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Zero(t, messages)
}

func TestSchema_CascadesAndSetNull(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()
	u, keyboard, _ := seed(t, client)

	svc := ordersvc.MustNewOrderService(ordersvc.WithPostgresClient(client))
	created, err := svc.CreateOrder(ctx, ordersvc.CreateOrderInput{
		UserID: u.ID,
		Items:  []ordersvc.CreateOrderItem{{ProductID: keyboard.ID, Quantity: 3}},
	})
	require.NoError(t, err)

	require.NoError(t, productrepo.NewPostgresProductRepository(client.Pool()).Delete(ctx, keyboard.ID))

	items, err := orderitemrepo.NewPostgresOrderItemRepository(client.Pool()).Query(ctx,
		&orderitem.QueryOrderItemsModel{OrderIds: []int64{created.ID}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].ProductID)
	assert.Nil(t, items[0].Product)
	assert.Equal(t, "100", items[0].PriceAtPurchase.String())

	require.NoError(t, userrepo.NewPostgresUserRepository(client.Pool()).Delete(ctx, u.ID))

	remaining, err := orderrepo.NewPostgresOrderRepository(client.Pool()).Query(ctx, &order.QueryOrdersModel{})
	require.NoError(t, err)
	assert.Empty(t, remaining)

	var lineItems int
	require.NoError(t, client.Pool().QueryRow(ctx, "SELECT count(*) FROM order_items").Scan(&lineItems))
	assert.Zero(t, lineItems)
}

func TestUsers_ConcurrentDuplicateEmail(t *testing.T) {
	client := newClient(t)
	repo := userrepo.NewPostgresUserRepository(client.Pool())

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = repo.Insert(context.Background(), user.User{Name: "Dup", Email: "dup@example.com"})
		}()
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, apperr.ErrConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, conflicts)
}

func TestProducts_PriceCheck(t *testing.T) {
	client := newClient(t)

	_, err := productrepo.NewPostgresProductRepository(client.Pool()).Insert(context.Background(), product.Product{
		Name:  "Broken",
		Price: decimal.NewFromInt(-1),
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestProducts_PriceOverflow(t *testing.T) {
	client := newClient(t)

	_, err := productrepo.NewPostgresProductRepository(client.Pool()).Insert(context.Background(), product.Product{
		Name:  "Island",
		Price: decimal.RequireFromString("10000000000"),
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdate_NullClearsOptionalColumns(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	users := userrepo.NewPostgresUserRepository(client.Pool())
	phone := "555-0100"
	u, err := users.Insert(ctx, user.User{Name: "Bob", Email: "bob@example.com", Phone: &phone})
	require.NoError(t, err)

	u, err = users.Update(ctx, u.ID, user.UpdateUserModel{ClearPhone: true})
	require.NoError(t, err)
	assert.Nil(t, u.Phone)
	assert.Equal(t, "Bob", u.Name)

	products := productrepo.NewPostgresProductRepository(client.Pool())
	description := "mechanical"
	p, err := products.Insert(ctx, product.Product{Name: "Keyboard", Description: &description, Price: decimal.NewFromInt(80)})
	require.NoError(t, err)

	p, err = products.Update(ctx, p.ID, product.UpdateProductModel{ClearDescription: true})
	require.NoError(t, err)
	assert.Nil(t, p.Description)
}
