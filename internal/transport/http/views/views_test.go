package views

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var createdAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestNewUser_NestedInclusion(t *testing.T) {
	u := user.User{ID: 1, Name: "Alice", Email: "a@example.com", CreatedAt: createdAt}

	with, err := json.Marshal(NewUser(u, true))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Alice","email":"a@example.com","phone":null,
		"created_at":"2024-05-01T12:00:00Z","orders":[]}`, string(with))

	without, err := json.Marshal(NewUser(u, false))
	require.NoError(t, err)
	assert.NotContains(t, string(without), "orders")
}

func TestNewOrder(t *testing.T) {
	productID := int64(7)
	o := order.Order{
		ID:          3,
		UserID:      1,
		Status:      "pending",
		TotalAmount: decimal.NewFromInt(250),
		CreatedAt:   createdAt,
		User:        &user.User{ID: 1, Name: "Alice", Email: "a@example.com", OrderIDs: []int64{3}, CreatedAt: createdAt},
		OrderItems: []orderitem.OrderItem{
			{
				ID:              10,
				ProductID:       &productID,
				Quantity:        2,
				PriceAtPurchase: decimal.NewFromInt(100),
				Product: &product.Product{
					ID: 7, Name: "Keyboard", Price: decimal.RequireFromString("120.5"), CreatedAt: createdAt,
				},
			},
			{ID: 11, Quantity: 1, PriceAtPurchase: decimal.NewFromInt(50)},
		},
	}

	data, err := json.Marshal(NewOrder(o, true))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"id": 3,
		"user_id": 1,
		"status": "pending",
		"total_amount": 250.00,
		"created_at": "2024-05-01T12:00:00Z",
		"user": {"id":1,"name":"Alice","email":"a@example.com","phone":null,"created_at":"2024-05-01T12:00:00Z"},
		"order_items": [
			{"id":10,"product_id":7,"quantity":2,"price_at_purchase":100.00,
			 "product":{"id":7,"name":"Keyboard","description":null,"price":120.50,"stock":0,"created_at":"2024-05-01T12:00:00Z"}},
			{"id":11,"product_id":null,"quantity":1,"price_at_purchase":50.00,"product":null}
		],
		"products": [7]
	}`, string(data))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, json.Number("140.23"), Money(decimal.RequireFromString("140.23")))
	assert.Equal(t, json.Number("0.00"), Money(decimal.Zero))
}
