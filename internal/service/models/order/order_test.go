package order

import (
	"testing"

	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrder_ComputeTotal(t *testing.T) {
	tests := []struct {
		name     string
		items    []orderitem.OrderItem
		expected string
	}{
		{name: "no items", items: nil, expected: "0"},
		{
			name: "two products",
			items: []orderitem.OrderItem{
				{Quantity: 2, PriceAtPurchase: decimal.NewFromInt(100)},
				{Quantity: 1, PriceAtPurchase: decimal.NewFromInt(50)},
			},
			expected: "250",
		},
		{
			name: "fractional prices stay exact",
			items: []orderitem.OrderItem{
				{Quantity: 3, PriceAtPurchase: decimal.RequireFromString("0.10")},
				{Quantity: 7, PriceAtPurchase: decimal.RequireFromString("19.99")},
			},
			expected: "140.23",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{OrderItems: tt.items}
			got := o.ComputeTotal()
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)),
				"got %s, want %s", got, tt.expected)
		})
	}
}
