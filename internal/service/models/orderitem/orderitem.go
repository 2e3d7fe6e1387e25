package orderitem

import (
	"math"

	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity the INTEGER column holds.
const MaxQuantity = math.MaxInt32

// OrderItem represents a line item within an order.
type OrderItem struct {
	ID      int64
	OrderID int64
	// ProductID is nil once the referenced product has been deleted.
	ProductID       *int64
	Quantity        int
	PriceAtPurchase decimal.Decimal
	Product         *product.Product
}

// Subtotal returns quantity * price at purchase.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
