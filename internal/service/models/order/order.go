package order

import (
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/shopspring/decimal"
)

// StatusPending is the status an order gets when none is requested.
const StatusPending = "pending"

// MaxTotalAmount is the largest total a NUMERIC(14,2) column holds.
var MaxTotalAmount = decimal.RequireFromString("999999999999.99")

// Order represents an order in the system.
type Order struct {
	ID          int64
	UserID      int64
	Status      string
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	// User is populated by the service layer when the order is read back.
	User       *user.User
	OrderItems []orderitem.OrderItem
}

// ComputeTotal returns the sum of quantity * price at purchase over the order items.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.OrderItems {
		total = total.Add(item.Subtotal())
	}

	return total
}
