package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatedEventName identifies order-created events.
const CreatedEventName = "order.created"

// CreatedEvent is the payload published when an order has been created.
type CreatedEvent struct {
	Event       string             `json:"event"`
	OrderID     int64              `json:"order_id"`
	UserID      int64              `json:"user_id"`
	Status      string             `json:"status"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	CreatedAt   time.Time          `json:"created_at"`
	Items       []CreatedEventItem `json:"items"`
}

// CreatedEventItem is one line item of a CreatedEvent.
type CreatedEventItem struct {
	ProductID       *int64          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

// NewCreatedEvent builds the event for a freshly created order.
func NewCreatedEvent(o Order) CreatedEvent {
	items := make([]CreatedEventItem, len(o.OrderItems))
	for i, item := range o.OrderItems {
		items[i] = CreatedEventItem{
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		}
	}

	return CreatedEvent{
		Event:       CreatedEventName,
		OrderID:     o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		Items:       items,
	}
}
