package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/shopspring/decimal"
)

// IOrderRepository is an interface for order postgres repository.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (order.Order, error)
	Get(ctx context.Context, id int64) (order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	SetTotal(ctx context.Context, id int64, total decimal.Decimal) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}
