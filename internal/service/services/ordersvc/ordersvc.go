package ordersvc

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/postgres"
	"github.com/corray333/backend-labs/shop/internal/dal/uow"
	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

const maxStatusLength = 20

// OrderService is a service for managing orders.
type OrderService struct {
	newUOW      func() UnitOfWork
	eventsQueue string
}

// UnitOfWork is the transactional boundary CreateOrder runs in. Repositories
// obtained after Begin must operate inside the transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	UserRepository() iuserrepo.IUserRepository
	ProductRepository() iproductrepo.IProductRepository
	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("ordersvc: unit of work is not configured")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.newUOW = func() UnitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithUnitOfWork sets the factory of units of work for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(newUOW func() UnitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = newUOW
	}
}

// WithOrderEvents makes CreateOrder write an order-created message for queue
// into the outbox, in the same transaction as the order.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderEvents(queue string) option {
	return func(s *OrderService) {
		s.eventsQueue = queue
	}
}

// CreateOrderItem is one requested line of a new order.
type CreateOrderItem struct {
	ProductID int64
	// Quantity defaults to 1 when zero.
	Quantity int
}

// CreateOrderInput is the request to create an order.
type CreateOrderInput struct {
	UserID int64
	// Status defaults to order.StatusPending when empty.
	Status string
	Items  []CreateOrderItem
}

// normalize applies the defaults. Items is cloned first so the caller's slice is left untouched.
func (in *CreateOrderInput) normalize() error {
	in.Items = slices.Clone(in.Items)

	if in.Status == "" {
		in.Status = order.StatusPending
	}
	if len(in.Status) > maxStatusLength {
		return apperr.Validation("status must be at most %d characters", maxStatusLength)
	}

	for i := range in.Items {
		if in.Items[i].Quantity == 0 {
			in.Items[i].Quantity = 1
		}
		if in.Items[i].Quantity < 0 || in.Items[i].Quantity > orderitem.MaxQuantity {
			return apperr.Validation("item %d: quantity must be between 1 and %d", i, orderitem.MaxQuantity)
		}
	}

	return nil
}

// CreateOrder creates an order with its line items in a single transaction.
// Every line item snapshots the product's current price, and the order total is
// the sum of quantity * price over the items. Product stock is left untouched.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := in.normalize(); err != nil {
		return order.Order{}, err
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return order.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Error rolling back order transaction", "error", err)
		}
	}()

	u, err := work.UserRepository().Get(ctx, in.UserID)
	if err != nil {
		return order.Order{}, err
	}

	created, err := work.OrderRepository().Insert(ctx, order.Order{
		UserID:      u.ID,
		Status:      in.Status,
		TotalAmount: decimal.Zero,
	})
	if err != nil {
		return order.Order{}, err
	}

	items := make([]orderitem.OrderItem, 0, len(in.Items))
	for _, req := range in.Items {
		p, err := work.ProductRepository().Get(ctx, req.ProductID)
		if err != nil {
			return order.Order{}, err
		}

		productID := p.ID
		item := orderitem.OrderItem{
			OrderID:         created.ID,
			ProductID:       &productID,
			Quantity:        req.Quantity,
			PriceAtPurchase: p.Price,
			Product:         &p,
		}
		items = append(items, item)
	}

	created.OrderItems = items
	total := created.ComputeTotal()
	if total.GreaterThan(order.MaxTotalAmount) {
		return order.Order{}, apperr.Validation("total amount must be at most %s", order.MaxTotalAmount.StringFixed(2))
	}

	created.OrderItems, err = work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		return order.Order{}, err
	}

	if err := work.OrderRepository().SetTotal(ctx, created.ID, total); err != nil {
		return order.Order{}, err
	}
	created.TotalAmount = total

	u.OrderIDs = append(u.OrderIDs, created.ID)
	created.User = &u

	if s.eventsQueue != "" {
		event := order.NewCreatedEvent(created)
		if err := work.OutboxRepository().InsertOrderCreated(ctx, s.eventsQueue, event); err != nil {
			return order.Order{}, err
		}
	}

	if err := work.Commit(ctx); err != nil {
		return order.Order{}, fmt.Errorf("failed to commit order: %w", err)
	}

	slog.Info("Order created",
		"order_id", created.ID,
		"user_id", created.UserID,
		"items", len(created.OrderItems),
		"total_amount", created.TotalAmount.String())

	return created, nil
}

// GetOrder retrieves one order with its user and line items.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.GetOrder")
	defer span.End()

	work := s.newUOW()

	o, err := work.OrderRepository().Get(ctx, id)
	if err != nil {
		return order.Order{}, err
	}

	orders := []order.Order{o}
	if err := hydrate(ctx, work, orders); err != nil {
		return order.Order{}, err
	}

	return orders[0], nil
}

// GetOrders retrieves orders matching the filter, with users and line items.
func (s *OrderService) GetOrders(
	ctx context.Context,
	filter order.QueryOrdersModel,
) ([]order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.GetOrders")
	defer span.End()

	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, &filter)
	if err != nil {
		return nil, err
	}

	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	if err := hydrate(ctx, work, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetUserOrders retrieves the orders of one user. Fails with NotFound for an unknown user.
func (s *OrderService) GetUserOrders(ctx context.Context, userID int64) ([]order.Order, error) {
	if _, err := s.newUOW().UserRepository().Get(ctx, userID); err != nil {
		return nil, err
	}

	return s.GetOrders(ctx, order.QueryOrdersModel{UserIds: []int64{userID}})
}

// UpdateStatus changes an order's status. A nil status leaves the order unchanged.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status *string) (order.Order, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if status != nil {
		if *status == "" || len(*status) > maxStatusLength {
			return order.Order{}, apperr.Validation("status must be 1 to %d characters", maxStatusLength)
		}

		if err := s.newUOW().OrderRepository().UpdateStatus(ctx, id, *status); err != nil {
			return order.Order{}, err
		}
	}

	return s.GetOrder(ctx, id)
}

// DeleteOrder deletes an order together with its line items.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("service").Start(ctx, "OrderService.DeleteOrder")
	defer span.End()

	return s.newUOW().OrderRepository().Delete(ctx, id)
}

// hydrate attaches users and line items (with their products) to orders in place.
func hydrate(ctx context.Context, work UnitOfWork, orders []order.Order) error {
	orderIDs := make([]int64, 0, len(orders))
	userIDs := make([]int64, 0, len(orders))
	seenUsers := make(map[int64]struct{}, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		if _, ok := seenUsers[o.UserID]; !ok {
			seenUsers[o.UserID] = struct{}{}
			userIDs = append(userIDs, o.UserID)
		}
	}

	orderItems, err := work.OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{
		OrderIds: orderIDs,
	})
	if err != nil {
		return err
	}

	users, err := work.UserRepository().Query(ctx, &user.QueryUsersModel{Ids: userIDs})
	if err != nil {
		return err
	}

	usersByID := make(map[int64]user.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	itemsByOrder := make(map[int64][]orderitem.OrderItem, len(orders))
	for _, item := range orderItems {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}

	for i := range orders {
		if u, ok := usersByID[orders[i].UserID]; ok {
			orders[i].User = &u
		}
		orders[i].OrderItems = itemsByOrder[orders[i].ID]
		if orders[i].OrderItems == nil {
			orders[i].OrderItems = []orderitem.OrderItem{}
		}
	}

	return nil
}
