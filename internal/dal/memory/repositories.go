package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/shopspring/decimal"
)

type userRepo struct {
	store view
}

func (r *userRepo) Insert(_ context.Context, u user.User) (user.User, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.checkEmail(0, u.Email); err != nil {
		return user.User{}, err
	}

	u.ID = st.id()
	u.CreatedAt = r.store.timestamp()
	u.OrderIDs = nil
	st.users[u.ID] = u

	return st.withOrders(u), nil
}

func (r *userRepo) Get(_ context.Context, id int64) (user.User, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	u, ok := st.users[id]
	if !ok {
		return user.User{}, apperr.NotFound("user", id)
	}

	return st.withOrders(u), nil
}

func (r *userRepo) Query(_ context.Context, filter *user.QueryUsersModel) ([]user.User, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	result := []user.User{}
	for _, u := range sortedValues(st.users, func(u user.User) int64 { return u.ID }) {
		if len(filter.Ids) > 0 && !contains(filter.Ids, u.ID) {
			continue
		}
		result = append(result, st.withOrders(u))
	}

	return result, nil
}

func (r *userRepo) Update(_ context.Context, id int64, patch user.UpdateUserModel) (user.User, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	u, ok := st.users[id]
	if !ok {
		return user.User{}, apperr.NotFound("user", id)
	}

	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		if err := st.checkEmail(id, *patch.Email); err != nil {
			return user.User{}, err
		}
		u.Email = *patch.Email
	}
	if patch.ClearPhone {
		u.Phone = nil
	} else if patch.Phone != nil {
		phone := *patch.Phone
		u.Phone = &phone
	}
	st.users[id] = u

	return st.withOrders(u), nil
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.users[id]; !ok {
		return apperr.NotFound("user", id)
	}

	delete(st.users, id)
	for orderID, o := range st.orders {
		if o.UserID == id {
			st.deleteOrder(orderID)
		}
	}

	return nil
}

func (r *userRepo) OrderCounts(_ context.Context) ([]user.OrderCount, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	counts := map[int64]int64{}
	for _, o := range st.orders {
		counts[o.UserID]++
	}

	result := []user.OrderCount{}
	for _, u := range sortedValues(st.users, func(u user.User) int64 { return u.ID }) {
		if counts[u.ID] == 0 {
			continue
		}
		result = append(result, user.OrderCount{
			UserID:      u.ID,
			UserName:    u.Name,
			TotalOrders: counts[u.ID],
		})
	}

	return result, nil
}

func (s *state) checkEmail(selfID int64, email string) error {
	for _, other := range s.users {
		if other.ID != selfID && other.Email == email {
			return fmt.Errorf("email %q: %w", email, apperr.ErrConflict)
		}
	}

	return nil
}

func (s *state) withOrders(u user.User) user.User {
	ids := []int64{}
	for _, o := range s.orders {
		if o.UserID == u.ID {
			ids = append(ids, o.ID)
		}
	}
	slices.Sort(ids)
	u.OrderIDs = ids

	return u
}

func (s *state) deleteOrder(id int64) {
	delete(s.orders, id)
	for itemID, item := range s.items {
		if item.OrderID == id {
			delete(s.items, itemID)
		}
	}
}

type productRepo struct {
	store view
}

func (r *productRepo) Insert(_ context.Context, p product.Product) (product.Product, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := checkPrice(p.Price); err != nil {
		return product.Product{}, err
	}

	p.ID = st.id()
	p.CreatedAt = r.store.timestamp()
	st.products[p.ID] = p

	return p, nil
}

func (r *productRepo) Get(_ context.Context, id int64) (product.Product, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	p, ok := st.products[id]
	if !ok {
		return product.Product{}, apperr.NotFound("product", id)
	}

	return p, nil
}

func (r *productRepo) Query(_ context.Context, filter *product.QueryProductsModel) ([]product.Product, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	result := []product.Product{}
	for _, p := range sortedValues(st.products, func(p product.Product) int64 { return p.ID }) {
		if len(filter.Ids) > 0 && !contains(filter.Ids, p.ID) {
			continue
		}
		result = append(result, p)
	}

	return result, nil
}

func (r *productRepo) Update(
	_ context.Context,
	id int64,
	patch product.UpdateProductModel,
) (product.Product, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	p, ok := st.products[id]
	if !ok {
		return product.Product{}, apperr.NotFound("product", id)
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.ClearDescription {
		p.Description = nil
	} else if patch.Description != nil {
		description := *patch.Description
		p.Description = &description
	}
	if patch.Price != nil {
		if err := checkPrice(*patch.Price); err != nil {
			return product.Product{}, err
		}
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	st.products[id] = p

	return p, nil
}

func (r *productRepo) Delete(_ context.Context, id int64) error {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.products[id]; !ok {
		return apperr.NotFound("product", id)
	}

	delete(st.products, id)
	for itemID, item := range st.items {
		if item.ProductID != nil && *item.ProductID == id {
			item.ProductID = nil
			st.items[itemID] = item
		}
	}

	return nil
}

type orderRepo struct {
	store view
}

func (r *orderRepo) Insert(_ context.Context, o order.Order) (order.Order, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.users[o.UserID]; !ok {
		return order.Order{}, apperr.NotFound("user", o.UserID)
	}

	o.ID = st.id()
	o.CreatedAt = r.store.timestamp()
	o.User = nil
	o.OrderItems = nil
	st.orders[o.ID] = o

	return o, nil
}

func (r *orderRepo) Get(_ context.Context, id int64) (order.Order, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	o, ok := st.orders[id]
	if !ok {
		return order.Order{}, apperr.NotFound("order", id)
	}

	return o, nil
}

func (r *orderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	result := []order.Order{}
	for _, o := range sortedValues(st.orders, func(o order.Order) int64 { return o.ID }) {
		if len(filter.Ids) > 0 && !contains(filter.Ids, o.ID) {
			continue
		}
		if len(filter.UserIds) > 0 && !contains(filter.UserIds, o.UserID) {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		result = append(result, o)
	}

	return result, nil
}

func (r *orderRepo) SetTotal(_ context.Context, id int64, total decimal.Decimal) error {
	if total.GreaterThan(order.MaxTotalAmount) {
		return apperr.Validation("total amount out of range")
	}

	return r.update(id, func(o *order.Order) { o.TotalAmount = total })
}

func (r *orderRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	return r.update(id, func(o *order.Order) { o.Status = status })
}

func (r *orderRepo) update(id int64, apply func(*order.Order)) error {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	o, ok := st.orders[id]
	if !ok {
		return apperr.NotFound("order", id)
	}
	apply(&o)
	st.orders[id] = o

	return nil
}

func (r *orderRepo) Delete(_ context.Context, id int64) error {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.orders[id]; !ok {
		return apperr.NotFound("order", id)
	}
	st.deleteOrder(id)

	return nil
}

type orderItemRepo struct {
	store view
}

func (r *orderItemRepo) BulkInsert(
	_ context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, item := range orderItems {
		if _, ok := st.orders[item.OrderID]; !ok {
			return nil, apperr.NotFound("order", item.OrderID)
		}
		if item.ProductID != nil {
			if _, ok := st.products[*item.ProductID]; !ok {
				return nil, apperr.NotFound("product", *item.ProductID)
			}
		}
		if item.Quantity <= 0 {
			return nil, apperr.Validation("quantity must be positive")
		}
	}

	result := make([]orderitem.OrderItem, 0, len(orderItems))
	for _, item := range orderItems {
		item.ID = st.id()
		stored := item
		stored.Product = nil
		st.items[item.ID] = stored
		result = append(result, item)
	}

	return result, nil
}

func (r *orderItemRepo) Query(
	_ context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	items := sortedValues(st.items, func(i orderitem.OrderItem) int64 { return i.ID })
	slices.SortStableFunc(items, func(a, b orderitem.OrderItem) int {
		return cmp.Compare(a.OrderID, b.OrderID)
	})

	result := []orderitem.OrderItem{}
	for _, item := range items {
		if len(filter.Ids) > 0 && !contains(filter.Ids, item.ID) {
			continue
		}
		if len(filter.OrderIds) > 0 && !contains(filter.OrderIds, item.OrderID) {
			continue
		}
		if len(filter.ProductIds) > 0 && (item.ProductID == nil || !contains(filter.ProductIds, *item.ProductID)) {
			continue
		}
		if item.ProductID != nil {
			if p, ok := st.products[*item.ProductID]; ok {
				item.Product = &p
			}
		}
		result = append(result, item)
	}

	return result, nil
}

type outboxRepo struct {
	store view
}

func (r *outboxRepo) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	msg.ID = st.id()
	st.outbox[msg.ID] = msg

	return nil
}

func (r *outboxRepo) InsertOrderCreated(ctx context.Context, queue string, event order.CreatedEvent) error {
	msg, err := outbox.NewJSONMessage(queue, event, r.store.timestamp())
	if err != nil {
		return err
	}

	return r.Insert(ctx, msg)
}

func (r *outboxRepo) GetPendingMessages(_ context.Context, limit int) ([]outbox.OutboxMessage, error) {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	now := r.store.timestamp()
	messages := sortedValues(st.outbox, func(m outbox.OutboxMessage) int64 { return m.ID })
	slices.SortStableFunc(messages, func(a, b outbox.OutboxMessage) int {
		return a.NextRetryAt.Compare(b.NextRetryAt)
	})

	var result []outbox.OutboxMessage
	for _, m := range messages {
		if len(result) == limit {
			break
		}
		if m.NextRetryAt.After(now) || m.RetryCount >= m.MaxRetries {
			continue
		}
		result = append(result, m)
	}

	return result, nil
}

func (r *outboxRepo) Delete(_ context.Context, id int64) error {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.outbox, id)

	return nil
}

func (r *outboxRepo) UpdateRetry(
	_ context.Context,
	id int64,
	retryCount int,
	lastError string,
	nextRetryAt time.Time,
) error {
	st := r.store.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	m, ok := st.outbox[id]
	if !ok {
		return nil
	}
	m.RetryCount = retryCount
	m.LastError = lastError
	m.NextRetryAt = nextRetryAt
	m.UpdatedAt = r.store.timestamp()
	st.outbox[id] = m

	return nil
}

// checkPrice mirrors the CHECK constraint and the NUMERIC(12,2) range of products.price.
func checkPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	if price.GreaterThan(product.MaxPrice) {
		return apperr.Validation("price out of range")
	}

	return nil
}
