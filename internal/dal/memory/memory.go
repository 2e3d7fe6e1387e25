// Package memory implements the repository interfaces over in-process maps.
//
// It mirrors the constraints of the Postgres schema (unique email, foreign keys,
// cascading deletes, SET NULL on product deletion) and gives UnitOfWork real
// transaction semantics: writes made after Begin become visible only on Commit.
// It backs the service and transport tests.
package memory

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/outbox"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
)

var errTxDone = errors.New("memory: transaction already finished")

type state struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]user.User
	products map[int64]product.Product
	orders   map[int64]order.Order
	items    map[int64]orderitem.OrderItem
	outbox   map[int64]outbox.OutboxMessage
}

func newState() *state {
	return &state{
		users:    map[int64]user.User{},
		products: map[int64]product.Product{},
		orders:   map[int64]order.Order{},
		items:    map[int64]orderitem.OrderItem{},
		outbox:   map[int64]outbox.OutboxMessage{},
	}
}

func (s *state) clone() *state {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &state{
		nextID:   s.nextID,
		users:    maps.Clone(s.users),
		products: maps.Clone(s.products),
		orders:   maps.Clone(s.orders),
		items:    maps.Clone(s.items),
		outbox:   maps.Clone(s.outbox),
	}
}

func (s *state) id() int64 {
	s.nextID++

	return s.nextID
}

// Store is an in-memory database.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time

	commits   int
	rollbacks int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		state: newState(),
		now:   time.Now,
	}
}

func (s *Store) current() *state {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Commits returns how many transactions were committed.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commits
}

// Rollbacks returns how many transactions were rolled back.
func (s *Store) Rollbacks() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rollbacks
}

// Counts returns the number of committed users, products, orders, order items and outbox messages.
func (s *Store) Counts() (users, products, orders, items, messages int) {
	st := s.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	return len(st.users), len(st.products), len(st.orders), len(st.items), len(st.outbox)
}

// OutboxMessages returns the committed outbox messages ordered by id.
func (s *Store) OutboxMessages() []outbox.OutboxMessage {
	st := s.current()
	st.mu.Lock()
	defer st.mu.Unlock()

	return sortedValues(st.outbox, func(m outbox.OutboxMessage) int64 { return m.ID })
}

func (s *Store) UserRepository() iuserrepo.IUserRepository {
	return &userRepo{store: s}
}

func (s *Store) ProductRepository() iproductrepo.IProductRepository {
	return &productRepo{store: s}
}

// NewUnitOfWork returns a unit of work whose repositories autocommit until Begin.
func (s *Store) NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{store: s}
}

// UnitOfWork groups the repositories of one logical operation.
type UnitOfWork struct {
	store *Store
	tx    *state
	done  bool
}

func (u *UnitOfWork) view() view {
	if u.tx != nil && !u.done {
		return fixedView{st: u.tx, now: u.store.now}
	}

	return u.store
}

func (u *UnitOfWork) UserRepository() iuserrepo.IUserRepository {
	return &userRepo{store: u.view()}
}

func (u *UnitOfWork) ProductRepository() iproductrepo.IProductRepository {
	return &productRepo{store: u.view()}
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return &orderRepo{store: u.view()}
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return &orderItemRepo{store: u.view()}
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return &outboxRepo{store: u.view()}
}

// Begin snapshots the store; subsequent writes go to the snapshot.
func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.tx != nil {
		return errors.New("memory: transaction already started")
	}
	u.tx = u.store.current().clone()

	return nil
}

// Commit publishes the snapshot as the new store state.
func (u *UnitOfWork) Commit(_ context.Context) error {
	if u.tx == nil {
		return nil
	}
	if u.done {
		return errTxDone
	}

	u.store.mu.Lock()
	u.store.state = u.tx
	u.store.commits++
	u.store.mu.Unlock()
	u.done = true

	return nil
}

// Rollback discards the snapshot. It is a no-op after Commit.
func (u *UnitOfWork) Rollback(_ context.Context) error {
	if u.tx == nil || u.done {
		return nil
	}

	u.store.mu.Lock()
	u.store.rollbacks++
	u.store.mu.Unlock()
	u.done = true

	return nil
}

// view resolves the state a repository operates on.
type view interface {
	current() *state
	timestamp() time.Time
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

type fixedView struct {
	st  *state
	now func() time.Time
}

func (v fixedView) current() *state {
	return v.st
}

func (v fixedView) timestamp() time.Time {
	return v.now().UTC()
}

func sortedValues[V any](m map[int64]V, key func(V) int64) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return key(out[i]) < key(out[j]) })

	return out
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}

	return false
}
