// Package demo runs a scripted session against the shop services: it seeds users,
// products and orders, then exercises listing, updating, cascading deletes and the
// reporting queries, printing every step.
package demo

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/corray333/backend-labs/shop/internal/service/services/ordersvc"
	"github.com/shopspring/decimal"
)

// StatusShipped marks the demo orders that have left the warehouse.
const StatusShipped = "shipped"

type userService interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	DeleteUser(ctx context.Context, id int64) error
	OrderCounts(ctx context.Context) ([]user.OrderCount, error)
}

type productService interface {
	CreateProduct(ctx context.Context, p product.Product) (product.Product, error)
	ListProducts(ctx context.Context) ([]product.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch product.UpdateProductModel) (product.Product, error)
}

type orderService interface {
	CreateOrder(ctx context.Context, in ordersvc.CreateOrderInput) (order.Order, error)
	GetOrders(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error)
}

// Runner executes the scripted session.
type Runner struct {
	users    userService
	products productService
	orders   orderService
	out      io.Writer
	// Clean deletes users left over from a previous run before seeding.
	Clean bool
}

func NewRunner(users userService, products productService, orders orderService, out io.Writer) *Runner {
	return &Runner{
		users:    users,
		products: products,
		orders:   orders,
		out:      out,
	}
}

var demoUsers = []user.User{
	{Name: "Alice Johnson", Email: "alice@example.com"},
	{Name: "Bob Smith", Email: "bob@example.com"},
	{Name: "Charlie Brown", Email: "charlie@example.com"},
}

var demoProducts = []struct {
	name  string
	price int64
}{
	{name: "Laptop", price: 999},
	{name: "Headphones", price: 149},
	{name: "Keyboard", price: 79},
}

// demoOrders references demoUsers and demoProducts by index.
var demoOrders = []struct {
	user, product, quantity int
	shipped                 bool
}{
	{user: 0, product: 0, quantity: 1, shipped: true},
	{user: 0, product: 1, quantity: 2},
	{user: 1, product: 2, quantity: 3, shipped: true},
	{user: 1, product: 0, quantity: 1},
	{user: 2, product: 1, quantity: 1},
}

// Run executes the whole session. It stops at the first failing step.
func (r *Runner) Run(ctx context.Context) error {
	if r.Clean {
		if err := r.clean(ctx); err != nil {
			return err
		}
	}

	r.section("INSERTING DATA")

	users := make([]user.User, len(demoUsers))
	for i, u := range demoUsers {
		created, err := r.users.CreateUser(ctx, u)
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", u.Email, err)
		}
		users[i] = created
	}
	r.printf("Added %d users\n", len(users))

	products := make([]product.Product, len(demoProducts))
	for i, p := range demoProducts {
		created, err := r.products.CreateProduct(ctx, product.Product{
			Name:  p.name,
			Price: decimal.NewFromInt(p.price),
		})
		if err != nil {
			return fmt.Errorf("failed to create product %s: %w", p.name, err)
		}
		products[i] = created
	}
	r.printf("Added %d products\n", len(products))

	for _, o := range demoOrders {
		status := order.StatusPending
		if o.shipped {
			status = StatusShipped
		}

		_, err := r.orders.CreateOrder(ctx, ordersvc.CreateOrderInput{
			UserID: users[o.user].ID,
			Status: status,
			Items:  []ordersvc.CreateOrderItem{{ProductID: products[o.product].ID, Quantity: o.quantity}},
		})
		if err != nil {
			return fmt.Errorf("failed to create order for %s: %w", users[o.user].Email, err)
		}
	}
	r.printf("Added %d orders\n", len(demoOrders))

	r.section("QUERIES")

	if err := r.listUsers(ctx, "All Users"); err != nil {
		return err
	}

	r.printf("\n--- All Products ---\n")
	allProducts, err := r.products.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}
	for _, p := range allProducts {
		r.printf("  Name: %s, Price: $%s\n", p.Name, p.Price.StringFixed(2))
	}

	if err := r.listOrders(ctx, "All Orders (with User and Product details)", order.QueryOrdersModel{}); err != nil {
		return err
	}

	r.printf("\n--- Updating Product Price ---\n")
	laptop := products[0]
	r.printf("  Before: %s - $%s\n", laptop.Name, laptop.Price.StringFixed(2))
	newPrice := decimal.NewFromInt(899)
	laptop, err = r.products.UpdateProduct(ctx, laptop.ID, product.UpdateProductModel{Price: &newPrice})
	if err != nil {
		return fmt.Errorf("failed to update product price: %w", err)
	}
	r.printf("  After: %s - $%s\n", laptop.Name, laptop.Price.StringFixed(2))

	r.printf("\n--- Deleting User by ID ---\n")
	doomed := users[2]
	r.printf("  Deleting user: %s\n", doomed.Name)
	if err := r.users.DeleteUser(ctx, doomed.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	r.printf("  User deleted successfully\n")

	r.section("BONUS FEATURES")

	if err := r.listOrders(ctx, "Orders Not Shipped", order.QueryOrdersModel{Status: order.StatusPending}); err != nil {
		return err
	}

	r.printf("\n--- Total Orders Per User ---\n")
	counts, err := r.users.OrderCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count orders: %w", err)
	}
	for _, c := range counts {
		r.printf("  %s: %d order(s)\n", c.UserName, c.TotalOrders)
	}

	r.section("VERIFICATION: Remaining Users and Orders")

	if err := r.listUsers(ctx, "Remaining Users"); err != nil {
		return err
	}
	if err := r.listOrders(ctx, "Remaining Orders", order.QueryOrdersModel{}); err != nil {
		return err
	}

	r.printf("\nDatabase operations completed successfully!\n")

	return nil
}

func (r *Runner) clean(ctx context.Context) error {
	existing, err := r.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	for _, u := range existing {
		for _, d := range demoUsers {
			if u.Email != d.Email {
				continue
			}
			if err := r.users.DeleteUser(ctx, u.ID); err != nil {
				return fmt.Errorf("failed to remove previous demo user %s: %w", u.Email, err)
			}
		}
	}

	return nil
}

func (r *Runner) listUsers(ctx context.Context, title string) error {
	r.printf("\n--- %s ---\n", title)

	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		r.printf("  ID: %d, Name: %s, Email: %s, Orders: %d\n", u.ID, u.Name, u.Email, len(u.OrderIDs))
	}

	return nil
}

func (r *Runner) listOrders(ctx context.Context, title string, filter order.QueryOrdersModel) error {
	r.printf("\n--- %s ---\n", title)

	orders, err := r.orders.GetOrders(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	for _, o := range orders {
		owner := "<deleted>"
		if o.User != nil {
			owner = o.User.Name
		}

		lines := make([]string, 0, len(o.OrderItems))
		for _, item := range o.OrderItems {
			name := "<deleted product>"
			if item.Product != nil {
				name = item.Product.Name
			}
			lines = append(lines, fmt.Sprintf("%s x%d @ $%s", name, item.Quantity, item.PriceAtPurchase.StringFixed(2)))
		}

		r.printf("  Order ID: %d, User: %s, Items: [%s], Total: $%s, Shipped: %s\n",
			o.ID, owner, strings.Join(lines, "; "), o.TotalAmount.StringFixed(2), yesNo(o.Status == StatusShipped))
	}

	return nil
}

func (r *Runner) section(title string) {
	r.printf("\n%s\n%s\n%s\n", strings.Repeat("=", 60), title, strings.Repeat("=", 60))
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}

	return "No"
}
