// Package views converts service models into their JSON representations.
// Nested entities are included only when the caller asks for them.
package views

import (
	"encoding/json"
	"time"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/shopspring/decimal"
)

// Money renders an amount as a JSON number with two decimal places.
func Money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	Orders    *[]int64  `json:"orders,omitempty"`
}

// NewUser renders u; withOrders adds the ids of the user's orders.
func NewUser(u user.User, withOrders bool) User {
	v := User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}

	if withOrders {
		ids := u.OrderIDs
		if ids == nil {
			ids = []int64{}
		}
		v.Orders = &ids
	}

	return v
}

func NewUsers(users []user.User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = NewUser(u, true)
	}

	return out
}

type Product struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	Price       json.Number `json:"price"`
	Stock       int         `json:"stock"`
	CreatedAt   time.Time   `json:"created_at"`
}

func NewProduct(p product.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       Money(p.Price),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}

func NewProducts(products []product.Product) []Product {
	out := make([]Product, len(products))
	for i, p := range products {
		out[i] = NewProduct(p)
	}

	return out
}

type OrderItem struct {
	ID              int64       `json:"id"`
	ProductID       *int64      `json:"product_id"`
	Quantity        int         `json:"quantity"`
	PriceAtPurchase json.Number `json:"price_at_purchase"`
	Product         *Product    `json:"product"`
}

// NewOrderItem renders a line item; withProduct embeds the product, which is
// null once the product has been deleted.
func NewOrderItem(item orderitem.OrderItem, withProduct bool) OrderItem {
	v := OrderItem{
		ID:              item.ID,
		ProductID:       item.ProductID,
		Quantity:        item.Quantity,
		PriceAtPurchase: Money(item.PriceAtPurchase),
	}

	if withProduct && item.Product != nil {
		p := NewProduct(*item.Product)
		v.Product = &p
	}

	return v
}

type Order struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	Status      string      `json:"status"`
	TotalAmount json.Number `json:"total_amount"`
	CreatedAt   time.Time   `json:"created_at"`
	User        *User       `json:"user,omitempty"`
	OrderItems  []OrderItem `json:"order_items"`
	Products    []int64     `json:"products"`
}

// NewOrder renders o with its line items; withUser embeds the owner without
// the owner's order ids.
func NewOrder(o order.Order, withUser bool) Order {
	v := Order{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: Money(o.TotalAmount),
		CreatedAt:   o.CreatedAt,
		OrderItems:  make([]OrderItem, len(o.OrderItems)),
		Products:    []int64{},
	}

	if withUser && o.User != nil {
		u := NewUser(*o.User, false)
		v.User = &u
	}

	seen := make(map[int64]struct{}, len(o.OrderItems))
	for i, item := range o.OrderItems {
		v.OrderItems[i] = NewOrderItem(item, true)
		if item.ProductID == nil {
			continue
		}
		if _, ok := seen[*item.ProductID]; !ok {
			seen[*item.ProductID] = struct{}{}
			v.Products = append(v.Products, *item.ProductID)
		}
	}

	return v
}

func NewOrders(orders []order.Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = NewOrder(o, true)
	}

	return out
}

type OrderCount struct {
	UserID      int64  `json:"user_id"`
	UserName    string `json:"user_name"`
	TotalOrders int64  `json:"total_orders"`
}

func NewOrderCounts(counts []user.OrderCount) []OrderCount {
	out := make([]OrderCount, len(counts))
	for i, c := range counts {
		out[i] = OrderCount{
			UserID:      c.UserID,
			UserName:    c.UserName,
			TotalOrders: c.TotalOrders,
		}
	}

	return out
}
