package orders

import (
	"context"
	"fmt"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/shop/internal/transport/http/respond"
	"github.com/corray333/backend-labs/shop/internal/transport/http/views"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, in ordersvc.CreateOrderInput) (order.Order, error)
	GetOrder(ctx context.Context, id int64) (order.Order, error)
	GetOrders(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id int64, status *string) (order.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity"   validate:"omitempty,gt=0,max=2147483647"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	UserID int64                      `json:"user_id" validate:"required,gt=0"`
	Status *string                    `json:"status"  validate:"omitempty,min=1,max=20"`
	Items  []itemInCreateOrderRequest `json:"items"   validate:"dive"`
}

// toInput converts createOrderRequest to the service input.
func (r *createOrderRequest) toInput() ordersvc.CreateOrderInput {
	in := ordersvc.CreateOrderInput{
		UserID: r.UserID,
		Items:  make([]ordersvc.CreateOrderItem, len(r.Items)),
	}
	if r.Status != nil {
		in.Status = *r.Status
	}

	for i, item := range r.Items {
		in.Items[i] = ordersvc.CreateOrderItem{ProductID: item.ProductID}
		if item.Quantity != nil {
			in.Items[i].Quantity = *item.Quantity
		}
	}

	return in
}

// updateOrderRequest only allows the status to change.
type updateOrderRequest struct {
	Status *string `json:"status" validate:"omitempty,min=1,max=20"`
}

// List returns all orders, optionally filtered by ?status=.
func List(w http.ResponseWriter, r *http.Request, service service) {
	filter := order.QueryOrdersModel{Status: r.URL.Query().Get("status")}

	orders, err := service.GetOrders(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, "Error listing orders", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewOrders(orders))
}

func Get(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "order")
	if err != nil {
		respond.Error(w, r, "Error parsing order id", err)

		return
	}

	o, err := service.GetOrder(r.Context(), id)
	if err != nil {
		respond.Error(w, r, "Error getting order", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewOrder(o, true))
}

// Create places an order: prices are snapshotted and the total computed in one transaction.
func Create(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, "Error decoding request body for create order", err)

		return
	}

	created, err := service.CreateOrder(r.Context(), req.toInput())
	if err != nil {
		respond.Error(w, r, "Error creating order", err)

		return
	}

	respond.JSON(w, http.StatusCreated, views.NewOrder(created, true))
}

func Update(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "order")
	if err != nil {
		respond.Error(w, r, "Error parsing order id", err)

		return
	}

	req := updateOrderRequest{}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, "Error decoding request body for update order", err)

		return
	}

	updated, err := service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respond.Error(w, r, "Error updating order", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewOrder(updated, true))
}

func Delete(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "order")
	if err != nil {
		respond.Error(w, r, "Error parsing order id", err)

		return
	}

	if err := service.DeleteOrder(r.Context(), id); err != nil {
		respond.Error(w, r, "Error deleting order", err)

		return
	}

	respond.Message(w, fmt.Sprintf("Order %d deleted successfully", id))
}
