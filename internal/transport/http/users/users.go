package users

import (
	"context"
	"fmt"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/service/models/order"
	"github.com/corray333/backend-labs/shop/internal/service/models/user"
	"github.com/corray333/backend-labs/shop/internal/transport/http/respond"
	"github.com/corray333/backend-labs/shop/internal/transport/http/views"
)

// service is an interface for the service layer.
type service interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUser(ctx context.Context, id int64, patch user.UpdateUserModel) (user.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// ordersService lists the orders of one user.
type ordersService interface {
	GetUserOrders(ctx context.Context, userID int64) ([]order.Order, error)
}

// createUserRequest represents a create user request.
type createUserRequest struct {
	Name  string  `json:"name"  validate:"required,max=100"`
	Email string  `json:"email" validate:"required,email,max=100"`
	Phone *string `json:"phone" validate:"omitempty,max=20"`
}

// updateUserRequest carries the fields to overwrite; absent fields are kept and
// a null phone clears it.
type updateUserRequest struct {
	Name  *string                  `json:"name"  validate:"omitempty,min=1,max=100"`
	Email *string                  `json:"email" validate:"omitempty,email,max=100"`
	Phone respond.Optional[string] `json:"phone" validate:"omitempty,max=20"`
}

func List(w http.ResponseWriter, r *http.Request, service service) {
	users, err := service.ListUsers(r.Context())
	if err != nil {
		respond.Error(w, r, "Error listing users", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewUsers(users))
}

func Get(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "user")
	if err != nil {
		respond.Error(w, r, "Error parsing user id", err)

		return
	}

	u, err := service.GetUser(r.Context(), id)
	if err != nil {
		respond.Error(w, r, "Error getting user", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewUser(u, true))
}

func Create(w http.ResponseWriter, r *http.Request, service service) {
	req := createUserRequest{}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, "Error decoding request body for create user", err)

		return
	}

	created, err := service.CreateUser(r.Context(), user.User{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		respond.Error(w, r, "Error creating user", err)

		return
	}

	respond.JSON(w, http.StatusCreated, views.NewUser(created, true))
}

func Update(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "user")
	if err != nil {
		respond.Error(w, r, "Error parsing user id", err)

		return
	}

	req := updateUserRequest{}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, "Error decoding request body for update user", err)

		return
	}

	updated, err := service.UpdateUser(r.Context(), id, user.UpdateUserModel{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone.Value,
		ClearPhone: req.Phone.Null(),
	})
	if err != nil {
		respond.Error(w, r, "Error updating user", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewUser(updated, true))
}

func Delete(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "user")
	if err != nil {
		respond.Error(w, r, "Error parsing user id", err)

		return
	}

	if err := service.DeleteUser(r.Context(), id); err != nil {
		respond.Error(w, r, "Error deleting user", err)

		return
	}

	respond.Message(w, fmt.Sprintf("User %d deleted successfully", id))
}

// Orders lists the orders placed by one user.
func Orders(w http.ResponseWriter, r *http.Request, service ordersService) {
	id, err := respond.PathID(r, "user")
	if err != nil {
		respond.Error(w, r, "Error parsing user id", err)

		return
	}

	orders, err := service.GetUserOrders(r.Context(), id)
	if err != nil {
		respond.Error(w, r, "Error listing user orders", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewOrders(orders))
}
