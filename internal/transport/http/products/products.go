package products

import (
	"context"
	"fmt"
	"net/http"

	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/corray333/backend-labs/shop/internal/transport/http/respond"
	"github.com/corray333/backend-labs/shop/internal/transport/http/views"
	"github.com/shopspring/decimal"
)

// service is an interface for the service layer.
type service interface {
	CreateProduct(ctx context.Context, p product.Product) (product.Product, error)
	GetProduct(ctx context.Context, id int64) (product.Product, error)
	ListProducts(ctx context.Context) ([]product.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch product.UpdateProductModel) (product.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// createProductRequest represents a create product request. Price accepts a
// JSON number or a decimal string.
type createProductRequest struct {
	Name        string           `json:"name"        validate:"required,max=100"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"       validate:"required"`
	Stock       *int             `json:"stock"       validate:"omitempty,min=0,max=2147483647"`
}

// updateProductRequest carries the fields to overwrite; absent fields are kept and
// a null description clears it.
type updateProductRequest struct {
	Name        *string                  `json:"name"        validate:"omitempty,min=1,max=100"`
	Description respond.Optional[string] `json:"description"`
	Price       *decimal.Decimal         `json:"price"`
	Stock       *int                     `json:"stock"       validate:"omitempty,min=0,max=2147483647"`
}

func List(w http.ResponseWriter, r *http.Request, service service) {
	products, err := service.ListProducts(r.Context())
	if err != nil {
		respond.Error(w, r, "Error listing products", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewProducts(products))
}

func Get(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "product")
	if err != nil {
		respond.Error(w, r, "Error parsing product id", err)

		return
	}

	p, err := service.GetProduct(r.Context(), id)
	if err != nil {
		respond.Error(w, r, "Error getting product", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewProduct(p))
}

func Create(w http.ResponseWriter, r *http.Request, service service) {
	req := createProductRequest{}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, "Error decoding request body for create product", err)

		return
	}

	p := product.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}

	created, err := service.CreateProduct(r.Context(), p)
	if err != nil {
		respond.Error(w, r, "Error creating product", err)

		return
	}

	respond.JSON(w, http.StatusCreated, views.NewProduct(created))
}

func Update(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "product")
	if err != nil {
		respond.Error(w, r, "Error parsing product id", err)

		return
	}

	req := updateProductRequest{}
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, "Error decoding request body for update product", err)

		return
	}

	updated, err := service.UpdateProduct(r.Context(), id, product.UpdateProductModel{
		Name:             req.Name,
		Description:      req.Description.Value,
		Price:            req.Price,
		Stock:            req.Stock,
		ClearDescription: req.Description.Null(),
	})
	if err != nil {
		respond.Error(w, r, "Error updating product", err)

		return
	}

	respond.JSON(w, http.StatusOK, views.NewProduct(updated))
}

func Delete(w http.ResponseWriter, r *http.Request, service service) {
	id, err := respond.PathID(r, "product")
	if err != nil {
		respond.Error(w, r, "Error parsing product id", err)

		return
	}

	if err := service.DeleteProduct(r.Context(), id); err != nil {
		respond.Error(w, r, "Error deleting product", err)

		return
	}

	respond.Message(w, fmt.Sprintf("Product %d deleted successfully", id))
}
