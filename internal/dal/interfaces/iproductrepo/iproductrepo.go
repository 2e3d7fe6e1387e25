package iproductrepo

import (
	"context"

	"github.com/corray333/backend-labs/shop/internal/service/models/product"
)

// IProductRepository is an interface for product postgres repository.
type IProductRepository interface {
	Insert(ctx context.Context, p product.Product) (product.Product, error)
	Get(ctx context.Context, id int64) (product.Product, error)
	Query(ctx context.Context, filter *product.QueryProductsModel) ([]product.Product, error)
	Update(ctx context.Context, id int64, patch product.UpdateProductModel) (product.Product, error)
	Delete(ctx context.Context, id int64) error
}
