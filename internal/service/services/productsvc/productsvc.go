package productsvc

import (
	"context"
	"strings"

	"github.com/corray333/backend-labs/shop/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

// ProductService is a service for managing the product catalogue.
type ProductService struct {
	productRepo iproductrepo.IProductRepository
}

// option is a function that configures the ProductService.
type option func(*ProductService)

// MustNewProductService creates a new ProductService.
func MustNewProductService(opts ...option) *ProductService {
	s := &ProductService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.productRepo == nil {
		panic("productsvc: product repository is not configured")
	}

	return s
}

// WithProductRepository sets the product repository for the ProductService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(repo iproductrepo.IProductRepository) option {
	return func(s *ProductService) {
		s.productRepo = repo
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, p product.Product) (product.Product, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	if strings.TrimSpace(p.Name) == "" {
		return product.Product{}, apperr.Validation("name is required")
	}
	if err := validatePrice(p.Price); err != nil {
		return product.Product{}, err
	}
	if err := validateStock(p.Stock); err != nil {
		return product.Product{}, err
	}

	return s.productRepo.Insert(ctx, p)
}

func (s *ProductService) GetProduct(ctx context.Context, id int64) (product.Product, error) {
	return s.productRepo.Get(ctx, id)
}

func (s *ProductService) ListProducts(ctx context.Context) ([]product.Product, error) {
	return s.productRepo.Query(ctx, &product.QueryProductsModel{})
}

// UpdateProduct overwrites only the supplied fields. Existing line items keep the
// price they were bought at.
func (s *ProductService) UpdateProduct(
	ctx context.Context,
	id int64,
	patch product.UpdateProductModel,
) (product.Product, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return product.Product{}, apperr.Validation("name must not be empty")
	}
	if patch.Price != nil {
		if err := validatePrice(*patch.Price); err != nil {
			return product.Product{}, err
		}
	}
	if patch.Stock != nil {
		if err := validateStock(*patch.Stock); err != nil {
			return product.Product{}, err
		}
	}

	return s.productRepo.Update(ctx, id, patch)
}

func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := otel.Tracer("service").Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	return s.productRepo.Delete(ctx, id)
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.Validation("price must be >= 0")
	}
	if price.GreaterThan(product.MaxPrice) {
		return apperr.Validation("price must be at most %s", product.MaxPrice.StringFixed(2))
	}

	return nil
}

func validateStock(stock int) error {
	if stock < 0 || stock > product.MaxStock {
		return apperr.Validation("stock must be between 0 and %d", product.MaxStock)
	}

	return nil
}
