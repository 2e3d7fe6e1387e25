package productsvc

import (
	"context"
	"testing"

	"github.com/corray333/backend-labs/shop/internal/dal/memory"
	"github.com/corray333/backend-labs/shop/internal/service/apperr"
	"github.com/corray333/backend-labs/shop/internal/service/models/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *ProductService {
	return MustNewProductService(WithProductRepository(memory.NewStore().ProductRepository()))
}

func TestProductService_CreateProduct(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, product.Product{
		Name:  "Laptop",
		Price: decimal.RequireFromString("999.99"),
		Stock: 10,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "999.99", created.Price.String())

	free, err := svc.CreateProduct(ctx, product.Product{Name: "Sticker"})
	require.NoError(t, err)
	assert.True(t, free.Price.IsZero())

	_, err = svc.CreateProduct(ctx, product.Product{Name: "Broken", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.CreateProduct(ctx, product.Product{Price: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestProductService_UpdateProduct(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	description := "wireless"
	created, err := svc.CreateProduct(ctx, product.Product{
		Name:        "Mouse",
		Description: &description,
		Price:       decimal.NewFromInt(25),
		Stock:       3,
	})
	require.NoError(t, err)

	price := decimal.RequireFromString("19.50")
	updated, err := svc.UpdateProduct(ctx, created.ID, product.UpdateProductModel{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Mouse", updated.Name)
	assert.Equal(t, 3, updated.Stock)
	assert.True(t, updated.Price.Equal(price))

	require.NotNil(t, updated.Description)
	assert.Equal(t, "wireless", *updated.Description)

	cleared, err := svc.UpdateProduct(ctx, created.ID, product.UpdateProductModel{ClearDescription: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)
	assert.True(t, cleared.Price.Equal(price))

	negative := decimal.NewFromInt(-5)
	_, err = svc.UpdateProduct(ctx, created.ID, product.UpdateProductModel{Price: &negative})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateProduct(ctx, 777, product.UpdateProductModel{Price: &price})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProductService_DeleteProduct(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, product.Product{Name: "Desk", Price: decimal.NewFromInt(300)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))

	_, err = svc.GetProduct(ctx, created.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	require.ErrorIs(t, svc.DeleteProduct(ctx, created.ID), apperr.ErrNotFound)
}

func TestProductService_ColumnRanges(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	maxed, err := svc.CreateProduct(ctx, product.Product{Name: "Yacht", Price: product.MaxPrice, Stock: product.MaxStock})
	require.NoError(t, err)
	assert.True(t, maxed.Price.Equal(product.MaxPrice))

	tooExpensive := decimal.RequireFromString("10000000000.00")
	_, err = svc.CreateProduct(ctx, product.Product{Name: "Island", Price: tooExpensive})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.CreateProduct(ctx, product.Product{Name: "Bolts", Price: decimal.NewFromInt(1), Stock: -1})
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateProduct(ctx, maxed.ID, product.UpdateProductModel{Price: &tooExpensive})
	require.ErrorIs(t, err, apperr.ErrValidation)

	tooMany := product.MaxStock + 1
	_, err = svc.UpdateProduct(ctx, maxed.ID, product.UpdateProductModel{Stock: &tooMany})
	require.ErrorIs(t, err, apperr.ErrValidation)
}
