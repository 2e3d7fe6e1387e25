package product

// QueryProductsModel represents filter parameters for querying products.
type QueryProductsModel struct {
	Ids []int64
}
