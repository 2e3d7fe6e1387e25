package order

// QueryOrdersModel represents filter parameters for querying orders.
type QueryOrdersModel struct {
	Ids     []int64
	UserIds []int64
	Status  string
}
