package product

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxStock is the largest stock the INTEGER column holds.
const MaxStock = math.MaxInt32

// MaxPrice is the largest price a NUMERIC(12,2) column holds.
var MaxPrice = decimal.RequireFromString("9999999999.99")

// Product represents a sellable item.
type Product struct {
	ID          int64
	Name        string
	Description *string
	Price       decimal.Decimal
	Stock       int
	CreatedAt   time.Time
}

// UpdateProductModel carries a partial update; nil fields keep their stored value.
type UpdateProductModel struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	// ClearDescription removes the stored description. It takes precedence over Description.
	ClearDescription bool
}

// IsEmpty reports whether the update changes nothing.
func (m UpdateProductModel) IsEmpty() bool {
	return m.Name == nil && m.Description == nil && m.Price == nil && m.Stock == nil && !m.ClearDescription
}
