// Package catalog defines the product and stock model shared by the catalog service and its consumers.
package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Product is a sellable item. Amount is context dependent: in a catalog response it is the
// available stock, inside a cart it is the quantity the shopper selected.
type Product struct {
	ID     int64           `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Image  string          `json:"image"`
	Amount int32           `json:"amount"`
}

// Stock is the quantity currently available for a product.
type Stock struct {
	ID     int64 `json:"id"`
	Amount int32 `json:"amount"`
}

// Catalog looks up products and their stock.
// Implementations return ErrProductNotFound for unknown ids and ErrUnavailable
// (possibly wrapped) when the catalog cannot be reached.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (Product, error)
	GetStock(ctx context.Context, id int64) (Stock, error)
}
