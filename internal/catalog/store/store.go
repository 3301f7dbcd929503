// Package store provides an interface for catalog storage operations.
package store

import (
	"context"

	"github.com/abgdnv/rocketcart/internal/catalog"
	"github.com/shopspring/decimal"
)

// ProductStore is an interface for catalog storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
// Products returned by the store carry their current stock in Amount.
type ProductStore interface {
	// FindByID retrieves a single product by its unique identifier.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindByID(ctx context.Context, id int64) (*catalog.Product, error)

	// FindAll returns products ordered by id.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context, offset, limit int32) ([]catalog.Product, error)

	// FindStock returns the stock of a product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	FindStock(ctx context.Context, id int64) (*catalog.Stock, error)

	// Create adds a new product with its initial stock.
	Create(ctx context.Context, title string, price decimal.Decimal, image string, stock int32) (*catalog.Product, error)

	// UpdateStock sets the stock of a product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdateStock(ctx context.Context, id int64, amount int32) (*catalog.Stock, error)
}
