// Package service provides the catalog business logic.
package service

import (
	"context"
	"fmt"

	"github.com/abgdnv/rocketcart/internal/catalog"
	"github.com/abgdnv/rocketcart/internal/catalog/store"
	"github.com/shopspring/decimal"
)

// CatalogService defines the methods for reading and maintaining the catalog.
type CatalogService interface {
	catalog.Catalog

	// FindAll returns a page of products with their stock.
	FindAll(ctx context.Context, offset, limit int32) ([]catalog.Product, error)

	// Create adds a new product.
	Create(ctx context.Context, product ProductCreateDto) (*catalog.Product, error)

	// UpdateStock sets the available quantity of a product.
	// Returns ErrProductNotFound if no product exists with the given ID.
	UpdateStock(ctx context.Context, id int64, amount int32) (*catalog.Stock, error)
}

var _ CatalogService = (*Service)(nil)

// Service implements CatalogService on top of a ProductStore.
type Service struct {
	repository store.ProductStore
}

// NewService creates a new instance of CatalogService with the provided repository.
func NewService(repo store.ProductStore) *Service {
	return &Service{
		repository: repo,
	}
}

// ProductCreateDto represents the data transfer object for creating a new product.
type ProductCreateDto struct {
	Title string          `json:"title"  validate:"required,max=200"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"  validate:"omitempty,url"`
	Stock int32           `json:"amount" validate:"min=0"`
}

// StockUpdateDto represents the data transfer object for updating product stock.
type StockUpdateDto struct {
	Amount *int32 `json:"amount" validate:"required,min=0"`
}

// GetProduct returns the product with its current stock in Amount.
func (s *Service) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	p, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to fetch product by ID %d: %w", id, err)
	}
	return *p, nil
}

// GetStock returns the current stock of a product.
func (s *Service) GetStock(ctx context.Context, id int64) (catalog.Stock, error) {
	st, err := s.repository.FindStock(ctx, id)
	if err != nil {
		return catalog.Stock{}, fmt.Errorf("failed to fetch stock for product %d: %w", id, err)
	}
	return *st, nil
}

// FindAll returns a page of products.
func (s *Service) FindAll(ctx context.Context, offset, limit int32) ([]catalog.Product, error) {
	products, err := s.repository.FindAll(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return products, nil
}

// Create adds a new product to the catalog.
func (s *Service) Create(ctx context.Context, product ProductCreateDto) (*catalog.Product, error) {
	p, err := s.repository.Create(ctx, product.Title, product.Price, product.Image, product.Stock)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// UpdateStock sets the stock of a product.
func (s *Service) UpdateStock(ctx context.Context, id int64, amount int32) (*catalog.Stock, error) {
	st, err := s.repository.UpdateStock(ctx, id, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to update stock for product %d: %w", id, err)
	}
	return st, nil
}
