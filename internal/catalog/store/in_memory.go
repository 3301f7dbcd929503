package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/abgdnv/rocketcart/internal/catalog"
	catalogerrors "github.com/abgdnv/rocketcart/internal/catalog/errors"
	"github.com/shopspring/decimal"
)

var _ ProductStore = (*InMemory)(nil)

// InMemory implements ProductStore using an in-memory map.
type InMemory struct {
	mu       sync.RWMutex
	products map[int64]catalog.Product
	nextID   int64
}

// NewInMemoryStore creates an empty in-memory ProductStore.
func NewInMemoryStore() *InMemory {
	return &InMemory{
		products: make(map[int64]catalog.Product),
		nextID:   1,
	}
}

// seedFile mirrors the layout of a json-server database: products and stock are separate lists.
type seedFile struct {
	Products []catalog.Product `json:"products"`
	Stock    []catalog.Stock   `json:"stock"`
}

// LoadSeed replaces the store content with the products and stock read from r.
// Products without a stock entry start with zero stock.
func (s *InMemory) LoadSeed(r io.Reader) error {
	var seed seedFile
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("failed to decode catalog seed: %w", err)
	}
	stock := make(map[int64]int32, len(seed.Stock))
	for _, st := range seed.Stock {
		stock[st.ID] = st.Amount
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make(map[int64]catalog.Product, len(seed.Products))
	s.nextID = 1
	for _, p := range seed.Products {
		if p.ID <= 0 {
			return fmt.Errorf("seed product %q: %w", p.Title, catalogerrors.ErrInvalidProduct)
		}
		p.Amount = stock[p.ID]
		if p.Amount < 0 {
			return fmt.Errorf("seed product %d has negative stock: %w", p.ID, catalogerrors.ErrInvalidProduct)
		}
		s.products[p.ID] = p
		s.nextID = max(s.nextID, p.ID+1)
	}
	return nil
}

// FindByID retrieves a product by its ID.
func (s *InMemory) FindByID(_ context.Context, id int64) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, catalogerrors.ErrProductNotFound
	}
	return &p, nil
}

// FindAll retrieves a page of products ordered by id.
func (s *InMemory) FindAll(_ context.Context, offset, limit int32) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	list := make([]catalog.Product, 0, limit)
	for i := int(offset); i < len(ids) && len(list) < int(limit); i++ {
		list = append(list, s.products[ids[i]])
	}
	return list, nil
}

// FindStock returns the stock of a product.
func (s *InMemory) FindStock(_ context.Context, id int64) (*catalog.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, catalogerrors.ErrProductNotFound
	}
	return &catalog.Stock{ID: p.ID, Amount: p.Amount}, nil
}

// Create creates a new product and returns it.
func (s *InMemory) Create(_ context.Context, title string, price decimal.Decimal, image string, stock int32) (*catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := catalog.Product{
		ID:     s.nextID,
		Title:  title,
		Price:  price,
		Image:  image,
		Amount: stock,
	}
	s.nextID++
	s.products[product.ID] = product

	return &product, nil
}

// UpdateStock sets the stock of a product.
func (s *InMemory) UpdateStock(_ context.Context, id int64, amount int32) (*catalog.Stock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[id]
	if !exists {
		return nil, catalogerrors.ErrProductNotFound
	}
	p.Amount = amount
	s.products[id] = p
	return &catalog.Stock{ID: id, Amount: amount}, nil
}
