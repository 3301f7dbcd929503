package service

import (
	"context"
	"errors"
	"testing"

	"github.com/abgdnv/rocketcart/internal/catalog"
	catalogerrors "github.com/abgdnv/rocketcart/internal/catalog/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProductStore is a mock implementation of the ProductStore interface
type mockProductStore struct {
	product  *catalog.Product
	products []catalog.Product
	stock    *catalog.Stock
	error    error
}

func (m *mockProductStore) FindByID(_ context.Context, _ int64) (*catalog.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockProductStore) FindAll(_ context.Context, _, _ int32) ([]catalog.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.products, nil
}

func (m *mockProductStore) FindStock(_ context.Context, _ int64) (*catalog.Stock, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.stock, nil
}

func (m *mockProductStore) Create(_ context.Context, title string, price decimal.Decimal, image string, stock int32) (*catalog.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &catalog.Product{ID: 1, Title: title, Price: price, Image: image, Amount: stock}, nil
}

func (m *mockProductStore) UpdateStock(_ context.Context, id int64, amount int32) (*catalog.Stock, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &catalog.Stock{ID: id, Amount: amount}, nil
}

func Test_CatalogService_GetProduct(t *testing.T) {
	product := catalog.Product{ID: 1, Title: "Tênis", Price: decimal.RequireFromString("139.90"), Amount: 4}
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expected    catalog.Product
		expectError error
	}{
		{
			name:      "Success - product found",
			mockStore: &mockProductStore{product: &product},
			expected:  product,
		},
		{
			name:        "Failure - product not found",
			mockStore:   &mockProductStore{error: catalogerrors.ErrProductNotFound},
			expectError: catalogerrors.ErrProductNotFound,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := NewService(tc.mockStore)

			// when
			got, err := svc.GetProduct(context.Background(), 1)

			// then
			if tc.expectError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func Test_CatalogService_GetStock(t *testing.T) {
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expected    catalog.Stock
		expectError error
	}{
		{
			name:      "Success - stock found",
			mockStore: &mockProductStore{stock: &catalog.Stock{ID: 1, Amount: 2}},
			expected:  catalog.Stock{ID: 1, Amount: 2},
		},
		{
			name:        "Failure - store error is wrapped",
			mockStore:   &mockProductStore{error: errors.New("connection reset")},
			expectError: errors.New("connection reset"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := NewService(tc.mockStore)

			// when
			got, err := svc.GetStock(context.Background(), 1)

			// then
			if tc.expectError != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectError.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func Test_CatalogService_Create(t *testing.T) {
	// given
	svc := NewService(&mockProductStore{})
	dto := ProductCreateDto{Title: "Tênis", Price: decimal.NewFromInt(100), Image: "https://img/1.jpg", Stock: 3}

	// when
	created, err := svc.Create(context.Background(), dto)

	// then
	require.NoError(t, err)
	assert.Equal(t, "Tênis", created.Title)
	assert.Equal(t, int32(3), created.Amount)
}

func Test_CatalogService_UpdateStock(t *testing.T) {
	// given
	svc := NewService(&mockProductStore{error: catalogerrors.ErrProductNotFound})

	// when
	_, err := svc.UpdateStock(context.Background(), 9, 1)

	// then
	assert.ErrorIs(t, err, catalogerrors.ErrProductNotFound)
}
