package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abgdnv/rocketcart/internal/catalog"
	catalogerrors "github.com/abgdnv/rocketcart/internal/catalog/errors"
	"github.com/abgdnv/rocketcart/internal/catalog/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCatalogService is a mock implementation of the CatalogService interface
type mockCatalogService struct {
	product  catalog.Product
	products []catalog.Product
	stock    catalog.Stock
	error    error

	gotOffset, gotLimit int32
	gotAmount           int32
}

func (m *mockCatalogService) GetProduct(_ context.Context, _ int64) (catalog.Product, error) {
	return m.product, m.error
}

func (m *mockCatalogService) GetStock(_ context.Context, _ int64) (catalog.Stock, error) {
	return m.stock, m.error
}

func (m *mockCatalogService) FindAll(_ context.Context, offset, limit int32) ([]catalog.Product, error) {
	m.gotOffset, m.gotLimit = offset, limit
	return m.products, m.error
}

func (m *mockCatalogService) Create(_ context.Context, dto service.ProductCreateDto) (*catalog.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &catalog.Product{ID: 7, Title: dto.Title, Price: dto.Price, Image: dto.Image, Amount: dto.Stock}, nil
}

func (m *mockCatalogService) UpdateStock(_ context.Context, id int64, amount int32) (*catalog.Stock, error) {
	m.gotAmount = amount
	if m.error != nil {
		return nil, m.error
	}
	return &catalog.Stock{ID: id, Amount: amount}, nil
}

func newTestServer(svc service.CatalogService) *chi.Mux {
	mux := chi.NewRouter()
	NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(mux)
	return mux
}

func Test_CatalogAPI_FindByID(t *testing.T) {
	product := catalog.Product{ID: 1, Title: "Tênis", Price: decimal.RequireFromString("179.9"), Image: "https://img/1.jpg", Amount: 3}
	testCases := []struct {
		name         string
		mockService  *mockCatalogService
		path         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - product found",
			mockService:  &mockCatalogService{product: product},
			path:         "/products/1",
			expectedCode: http.StatusOK,
			expectedBody: `{"id":1,"title":"Tênis","price":"179.9","image":"https://img/1.jpg","amount":3}`,
		},
		{
			name:         "Failure - not found",
			mockService:  &mockCatalogService{error: catalogerrors.ErrProductNotFound},
			path:         "/products/1",
			expectedCode: http.StatusNotFound,
			expectedBody: `{"error":"Product with ID 1 not found"}`,
		},
		{
			name:         "Failure - invalid id",
			mockService:  &mockCatalogService{},
			path:         "/products/abc",
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid ID: abc"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mux := newTestServer(tc.mockService)
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			rr := httptest.NewRecorder()

			// when
			mux.ServeHTTP(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_CatalogAPI_FindAll(t *testing.T) {
	testCases := []struct {
		name         string
		query        string
		expectedCode int
		wantOffset   int32
		wantLimit    int32
	}{
		{name: "defaults", query: "", expectedCode: http.StatusOK, wantOffset: 0, wantLimit: 20},
		{name: "explicit page", query: "?offset=10&limit=5", expectedCode: http.StatusOK, wantOffset: 10, wantLimit: 5},
		{name: "limit too large", query: "?limit=1000", expectedCode: http.StatusBadRequest},
		{name: "negative offset", query: "?offset=-1", expectedCode: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := &mockCatalogService{products: []catalog.Product{}}
			mux := newTestServer(svc)
			rr := httptest.NewRecorder()

			// when
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/products"+tc.query, nil))

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusOK {
				assert.Equal(t, tc.wantOffset, svc.gotOffset)
				assert.Equal(t, tc.wantLimit, svc.gotLimit)
				assert.JSONEq(t, `[]`, rr.Body.String())
			}
		})
	}
}

func Test_CatalogAPI_Create(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		expectedCode int
	}{
		{name: "Success", body: `{"title":"Tênis","price":99.9,"image":"https://img/1.jpg","amount":2}`, expectedCode: http.StatusCreated},
		{name: "Missing title", body: `{"price":1}`, expectedCode: http.StatusBadRequest},
		{name: "Negative price", body: `{"title":"x","price":-1}`, expectedCode: http.StatusBadRequest},
		{name: "Malformed body", body: `{`, expectedCode: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestServer(&mockCatalogService{})
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tc.body)))
			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}

func Test_CatalogAPI_Stock(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		mux := newTestServer(&mockCatalogService{stock: catalog.Stock{ID: 2, Amount: 5}})
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stock/2", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"id":2,"amount":5}`, rr.Body.String())
	})

	t.Run("Put zero is allowed", func(t *testing.T) {
		svc := &mockCatalogService{}
		mux := newTestServer(svc)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/stock/2", strings.NewReader(`{"amount":0}`)))
		require.Equal(t, http.StatusOK, rr.Code)
		var st catalog.Stock
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st))
		assert.Equal(t, catalog.Stock{ID: 2, Amount: 0}, st)
	})

	t.Run("Put without amount", func(t *testing.T) {
		mux := newTestServer(&mockCatalogService{})
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/stock/2", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "validation_errors")
	})

	t.Run("Put unknown product", func(t *testing.T) {
		mux := newTestServer(&mockCatalogService{error: catalogerrors.ErrProductNotFound})
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/stock/9", strings.NewReader(`{"amount":1}`)))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
