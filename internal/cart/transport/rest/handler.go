// Package rest exposes the cart over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abgdnv/rocketcart/internal/cart"
	carterrors "github.com/abgdnv/rocketcart/internal/cart/errors"
	"github.com/abgdnv/rocketcart/internal/cart/notify"
	"github.com/abgdnv/rocketcart/internal/cart/service"
	catalogerrors "github.com/abgdnv/rocketcart/internal/catalog/errors"
	"github.com/abgdnv/rocketcart/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service  service.CartService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new cart Handler.
func NewHandler(service service.CartService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// ItemView is a cart line item as rendered by the storefront.
type ItemView struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Price        decimal.Decimal `json:"price"`
	Image        string          `json:"image"`
	Amount       int32           `json:"amount"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	CanDecrement bool            `json:"canDecrement"`
}

// CartView is the response of every cart endpoint.
type CartView struct {
	Items []ItemView      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// AmountUpdateDto is the body of PUT /api/v1/cart/items/{id}.
type AmountUpdateDto struct {
	Amount *int32 `json:"amount" validate:"required"`
}

// RegisterRoutes registers the HTTP routes for the cart service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Route("/items/{id}", func(r chi.Router) {
			r.Post("/", h.AddProduct)
			r.Delete("/", h.RemoveProduct)
			r.Put("/", h.UpdateProductAmount)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// Get returns the cart with subtotals and total.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.loggerWithReqID(r), http.StatusOK, NewCartView(h.service.Cart()))
}

// AddProduct adds one unit of a product.
func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.AddProduct(r.Context(), id); err != nil {
		h.respondCartError(w, r, mLogger, id, err)
		return
	}
	mLogger.DebugContext(r.Context(), "Product added to cart", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, NewCartView(h.service.Cart()))
}

// RemoveProduct removes a product from the cart.
func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	if err := h.service.RemoveProduct(r.Context(), id); err != nil {
		h.respondCartError(w, r, mLogger, id, err)
		return
	}
	mLogger.DebugContext(r.Context(), "Product removed from cart", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, NewCartView(h.service.Cart()))
}

// UpdateProductAmount sets the quantity of a product. Amounts below one leave the cart as is.
func (h *Handler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto AmountUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		web.RespondValidationError(w, r, mLogger, err)
		return
	}

	err := h.service.UpdateProductAmount(r.Context(), service.UpdateProductAmount{ProductID: id, Amount: *dto.Amount})
	if err != nil {
		h.respondCartError(w, r, mLogger, id, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, NewCartView(h.service.Cart()))
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// respondCartError maps a cart operation error to a status code and the shopper's message.
func (h *Handler) respondCartError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, id int64, err error) {
	status := http.StatusServiceUnavailable
	switch {
	case errors.Is(err, catalogerrors.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, carterrors.ErrStockExceeded):
		status = http.StatusConflict
	case errors.Is(err, carterrors.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusServiceUnavailable {
		logger.ErrorContext(r.Context(), "Cart operation failed", "ID", id, "error", err)
	} else {
		logger.WarnContext(r.Context(), "Cart operation rejected", "ID", id, "error", err)
	}
	web.RespondError(w, logger, status, notify.Message(err))
}

// NewCartView renders c with per-item subtotals and the cart total.
func NewCartView(c cart.Cart) CartView {
	items := make([]ItemView, len(c))
	for i, it := range c {
		items[i] = ItemView{
			ID:           it.ID,
			Title:        it.Title,
			Price:        it.Price,
			Image:        it.Image,
			Amount:       it.Amount,
			Subtotal:     cart.Subtotal(it),
			CanDecrement: it.Amount > 1,
		}
	}
	return CartView{Items: items, Total: c.Total()}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
