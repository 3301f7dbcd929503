// Package rest exposes the catalog over HTTP using the json-server style routes the storefront expects.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	catalogerrors "github.com/abgdnv/rocketcart/internal/catalog/errors"
	"github.com/abgdnv/rocketcart/internal/catalog/service"
	"github.com/abgdnv/rocketcart/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Handler struct {
	service  service.CatalogService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new catalog Handler.
func NewHandler(service service.CatalogService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)
		r.Get("/{id}", h.FindByID)
	})
	r.Route("/stock/{id}", func(r chi.Router) {
		r.Get("/", h.FindStock)
		r.Put("/", h.UpdateStock)
	})

	r.Get("/healthz", h.HealthCheck)
}

// FindByID returns a product with its current stock in "amount".
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	found, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, mLogger, id, err)
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID)
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindAll returns a page of products. Defaults: offset 0, limit 20.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	limit, ok := web.QueryInt32(w, r, mLogger, "limit", defaultLimit, web.Between(1, maxLimit))
	if !ok {
		return
	}
	offset, ok := web.QueryInt32(w, r, mLogger, "offset", 0, web.AtLeast(0))
	if !ok {
		return
	}
	list, err := h.service.FindAll(r.Context(), offset, limit)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Create adds a product to the catalog.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var dto service.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		web.RespondValidationError(w, r, mLogger, err)
		return
	}
	if dto.Price.IsNegative() {
		web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{
			"validation_errors": map[string]string{"Price": "failed on rule: min"},
		})
		return
	}

	created, err := h.service.Create(r.Context(), dto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// FindStock returns the available quantity of a product.
func (h *Handler) FindStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	st, err := h.service.GetStock(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, r, mLogger, id, err)
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, st)
}

// UpdateStock sets the available quantity of a product.
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var dto service.StockUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		web.RespondValidationError(w, r, mLogger, err)
		return
	}

	st, err := h.service.UpdateStock(r.Context(), id, *dto.Amount)
	if err != nil {
		h.respondLookupError(w, r, mLogger, id, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Stock updated", "ID", id, "amount", st.Amount)
	web.RespondJSON(w, mLogger, http.StatusOK, st)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) respondLookupError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, id int64, err error) {
	if errors.Is(err, catalogerrors.ErrProductNotFound) {
		logger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
		return
	}
	logger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
	web.RespondError(w, logger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %d", id))
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
