// Package service implements the Cart Store: the only component allowed to change the cart.
//
// Mutations are serialized per instance. Each one validates against catalog stock, builds the
// next cart, hands it to the Persister and only then makes it visible to readers, so a failed
// write leaves both the in-memory cart and the snapshot untouched.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/rocketcart/internal/cart"
	carterrors "github.com/abgdnv/rocketcart/internal/cart/errors"
	"github.com/abgdnv/rocketcart/internal/catalog"
	"github.com/abgdnv/rocketcart/pkg/messaging"
	"github.com/abgdnv/rocketcart/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultFetchTimeout bounds a single catalog call when no timeout is configured.
const DefaultFetchTimeout = 5 * time.Second

// DefaultPublishTimeout bounds the publication of a CartUpdatedEvent.
const DefaultPublishTimeout = 5 * time.Second

// CartService defines the operations on the shopper's cart.
type CartService interface {
	// Cart returns a copy of the current cart.
	Cart() cart.Cart

	// AddProduct adds one unit of the product, or appends it with amount 1.
	// Returns ErrStockExceeded when the catalog has no more units.
	AddProduct(ctx context.Context, productID int64) error

	// RemoveProduct removes the line item of the product.
	// Returns ErrNotFound if the product is not in the cart.
	RemoveProduct(ctx context.Context, productID int64) error

	// UpdateProductAmount sets the quantity of a line item. Amounts below one are ignored.
	UpdateProductAmount(ctx context.Context, req UpdateProductAmount) error
}

// UpdateProductAmount is the request of CartService.UpdateProductAmount.
type UpdateProductAmount struct {
	ProductID int64 `json:"productId"`
	Amount    int32 `json:"amount"`
}

// Persister receives every cart that is about to become current.
type Persister interface {
	OnMutated(ctx context.Context, c cart.Cart) error
}

// SnapshotLoader reads the cart persisted by a previous session.
type SnapshotLoader interface {
	Load(ctx context.Context) (cart.Cart, error)
}

var _ CartService = (*Service)(nil)

// Service implements CartService.
type Service struct {
	catalog        catalog.Catalog
	persister      Persister
	publisher      messaging.Publisher
	logger         *slog.Logger
	fetchTimeout   time.Duration
	publishTimeout time.Duration
	tracer         trace.Tracer
	mutations      metric.Int64Counter

	// writeMu serializes whole mutations, catalog calls included.
	writeMu sync.Mutex
	// mu guards items for readers. It is never held across a catalog call.
	mu    sync.RWMutex
	items cart.Cart
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher publishes a CartUpdatedEvent after every accepted mutation.
func WithPublisher(p messaging.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithFetchTimeout bounds every catalog call.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithPublishTimeout bounds every CartUpdatedEvent publication.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// WithLogger sets the logger of the Cart Store. slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Cart Store holding initial.
func NewService(initial cart.Cart, products catalog.Catalog, persister Persister, opts ...Option) *Service {
	meter := otel.Meter("cart-service")
	mutations, err := meter.Int64Counter("cart_mutations", metric.WithDescription("Cart mutations by operation and result"))
	if err != nil {
		panic(fmt.Sprintf("failed to create cart_mutations counter: %v", err))
	}
	s := &Service{
		catalog:        products,
		persister:      persister,
		logger:         slog.Default(),
		fetchTimeout:   DefaultFetchTimeout,
		publishTimeout: DefaultPublishTimeout,
		tracer:         otel.Tracer("cart-service"),
		mutations:      mutations,
		items:          initial.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "cart")
	return s
}

// Restore loads the cart of the previous session. A snapshot that cannot be decoded or
// breaks the cart invariants yields an empty cart. Any other load failure is returned,
// so that an unreachable slot is not overwritten by the next mutation.
func Restore(ctx context.Context, loader SnapshotLoader, logger *slog.Logger) (cart.Cart, error) {
	c, err := loader.Load(ctx)
	if err != nil && !errors.Is(err, carterrors.ErrMalformedSnapshot) {
		return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
	}
	if err == nil {
		err = c.Validate()
	}
	if err != nil {
		logger.WarnContext(ctx, "Discarding persisted cart", "error", err)
		return cart.Cart{}, nil
	}
	logger.InfoContext(ctx, "Cart restored", "items", len(c))
	return c, nil
}

// Cart returns a copy of the current cart.
func (s *Service) Cart() cart.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Clone()
}

// AddProduct adds one unit of productID to the cart.
func (s *Service) AddProduct(ctx context.Context, productID int64) error {
	return s.mutate(ctx, "add", productID, carterrors.ErrAddProduct, func(ctx context.Context, current cart.Cart) (cart.Cart, error) {
		if i := current.Index(productID); i >= 0 {
			stock, err := s.fetchStock(ctx, productID)
			if err != nil {
				return nil, err
			}
			if current[i].Amount >= stock.Amount {
				return nil, stockExceeded(productID, int64(current[i].Amount)+1, stock.Amount)
			}
			next := current.Clone()
			next[i].Amount = current[i].Amount + 1
			return next, nil
		}

		product, err := s.fetchProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if product.Amount < 1 {
			return nil, stockExceeded(productID, 1, product.Amount)
		}
		item := product
		item.ID = productID
		item.Amount = 1
		return append(current.Clone(), item), nil
	})
}

// RemoveProduct removes productID from the cart.
func (s *Service) RemoveProduct(ctx context.Context, productID int64) error {
	return s.mutate(ctx, "remove", productID, carterrors.ErrRemoveProduct, func(_ context.Context, current cart.Cart) (cart.Cart, error) {
		i := current.Index(productID)
		if i < 0 {
			return nil, fmt.Errorf("product %d: %w", productID, carterrors.ErrNotFound)
		}
		return current.Without(i), nil
	})
}

// UpdateProductAmount sets the amount of a product already in the cart.
func (s *Service) UpdateProductAmount(ctx context.Context, req UpdateProductAmount) error {
	if req.Amount <= 0 {
		return nil
	}
	return s.mutate(ctx, "update", req.ProductID, carterrors.ErrUpdateProductAmount, func(ctx context.Context, current cart.Cart) (cart.Cart, error) {
		i := current.Index(req.ProductID)
		if i < 0 {
			return nil, fmt.Errorf("product %d: %w", req.ProductID, carterrors.ErrNotFound)
		}
		stock, err := s.fetchStock(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if req.Amount > stock.Amount {
			return nil, stockExceeded(req.ProductID, int64(req.Amount), stock.Amount)
		}
		next := current.Clone()
		next[i].Amount = req.Amount
		return next, nil
	})
}

type mutation func(ctx context.Context, current cart.Cart) (cart.Cart, error)

// mutate runs fn under the write lock, persists its result and swaps it in.
// Every returned error wraps opErr and exactly one kind.
func (s *Service) mutate(ctx context.Context, op string, productID int64, opErr error, fn mutation) (err error) {
	ctx, span := s.tracer.Start(ctx, "cart."+op, trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.mutations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("result", resultOf(err)),
		))
		span.End()
	}()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Recovered from panic in cart mutation", "op", op, "panic", r)
			err = fmt.Errorf("%w: %w: panic: %v", opErr, carterrors.ErrTransient, r)
		}
	}()

	next, err := fn(ctx, s.Cart())
	if err != nil {
		s.logger.InfoContext(ctx, "Cart mutation rejected", "op", op, "product_id", productID, "error", err)
		return fmt.Errorf("%w: %w", opErr, err)
	}

	if err := s.persister.OnMutated(ctx, next); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist cart", "op", op, "product_id", productID, "error", err)
		return fmt.Errorf("%w: %w: %w", opErr, carterrors.ErrTransient, err)
	}

	s.mu.Lock()
	s.items = next
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Cart updated", "op", op, "product_id", productID, "items", len(next))
	s.publish(ctx, op, productID, next)
	return nil
}

func (s *Service) fetchProduct(ctx context.Context, productID int64) (catalog.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return catalog.Product{}, fmt.Errorf("%w: fetch product %d: %w", carterrors.ErrTransient, productID, err)
	}
	return p, nil
}

func (s *Service) fetchStock(ctx context.Context, productID int64) (catalog.Stock, error) {
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	st, err := s.catalog.GetStock(ctx, productID)
	if err != nil {
		return catalog.Stock{}, fmt.Errorf("%w: fetch stock %d: %w", carterrors.ErrTransient, productID, err)
	}
	return st, nil
}

// publish sends a best-effort CartUpdatedEvent. It runs under the write lock so that
// events leave in mutation order. The mutation is already persisted, so the event
// outlives a cancelled request.
func (s *Service) publish(ctx context.Context, op string, productID int64, c cart.Cart) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	lines := make([]events.CartLine, len(c))
	for i, it := range c {
		lines[i] = events.CartLine{ProductID: it.ID, Amount: it.Amount}
	}
	event := events.CartUpdatedEvent{
		Carrier:   carrier,
		Operation: op,
		ProductID: productID,
		Lines:     lines,
		Total:     c.Total().String(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish CartUpdatedEvent", "error", err)
	}
}

func stockExceeded(productID, requested int64, available int32) error {
	return fmt.Errorf("product %d: requested %d, available %d: %w", productID, requested, available, carterrors.ErrStockExceeded)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, carterrors.ErrStockExceeded):
		return "stock_exceeded"
	case errors.Is(err, carterrors.ErrNotFound):
		return "not_found"
	default:
		return "transient"
	}
}
