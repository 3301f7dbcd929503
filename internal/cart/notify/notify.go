// Package notify turns cart operation errors into messages for the shopper.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/rocketcart/internal/cart"
	carterrors "github.com/abgdnv/rocketcart/internal/cart/errors"
	"github.com/abgdnv/rocketcart/internal/cart/service"
	"github.com/abgdnv/rocketcart/pkg/messaging"
	"github.com/abgdnv/rocketcart/pkg/messaging/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// User-facing messages.
const (
	MsgStockExceeded = "Quantidade solicitada fora de estoque"
	MsgAddFailed     = "Erro na adição do produto"
	MsgRemoveFailed  = "Erro na remoção do produto"
	MsgUpdateFailed  = "Erro na alteração de quantidade do produto"
)

// Notifier shows a message to the shopper. It never fails.
type Notifier interface {
	ReportError(ctx context.Context, message string)
}

// Message returns the user-facing message for an error returned by a cart operation,
// or an empty string for nil.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, carterrors.ErrStockExceeded):
		return MsgStockExceeded
	case errors.Is(err, carterrors.ErrRemoveProduct):
		return MsgRemoveFailed
	case errors.Is(err, carterrors.ErrUpdateProductAmount):
		return MsgUpdateFailed
	default:
		return MsgAddFailed
	}
}

var _ service.CartService = (*Reporter)(nil)

// Reporter decorates a CartService and reports every failed operation to a Notifier.
// Errors are still returned to the caller.
type Reporter struct {
	next     service.CartService
	notifier Notifier
}

func NewReporter(next service.CartService, notifier Notifier) *Reporter {
	return &Reporter{next: next, notifier: notifier}
}

func (r *Reporter) Cart() cart.Cart {
	return r.next.Cart()
}

func (r *Reporter) AddProduct(ctx context.Context, productID int64) error {
	return r.report(ctx, r.next.AddProduct(ctx, productID))
}

func (r *Reporter) RemoveProduct(ctx context.Context, productID int64) error {
	return r.report(ctx, r.next.RemoveProduct(ctx, productID))
}

func (r *Reporter) UpdateProductAmount(ctx context.Context, req service.UpdateProductAmount) error {
	return r.report(ctx, r.next.UpdateProductAmount(ctx, req))
}

func (r *Reporter) report(ctx context.Context, err error) error {
	if err != nil {
		r.notifier.ReportError(ctx, Message(err))
	}
	return err
}

// LogNotifier writes messages to the log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) ReportError(ctx context.Context, message string) {
	n.logger.WarnContext(ctx, "Cart notification", "message", message)
}

// Kinds carried by CartNotificationEvent.
const (
	KindError = "error"
)

// NatsNotifier publishes messages as CartNotificationEvent.
type NatsNotifier struct {
	publisher messaging.Publisher
	logger    *slog.Logger
	timeout   time.Duration
}

// NewNatsNotifier creates a NatsNotifier. Each publish is bounded by timeout.
func NewNatsNotifier(publisher messaging.Publisher, logger *slog.Logger, timeout time.Duration) *NatsNotifier {
	return &NatsNotifier{publisher: publisher, logger: logger.With("component", "notifier"), timeout: timeout}
}

func (n *NatsNotifier) ReportError(ctx context.Context, message string) {
	carrier := make(propagation.MapCarrier)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	event := events.CartNotificationEvent{
		Carrier:   carrier,
		Message:   message,
		Kind:      KindError,
		CreatedAt: time.Now().UTC(),
	}

	// the shopper's request may already be gone
	ctx = context.WithoutCancel(ctx)
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish CartNotificationEvent", "error", err, "message", message)
	}
}
