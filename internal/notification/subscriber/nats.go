// Package subscriber consumes cart events from JetStream and hands them to the shopper-facing channel.
package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/rocketcart/pkg/config"
	"github.com/abgdnv/rocketcart/pkg/messaging"
	"github.com/abgdnv/rocketcart/pkg/messaging/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ackableMsg is the part of jetstream.Msg the handler needs.
type ackableMsg interface {
	Subject() string
	Data() []byte
	Ack() error
	Nak() error
	Term() error
}

// Start creates (or updates) the durable consumer and runs cfg.Workers workers on it
// until ctx is done.
func Start(ctx context.Context, js jetstream.JetStream, subscriberCfg config.SubscriberConfig, logger *slog.Logger) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subscriberCfg.Subject,
		Durable:       subscriberCfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if subscriberCfg.MaxDeliver > 0 {
		cfg.MaxDeliver = subscriberCfg.MaxDeliver
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, subscriberCfg.Stream, cfg)
	if err != nil {
		return err
	}
	h := &handler{logger: logger.With("component", "subscriber"), tracer: otel.Tracer("notification-service")}
	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < subscriberCfg.Workers; i++ {
		g.Go(func() error {
			return h.runWorker(gCtx, consumer, subscriberCfg.Batch, subscriberCfg.Timeout, subscriberCfg.Interval)
		})
	}
	return g.Wait()
}

type handler struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// runWorker fetches batches from the consumer and processes them one by one.
func (h *handler) runWorker(ctx context.Context, consumer jetstream.Consumer, batchSize int, timeout, interval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(batchSize, jetstream.FetchMaxWait(timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				h.logger.ErrorContext(ctx, "failed to fetch messages", "error", err)
				time.Sleep(interval)
				continue
			}
			for msg := range batch.Messages() {
				h.handleMessage(ctx, msg)
			}
			if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
				h.logger.WarnContext(ctx, "batch ended with error", "error", err)
			}
		}
	}
}

// handleMessage decodes a cart event by subject. Undecodable payloads are nacked,
// subjects this service does not know are terminated.
func (h *handler) handleMessage(ctx context.Context, msg ackableMsg) {
	if msg == nil {
		h.logger.ErrorContext(ctx, "received nil message")
		return
	}

	var err error
	switch msg.Subject() {
	case messaging.CartNotificationsSubject:
		err = h.handleNotification(ctx, msg.Data())
	case messaging.CartUpdatedSubject:
		err = h.handleCartUpdated(ctx, msg.Data())
	default:
		h.logger.WarnContext(ctx, "unexpected subject", "subject", msg.Subject())
		if err := msg.Term(); err != nil {
			h.logger.ErrorContext(ctx, "failed to terminate message", "error", err)
		}
		return
	}

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal message", "error", err, "subject", msg.Subject())
		if err := msg.Nak(); err != nil {
			h.logger.ErrorContext(ctx, "failed to nack message", "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		h.logger.ErrorContext(ctx, "failed to ack message", "error", err)
	}
}

func (h *handler) handleNotification(ctx context.Context, data []byte) error {
	var event events.CartNotificationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	ctx, span := h.startSpan(ctx, event.Carrier, messaging.CartNotificationsSubject)
	defer span.End()
	span.SetAttributes(attribute.String("notification.kind", event.Kind))

	h.logger.InfoContext(ctx, "cart notification",
		slog.String("message", event.Message),
		slog.String("kind", event.Kind),
		slog.String("created_at", event.CreatedAt.Format(time.RFC3339)))
	return nil
}

func (h *handler) handleCartUpdated(ctx context.Context, data []byte) error {
	var event events.CartUpdatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}
	ctx, span := h.startSpan(ctx, event.Carrier, messaging.CartUpdatedSubject)
	defer span.End()

	h.logger.InfoContext(ctx, "cart updated",
		slog.String("operation", event.Operation),
		slog.Int64("product_id", event.ProductID),
		slog.Int("lines", len(event.Lines)),
		slog.String("total", event.Total),
		slog.String("updated_at", event.UpdatedAt.Format(time.RFC3339)))
	return nil
}

// startSpan continues the trace of the publishing request.
func (h *handler) startSpan(ctx context.Context, carrier map[string]string, subject string) (context.Context, trace.Span) {
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(carrier))
	return h.tracer.Start(ctx, "consume "+subject, trace.WithSpanKind(trace.SpanKindConsumer))
}
