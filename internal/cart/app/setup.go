// Package app contains the application setup for the cart service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/rocketcart/internal/cart/config"
	"github.com/abgdnv/rocketcart/internal/cart/notify"
	"github.com/abgdnv/rocketcart/internal/cart/service"
	"github.com/abgdnv/rocketcart/internal/cart/store"
	"github.com/abgdnv/rocketcart/internal/cart/transport/rest"
	"github.com/abgdnv/rocketcart/internal/catalog"
	"github.com/abgdnv/rocketcart/internal/catalog/client"
	"github.com/abgdnv/rocketcart/pkg/bootstrap"
	"github.com/abgdnv/rocketcart/pkg/messaging"
	natsclient "github.com/abgdnv/rocketcart/pkg/nats"
	"github.com/abgdnv/rocketcart/pkg/server"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the name the cart reports under in grpc.health.v1.
const HealthService = "rocketcart.cart"

type Dependencies struct {
	// CartService reports failed operations to the notifier.
	CartService service.CartService
	Health      *health.Server
	Logger      *slog.Logger
	// Metrics serves the Prometheus scrape endpoint when set.
	Metrics     http.Handler
	MetricsPath string

	closers []func()
}

// Close releases the resources opened by SetupDependencies.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// Components are the collaborators of the Cart Store.
type Components struct {
	Catalog  catalog.Catalog
	Slot     store.Slot
	Key      string
	Notifier notify.Notifier
	// Options are passed to the Cart Store as is.
	Options []service.Option
}

// SetupDependencies connects to the configured catalog, snapshot slot and notifier,
// restores the cart and builds the service.
func SetupDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger}

	catalogClient, err := client.New(cfg.Catalog, cfg.Resilience)
	if err != nil {
		return nil, err
	}

	slot, err := setupSlot(ctx, cfg, logger, deps)
	if err != nil {
		deps.Close()
		return nil, err
	}

	var publisher messaging.Publisher
	if cfg.UsesNATS() {
		publisher, err = setupPublisher(ctx, cfg, logger, deps)
		if err != nil {
			deps.Close()
			return nil, err
		}
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Notifications.Driver == config.NotifyNATS {
		notifier = notify.NewNatsNotifier(publisher, logger, cfg.NATS.Timeout)
	}

	opts := []service.Option{service.WithLogger(logger), service.WithFetchTimeout(cfg.Cart.FetchTimeout)}
	if cfg.Cart.PublishEvents {
		opts = append(opts, service.WithPublisher(publisher), service.WithPublishTimeout(cfg.NATS.Timeout))
	}

	built, err := NewDependencies(ctx, Components{
		Catalog:  catalogClient,
		Slot:     slot,
		Key:      cfg.Storage.Key,
		Notifier: notifier,
		Options:  opts,
	}, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.CartService = built.CartService
	deps.Health = built.Health
	return deps, nil
}

// NewDependencies restores the cart from c.Slot and wires the service on the given components.
// It fails when the slot cannot be read. Used by SetupDependencies and by E2E tests.
func NewDependencies(ctx context.Context, c Components, logger *slog.Logger) (*Dependencies, error) {
	hs := health.NewServer()
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_NOT_SERVING)

	snapshots := store.NewSnapshotStore(c.Slot, c.Key)
	initial, err := service.Restore(ctx, snapshots, logger)
	if err != nil {
		return nil, err
	}
	cartStore := service.NewService(initial, c.Catalog, snapshots, c.Options...)

	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	return &Dependencies{
		CartService: notify.NewReporter(cartStore, c.Notifier),
		Health:      hs,
		Logger:      logger,
	}, nil
}

func setupSlot(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *Dependencies) (store.Slot, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Warn("Cart snapshot kept in memory, it will not survive a restart")
		return store.NewMemorySlot(), nil
	case config.StorageRedis:
		rdb, err := bootstrap.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Timeout)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, func() { _ = rdb.Close() })
		logger.Info("Successfully connected to Redis!")
		return store.NewRedisSlot(rdb), nil
	case config.StoragePostgres:
		if cfg.Database.Migrations != "" {
			if err := bootstrap.Migrate(cfg.Database.Migrations, cfg.Database.URL); err != nil {
				return nil, err
			}
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		deps.closers = append(deps.closers, dbPool.Close)
		logger.Info("Successfully connected to the database!")
		return store.NewPgSlot(dbPool), nil
	default:
		return store.NewFileSlot(cfg.Storage.Dir)
	}
}

func setupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger, deps *Dependencies) (messaging.Publisher, error) {
	nc, err := natsclient.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return nil, err
	}
	deps.closers = append(deps.closers, func() {
		if err := nc.Drain(); err != nil {
			logger.Error("Failed to drain NATS connection", "error", err)
		}
	})
	js, err := natsclient.NewJetStreamContext(nc)
	if err != nil {
		return nil, err
	}
	if cfg.NATS.Stream != "" {
		if err := natsclient.EnsureStream(ctx, js, cfg.NATS.Stream, cfg.NATS.Subjects); err != nil {
			return nil, err
		}
	}
	logger.Info("Successfully connected to NATS!")
	return natsclient.NewNatsPublisher(js), nil
}

// SetupHttpHandler initializes the router and routes for the cart service.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewHandler(deps.CartService, deps.Logger).RegisterRoutes(mux)
	if deps.Metrics != nil {
		mux.Handle(deps.MetricsPath, deps.Metrics)
	}
}

// SetupHttpServer creates and configures an HTTP server for the cart service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	return server.NewHTTPServer(httpCfg, "cart", SetupHttpHandler(deps))
}
