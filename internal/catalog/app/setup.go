// Package app contains the application setup for the catalog service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/abgdnv/rocketcart/internal/catalog/config"
	"github.com/abgdnv/rocketcart/internal/catalog/service"
	"github.com/abgdnv/rocketcart/internal/catalog/store"
	"github.com/abgdnv/rocketcart/internal/catalog/transport/rest"
	"github.com/abgdnv/rocketcart/pkg/bootstrap"
	"github.com/abgdnv/rocketcart/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the name the catalog reports under in grpc.health.v1.
const HealthService = "rocketcart.catalog"

type Dependencies struct {
	CatalogService service.CatalogService
	Health         *health.Server
	Logger         *slog.Logger
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

// SetupDependencies builds the product store selected by the configuration and the service on top of it.
func SetupDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: logger}

	var productStore store.ProductStore
	switch cfg.Store.Driver {
	case config.StorePostgres:
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
		productStore = store.NewPgStore(dbPool)
	default:
		mem := store.NewInMemoryStore()
		if cfg.Store.SeedFile != "" {
			f, err := os.Open(cfg.Store.SeedFile)
			if err != nil {
				return nil, fmt.Errorf("failed to open catalog seed: %w", err)
			}
			defer f.Close()
			if err := mem.LoadSeed(f); err != nil {
				return nil, err
			}
			logger.Info("Catalog seeded", "file", cfg.Store.SeedFile)
		}
		productStore = mem
	}

	deps.CatalogService = service.NewService(productStore)
	deps.Health = newHealth()
	return deps, nil
}

// NewPgDependencies wires the service directly on a pool. Used by E2E tests.
func NewPgDependencies(dbPool *pgxpool.Pool, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		CatalogService: service.NewService(store.NewPgStore(dbPool)),
		Health:         newHealth(),
		Logger:         logger,
	}
}

func newHealth() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus(HealthService, healthpb.HealthCheckResponse_SERVING)
	return hs
}

// SetupHttpHandler initializes the router and routes for the catalog service.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	rest.NewHandler(deps.CatalogService, deps.Logger).RegisterRoutes(mux)
	if deps.Metrics != nil {
		mux.Handle(deps.MetricsPath, deps.Metrics)
	}
}

// SetupHttpServer creates and configures an HTTP server for the catalog service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}
	return server.NewHTTPServer(httpCfg, "catalog", SetupHttpHandler(deps))
}
