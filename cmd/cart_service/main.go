package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/abgdnv/rocketcart/internal/cart/app"
	"github.com/abgdnv/rocketcart/internal/cart/config"
	"github.com/abgdnv/rocketcart/pkg/bootstrap"
	"github.com/abgdnv/rocketcart/pkg/config/configloader"
	"github.com/abgdnv/rocketcart/pkg/server"
	"github.com/abgdnv/rocketcart/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "cart"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run restores the cart, then starts the HTTP, gRPC health and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	metrics, shutdownTelemetry, err := telemetry.Setup(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	deps, err := app.SetupDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up dependencies: %w", err)
	}
	defer deps.Close()
	deps.Metrics = metrics
	deps.MetricsPath = cfg.Telemetry.Metrics.Path

	g, gCtx := errgroup.WithContext(ctx)

	server.RunHTTP(gCtx, g, app.SetupHttpServer(deps, cfg), "HTTP", cfg.Shutdown.Timeout, logger)

	if cfg.GRPC.Enabled {
		grpcServer := server.NewGRPCServer(cfg.GRPC.ReflectionEnabled, server.WithHealth(deps.Health))
		server.RunGRPC(gCtx, g, grpcServer, cfg.GRPC.Port, cfg.Shutdown.Timeout, logger)
	}

	if cfg.PProf.Enabled {
		pprofServer := &http.Server{
			Addr: cfg.PProf.Addr,
		}
		server.RunHTTP(gCtx, g, pprofServer, "Pprof", cfg.Shutdown.Timeout, logger)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
