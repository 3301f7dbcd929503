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

	"github.com/abgdnv/rocketcart/internal/notification/config"
	"github.com/abgdnv/rocketcart/internal/notification/subscriber"
	"github.com/abgdnv/rocketcart/pkg/bootstrap"
	"github.com/abgdnv/rocketcart/pkg/config/configloader"
	"github.com/abgdnv/rocketcart/pkg/nats"
	"github.com/abgdnv/rocketcart/pkg/server"
	"github.com/abgdnv/rocketcart/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "notification"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application, starts the NATS subscriber, and optionally starts the pprof server if enabled.
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

	natsConn, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create NATS connection: %w", err)
	}
	defer func() {
		if err := natsConn.Drain(); err != nil {
			logger.Error("Failed to drain NATS connection", "error", err)
		}
	}()
	js, err := nats.NewJetStreamContext(natsConn)
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}
	if cfg.Nats.Stream != "" {
		if err := nats.EnsureStream(ctx, js, cfg.Nats.Stream, cfg.Nats.Subjects); err != nil {
			return err
		}
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("NATS subscriber started")
		err := subscriber.Start(gCtx, js, cfg.Subscriber, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("subscriber failed", "error", err)
			return err
		}
		logger.Info("subscriber stopped gracefully.")
		return nil
	})

	// pprof and the scrape endpoint share the debug server
	if cfg.PProf.Enabled {
		if metrics != nil {
			http.Handle(cfg.Telemetry.Metrics.Path, metrics)
		}
		pprofServer := &http.Server{
			Addr: cfg.PProf.Addr,
		}
		server.RunHTTP(gCtx, g, pprofServer, "Pprof", cfg.Shutdown.Timeout, logger)
	}

	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) {
			return fmt.Errorf("errgroup encountered an error: %w", err)
		}
	}

	return nil
}
