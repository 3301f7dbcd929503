package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// RunHTTP serves srv in g and shuts it down once ctx is done.
func RunHTTP(ctx context.Context, g *errgroup.Group, srv *http.Server, name string, shutdownTimeout time.Duration, logger *slog.Logger) {
	g.Go(func() error {
		logger.Info(name+" server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server failed: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down " + name + " server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// RunGRPC serves srv on port in g and stops it gracefully once ctx is done.
// A stop that outlasts shutdownTimeout is forced.
func RunGRPC(ctx context.Context, g *errgroup.Group, srv *grpc.Server, port string, shutdownTimeout time.Duration, logger *slog.Logger) {
	g.Go(func() error {
		grpcAddr := ":" + port
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		logger.Info("gRPC server listening", slog.String("addr", grpcAddr))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			srv.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			logger.Info("gRPC server stopped gracefully.")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("gRPC server graceful stop timed out. Forcing stop.")
			srv.Stop()
			return fmt.Errorf("grpc server graceful stop timed out")
		}
	})
}
