// Package server runs the HTTP API together with its background workers and
// shuts them down as a group.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yaroslav/recipebox/internal/metrics"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown when none is configured.
	DefaultShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// StatsSource reports connection pool statistics.
type StatsSource interface {
	Stats() sql.DBStats
}

// Config holds the runtime parameters of the server.
type Config struct {
	// Addr is the TCP address to listen on (e.g. ":8000").
	Addr string

	// Handler serves every request.
	Handler http.Handler

	// Logger receives lifecycle events.
	Logger *zap.Logger

	// DB is sampled every StatsInterval for the pool gauges. Optional.
	DB StatsSource

	// StatsInterval is the pool sampling period. Zero disables sampling.
	StatsInterval time.Duration

	// ShutdownTimeout bounds how long in-flight requests may take to finish.
	ShutdownTimeout time.Duration
}

// Run listens on config.Addr and serves until ctx is cancelled or a
// component fails.
func Run(ctx context.Context, config Config) error {
	ln, err := net.Listen("tcp", config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", config.Addr, err)
	}
	return Serve(ctx, ln, config)
}

// Serve runs the HTTP server on ln and the DB stats collector in one errgroup.
// Cancelling ctx triggers a graceful shutdown. The listener is closed on return.
func Serve(ctx context.Context, ln net.Listener, config Config) error {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}

	srv := &http.Server{
		Handler:           config.Handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", zap.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if config.DB != nil && config.StatsInterval > 0 {
		g.Go(func() error {
			collectDBStats(gctx, config.DB, config.StatsInterval)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		logger.Info("server stopped")
	}
	return err
}

func collectDBStats(ctx context.Context, db StatsSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	metrics.RecordDBStats(db.Stats())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.RecordDBStats(db.Stats())
		}
	}
}
