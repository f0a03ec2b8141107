package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/yaroslav/recipebox/models"
)

// ErrWaitTimeout is returned when the database did not come up in time. The
// error also matches models.ErrDatabaseUnavailable.
var ErrWaitTimeout = errors.New("timed out waiting for database")

// Pinger is satisfied by *DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitOptions configures WaitForDB.
type WaitOptions struct {
	// Interval between attempts. Defaults to one second.
	Interval time.Duration

	// Timeout bounds the whole wait. Zero waits until ctx is done.
	Timeout time.Duration

	// Out receives the operator-facing progress lines. May be nil.
	Out io.Writer

	// Logger receives structured attempt logs. May be nil.
	Logger *zap.Logger
}

// WaitForDB pings until the database answers, printing progress to Out.
func WaitForDB(ctx context.Context, db Pinger, opts WaitOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	fmt.Fprintln(opts.Out, "Waiting for database...")

	attempt := 0
	for {
		attempt++

		pingCtx, cancel := context.WithTimeout(ctx, attemptTimeout(opts.Interval))
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			fmt.Fprintln(opts.Out, "Database available!")
			logger.Info("database available", zap.Int("attempts", attempt))
			return nil
		}

		logger.Debug("database unavailable", zap.Int("attempt", attempt), zap.Error(err))
		fmt.Fprintf(opts.Out, "Database unavailable, waiting %s...\n", humanInterval(opts.Interval))

		timer := time.NewTimer(opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w (%w) after %d attempts: %v", ErrWaitTimeout, models.ErrDatabaseUnavailable, attempt, err)
			}
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func attemptTimeout(interval time.Duration) time.Duration {
	if interval < 5*time.Second {
		return 5 * time.Second
	}
	return interval
}

func humanInterval(d time.Duration) string {
	if d%time.Second != 0 {
		return d.String()
	}
	if d == time.Second {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", d/time.Second)
}
