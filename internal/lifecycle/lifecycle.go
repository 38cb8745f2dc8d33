package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var shuttingDown atomic.Bool

// SetShuttingDown sets the shutdown flag. Health reports shutting-down while true.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown returns true if the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Server is the part of *http.Server used while draining.
type Server interface {
	Shutdown(ctx context.Context) error
}

// DrainConfig controls the graceful shutdown sequence.
type DrainConfig struct {
	ShutdownTimeout time.Duration
	InFlightTimeout time.Duration
	CheckInterval   time.Duration

	// InFlight reports requests still being served; WaitInFlight blocks until it reaches zero.
	InFlight     func() int64
	WaitInFlight func(ctx context.Context, checkInterval time.Duration) error
	// OnInFlight, when set, receives the in-flight count observed after the listener closed.
	OnInFlight func(n int64)
}

// Drain flips the shutdown flag, stops srv from accepting connections and waits
// for in-flight requests. Both steps run even if the first fails.
func Drain(srv Server, cfg DrainConfig, logger *zap.Logger) error {
	SetShuttingDown(true)
	logger.Info("graceful shutdown triggered")

	var errs []error
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	if cfg.InFlight == nil || cfg.WaitInFlight == nil {
		return errors.Join(errs...)
	}
	inFlight := cfg.InFlight()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	if cfg.OnInFlight != nil {
		cfg.OnInFlight(inFlight)
	}
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.InFlightTimeout)
	defer waitCancel()
	if err := cfg.WaitInFlight(waitCtx, cfg.CheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", cfg.InFlight()))
		errs = append(errs, fmt.Errorf("wait for in-flight: %w", err))
	}
	return errors.Join(errs...)
}
