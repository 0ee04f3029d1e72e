// Package server runs the bot's components: it opens them in order, waits
// for a termination signal and closes them in reverse order.
package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Component is a part of the process with an explicit open/close pair, such
// as the gateway connection or the session engine.
type Component interface {
	// Open readies the component. It must return once the component is
	// serving; background work continues until Close.
	Open(ctx context.Context) error
	// Close releases the component within ctx's deadline.
	Close(ctx context.Context) error
}

// FuncComponent adapts an open/close function pair to Component. A nil
// function is a no-op.
type FuncComponent struct {
	OpenFn  func(ctx context.Context) error
	CloseFn func(ctx context.Context) error
}

// Open calls OpenFn.
func (f FuncComponent) Open(ctx context.Context) error {
	if f.OpenFn == nil {
		return nil
	}
	return f.OpenFn(ctx)
}

// Close calls CloseFn.
func (f FuncComponent) Close(ctx context.Context) error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn(ctx)
}

// Lifecycle manages the ordered components of the process.
type Lifecycle struct {
	logger          *zap.Logger
	shutdownTimeout time.Duration
	mu              sync.Mutex
	components      []namedComponent
}

type namedComponent struct {
	name      string
	component Component
}

// NewLifecycle creates a Lifecycle. A non-positive shutdownTimeout leaves
// Close calls unbounded.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger, shutdownTimeout time.Duration) *Lifecycle {
	return &Lifecycle{logger: logger, shutdownTimeout: shutdownTimeout}
}

// Add registers a component. Components open in the order they are added.
//
// Precondition: name must be non-empty; c must be non-nil.
func (l *Lifecycle) Add(name string, c Component) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.components = append(l.components, namedComponent{name: name, component: c})
}

// Run opens every component, then blocks until SIGINT, SIGTERM or ctx is
// cancelled, and closes the opened components in reverse order.
//
// Postcondition: Every opened component has been closed. Returns the open
// failure that aborted startup, joined with any close errors.
func (l *Lifecycle) Run(ctx context.Context) error {
	start := time.Now()
	l.mu.Lock()
	components := append([]namedComponent(nil), l.components...)
	l.mu.Unlock()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var openErr error
	opened := 0
	for _, nc := range components {
		l.logger.Info("opening component", zap.String("component", nc.name))
		began := time.Now()
		if err := nc.component.Open(sigCtx); err != nil {
			l.logger.Error("component failed to open",
				zap.String("component", nc.name),
				zap.Error(err),
			)
			openErr = fmt.Errorf("opening %s: %w", nc.name, err)
			break
		}
		opened++
		l.logger.Info("component open",
			zap.String("component", nc.name),
			zap.Duration("elapsed", time.Since(began)),
		)
	}

	if openErr == nil {
		l.logger.Info("all components open",
			zap.Int("count", opened),
			zap.Duration("startup", time.Since(start)),
		)
		<-sigCtx.Done()
		l.logger.Info("shutting down", zap.NamedError("cause", context.Cause(sigCtx)))
	}

	closeErr := l.shutdown(components[:opened])
	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return errors.Join(openErr, closeErr)
}

func (l *Lifecycle) shutdown(components []namedComponent) error {
	ctx := context.Background()
	if l.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.shutdownTimeout)
		defer cancel()
	}

	began := time.Now()
	var errs []error
	for i := len(components) - 1; i >= 0; i-- {
		nc := components[i]
		svcStart := time.Now()
		if err := nc.component.Close(ctx); err != nil {
			l.logger.Error("closing component",
				zap.String("component", nc.name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("closing %s: %w", nc.name, err))
			continue
		}
		l.logger.Info("component closed",
			zap.String("component", nc.name),
			zap.Duration("elapsed", time.Since(svcStart)),
		)
	}
	l.logger.Info("all components closed", zap.Duration("shutdown_elapsed", time.Since(began)))
	return errors.Join(errs...)
}
