// Package postgres provides PostgreSQL persistence for session snapshots and
// word lists using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/wordrace/internal/config"
)

// Pool wraps a pgx connection pool with health-check and lifecycle methods.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool creates a new PostgreSQL connection pool from the given configuration.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error. The pool is ready
// for queries upon successful return.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Pool{pool: pool}, nil
}

// Connect calls NewPool until it succeeds or retry is exhausted, so the
// server can start alongside a database that is still booting.
//
// Precondition: retry.MaxAttempts >= 1; logger must be non-nil.
// Postcondition: Returns a connected Pool or the last connection error.
func Connect(ctx context.Context, cfg config.DatabaseConfig, retry config.RetryConfig, logger *zap.Logger) (*Pool, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retry.InitialInterval
	b.MaxInterval = retry.MaxInterval
	b.MaxElapsedTime = 0

	var (
		pool    *Pool
		attempt int
	)
	op := func() error {
		attempt++
		var err error
		pool, err = NewPool(ctx, cfg)
		if err != nil {
			logger.Warn("database not ready",
				zap.Int("attempt", attempt),
				zap.String("host", cfg.Host),
				zap.Error(err),
			)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(retry.MaxAttempts-1, 0))), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return pool, nil
}

// Health checks that the database is reachable within the given timeout.
//
// Precondition: The pool must not be closed.
// Postcondition: Returns nil if the database responds within the timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for use by repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
