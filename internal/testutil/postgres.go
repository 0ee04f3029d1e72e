// Package testutil provides test helpers for container-backed storage tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/wordrace/internal/config"
	"github.com/cory-johannsen/wordrace/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Config    config.DatabaseConfig
}

var (
	sharedOnce sync.Once
	shared     *PostgresContainer
	sharedErr  error
)

// NewPool returns a fresh pool on a migrated, emptied test database. The
// container is started once per test binary and reaped by testcontainers.
//
// Precondition: Docker must be available; skipped under -short.
// Postcondition: Returns a connected pool closed at test cleanup, or fails the test.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in -short mode")
	}

	sharedOnce.Do(func() {
		shared, sharedErr = startPostgres()
		if sharedErr == nil {
			_, sharedErr = postgres.Migrate(shared.Config.DSN(), "up", 0)
		}
	})
	if sharedErr != nil {
		t.Fatalf("preparing postgres container: %v", sharedErr)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, shared.Config)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.DB().Exec(ctx, `TRUNCATE active_sessions, words`); err != nil {
		t.Fatalf("truncating test tables: %v", err)
	}
	return pool.DB()
}

func startPostgres() (*PostgresContainer, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, err
	}
	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{
		container: container,
		Config: config.DatabaseConfig{
			Host:            host,
			Port:            mappedPort.Int(),
			User:            "test",
			Password:        "test",
			Name:            "test",
			SSLMode:         "disable",
			MaxConns:        5,
			MinConns:        1,
			MaxConnLifetime: 5 * time.Minute,
		},
	}, nil
}
