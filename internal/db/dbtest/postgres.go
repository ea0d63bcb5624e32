// Package dbtest starts a disposable Postgres for integration suites.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/noah-isme/paypal-orders/internal/db"
)

// StartPostgres runs postgres:16-alpine, applies the embedded migrations and
// returns the container plus its connection string.
func StartPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("paypal_orders"),
		postgres.WithUsername("app"),
		postgres.WithPassword("app"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, "", fmt.Errorf("ctr.ConnectionString: %w", err)
	}

	if err := db.MigrateUp(connStr); err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, "", fmt.Errorf("db.MigrateUp: %w", err)
	}
	return ctr, connStr, nil
}

// Pool starts Postgres for t and returns a pool that is closed, together with
// the container, when t finishes. Skipped under -short.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration suite skipped in -short mode")
	}
	ctx := context.Background()
	ctr, connStr, err := StartPostgres(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// Truncate clears all application tables.
func Truncate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE order_status_events, orders, webhook_events, audit_logs RESTART IDENTITY CASCADE`)
	return err
}
