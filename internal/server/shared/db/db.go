// Package db owns the PostgreSQL connection pool shared by the server:
// opening it with bounded pool limits, waiting for the database to become
// reachable, and the health probe query.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"
)

// Open creates a pooled connection to PostgreSQL using the pgx stdlib
// driver. The pool is bounded so a flood of requests queues on checkout
// instead of exhausting the database.
func Open(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	return conn, nil
}

// WaitReady pings the database until it responds, with exponential backoff.
// It gives up after maxRetries attempts or when ctx is cancelled.
func WaitReady(ctx context.Context, conn *sql.DB, maxRetries uint64) error {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := conn.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Now returns the database server's clock. It doubles as the health probe:
// an error means the store is unreachable.
func Now(ctx context.Context, conn *sql.DB) (time.Time, error) {
	var now time.Time
	if err := conn.QueryRowContext(ctx, "SELECT now()").Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("db error: %w", err)
	}
	return now, nil
}
