// Package db provides the Postgres connection pool and embedded migrations.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx connection pool with a per-query timeout.
type DB struct {
	Pool         *pgxpool.Pool
	QueryTimeout time.Duration
}

// Open connects to Postgres using the given DSN and verifies the connection
// with a ping. Caller must call Close when done.
func Open(ctx context.Context, dsn string, queryTimeout time.Duration) (*DB, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{Pool: pool, QueryTimeout: queryTimeout}, nil
}

// Close releases all pool connections.
func (db *DB) Close() { db.Pool.Close() }

// WithTimeout derives a context bounded by the configured query timeout.
// The returned cancel func must always be called.
func (db *DB) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, db.QueryTimeout)
}
