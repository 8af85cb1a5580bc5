// Package store provides SQLite-backed persistence for time blocks,
// daily summaries and reminders.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DBTX is the subset of database/sql used by the queries in this package.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps a sql.DB with ledger-specific operations.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Options configure Open.
type Options struct {
	Path   string
	Driver string
	// OpenTimeout bounds retries of a busy database at startup.
	OpenTimeout time.Duration
}

// Open opens (or creates) the SQLite database and applies migrations.
func Open(ctx context.Context, opts Options) (*DB, error) {
	source, err := dsn(opts.Driver, opts.Path)
	if err != nil {
		return nil, err
	}
	driver := opts.Driver
	if driver == "" {
		driver = DriverCGO
	}
	if dir := filepath.Dir(opts.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create dir: %w", err)
		}
	}
	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = opts.OpenTimeout
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 10 * time.Second
	}
	err = backoff.Retry(func() error {
		err := conn.PingContext(ctx)
		if err == nil {
			err = Migrate(ctx, conn)
		}
		if err != nil && !isBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: init: %w", err)
	}
	return New(conn), nil
}

// New wraps an already opened connection. The schema is not touched.
func New(conn *sql.DB) *DB {
	return &DB{conn: conn, now: time.Now}
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context, q DBTX) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("store: commit: %w", err)
		}
	}()
	return fn(ctx, tx)
}

func (db *DB) unixNow() int64 {
	return db.now().UTC().Unix()
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
