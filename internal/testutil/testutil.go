// Package testutil provides shared test helpers for setting up databases.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/dayblocks/internal/store"
)

// TestDB creates a migrated temporary SQLite database that is closed on cleanup.
// It also returns the file path so tests can open side connections.
func TestDB(t *testing.T) (*store.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dayblocks-test.db")
	db, err := store.Open(context.Background(), store.Options{Path: path, Driver: store.DriverCGO})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

// Exec runs statements against the database file on a separate connection.
func Exec(t *testing.T, path string, stmts ...string) {
	t.Helper()
	conn, err := sql.Open(store.DriverCGO, path+"?_busy_timeout=5000")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	for _, s := range stmts {
		if _, err := conn.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
