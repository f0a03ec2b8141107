// Package storagetest provides a migrated in-memory database for tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/yaroslav/recipebox/internal/storage"
)

// New opens an in-memory SQLite database with the real schema applied.
// The database is closed when the test ends.
func New(t testing.TB) *storage.DB {
	t.Helper()

	db, err := storage.Open(storage.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := storage.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
