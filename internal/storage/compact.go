package storage

import (
	"context"
	"fmt"
)

// CompactResult reports database file size around a compaction.
type CompactResult struct {
	PageSize    int64
	PagesBefore int64
	PagesAfter  int64
}

// SizeBefore is the database size in bytes before VACUUM.
func (r CompactResult) SizeBefore() int64 { return r.PagesBefore * r.PageSize }

// SizeAfter is the database size in bytes after VACUUM.
func (r CompactResult) SizeAfter() int64 { return r.PagesAfter * r.PageSize }

// Reclaimed is the number of bytes freed.
func (r CompactResult) Reclaimed() int64 { return r.SizeBefore() - r.SizeAfter() }

// CompactSQLite runs VACUUM and, when analyze is set, ANALYZE. It refuses to
// run against PostgreSQL, which has its own maintenance tooling.
func CompactSQLite(ctx context.Context, db *DB, analyze bool) (CompactResult, error) {
	var res CompactResult
	if db.driver != DriverSQLite {
		return res, fmt.Errorf("%w: compact-db requires sqlite, got %s", ErrUnsupportedDriver, db.driver)
	}

	if err := db.QueryRow(ctx, "compact", "PRAGMA page_size", nil, &res.PageSize); err != nil {
		return res, fmt.Errorf("failed to get page size: %w", err)
	}
	if err := db.QueryRow(ctx, "compact", "PRAGMA page_count", nil, &res.PagesBefore); err != nil {
		return res, fmt.Errorf("failed to get page count: %w", err)
	}

	if _, err := db.Exec(ctx, "compact", "VACUUM"); err != nil {
		return res, fmt.Errorf("VACUUM failed: %w", err)
	}

	if err := db.QueryRow(ctx, "compact", "PRAGMA page_count", nil, &res.PagesAfter); err != nil {
		return res, fmt.Errorf("failed to get page count: %w", err)
	}

	if analyze {
		if _, err := db.Exec(ctx, "compact", "ANALYZE"); err != nil {
			return res, fmt.Errorf("ANALYZE failed: %w", err)
		}
	}

	return res, nil
}

// TableCounts returns row counts for the application tables.
func TableCounts(ctx context.Context, db *DB) (map[string]int64, error) {
	counts := make(map[string]int64, 2)
	for _, table := range []string{"users", "recipes"} {
		var n int64
		if err := db.QueryRow(ctx, "count", "SELECT COUNT(*) FROM "+table, nil, &n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
