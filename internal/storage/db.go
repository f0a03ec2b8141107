// Package storage opens the recipebox database and applies its schema.
//
// SQLite (modernc.org/sqlite, no cgo) is the default backend; PostgreSQL is
// reached through the pgx database/sql driver. Queries are written with "?"
// placeholders and rebound for PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/yaroslav/recipebox/internal/metrics"
)

const (
	// DriverSQLite selects the embedded SQLite backend.
	DriverSQLite = "sqlite"

	// DriverPostgres selects PostgreSQL via pgx.
	DriverPostgres = "postgres"
)

// ErrUnsupportedDriver is returned for an unknown driver or an operation the
// driver cannot perform.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// DB wraps *sql.DB with the driver name and per-query metrics.
type DB struct {
	sql    *sql.DB
	driver string
}

// Open opens and configures a connection pool for driver.
func Open(driver, dsn string) (*DB, error) {
	var (
		sqlDB *sql.DB
		err   error
	)

	switch driver {
	case DriverSQLite:
		memory := isMemoryDSN(dsn)
		sqlDB, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if memory {
			// Every connection to :memory: is a separate database.
			sqlDB.SetMaxOpenConns(1)
		} else {
			sqlDB.SetMaxOpenConns(25)
			sqlDB.SetMaxIdleConns(5)
		}
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	case DriverPostgres:
		sqlDB, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	return &DB{sql: sqlDB, driver: driver}, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:")
}

// sqliteDSN adds the pragmas the schema relies on (foreign keys for cascade
// deletes, WAL and a busy timeout for concurrent writers).
func sqliteDSN(dsn string) string {
	if dsn == ":memory:" {
		dsn = "file::memory:"
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if !isMemoryDSN(dsn) {
		pragmas += "&_pragma=journal_mode(WAL)"
	}
	return dsn + sep + pragmas
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Rebind converts "?" placeholders to "$1", "$2", ... for PostgreSQL.
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Exec runs a statement and records it under operation.
func (db *DB) Exec(ctx context.Context, operation, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := db.sql.ExecContext(ctx, db.Rebind(query), args...)
	metrics.ObserveQuery(operation, start, err)
	return res, err
}

// Query runs a query returning rows and records it under operation.
func (db *DB) Query(ctx context.Context, operation, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.sql.QueryContext(ctx, db.Rebind(query), args...)
	metrics.ObserveQuery(operation, start, err)
	return rows, err
}

// QueryRow runs a single-row query and scans it into dest, recording it
// under operation. It returns sql.ErrNoRows when nothing matched.
func (db *DB) QueryRow(ctx context.Context, operation, query string, args []any, dest ...any) error {
	start := time.Now()
	err := db.sql.QueryRowContext(ctx, db.Rebind(query), args...).Scan(dest...)
	metrics.ObserveQuery(operation, start, err)
	return err
}

// PingContext verifies the database is reachable.
func (db *DB) PingContext(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

// Stats returns connection pool statistics.
func (db *DB) Stats() sql.DBStats {
	return db.sql.Stats()
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.sql.Close()
}

// IsUniqueViolation reports whether err is a unique constraint failure on
// either backend.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
