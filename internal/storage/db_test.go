package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "dsn")
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("Open() error = %v, want ErrUnsupportedDriver", err)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in      string
		prefix  string
		wantWAL bool
	}{
		{":memory:", "file::memory:?", false},
		{"/vol/web/recipebox.db", "file:/vol/web/recipebox.db?", true},
		{"file:test.db?cache=shared", "file:test.db?cache=shared&", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := sqliteDSN(tt.in)
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("sqliteDSN(%q) = %q, want prefix %q", tt.in, got, tt.prefix)
			}
			if !strings.Contains(got, "foreign_keys(1)") {
				t.Errorf("sqliteDSN(%q) = %q, missing foreign_keys pragma", tt.in, got)
			}
			if strings.Contains(got, "journal_mode(WAL)") != tt.wantWAL {
				t.Errorf("sqliteDSN(%q) = %q, WAL = %v", tt.in, got, !tt.wantWAL)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	query := "SELECT id FROM recipes WHERE id = ? AND user_id = ?"

	lite := &DB{driver: DriverSQLite}
	if got := lite.Rebind(query); got != query {
		t.Errorf("sqlite Rebind() = %q, want unchanged", got)
	}

	pg := &DB{driver: DriverPostgres}
	want := "SELECT id FROM recipes WHERE id = $1 AND user_id = $2"
	if got := pg.Rebind(query); got != want {
		t.Errorf("postgres Rebind() = %q, want %q", got, want)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	applied, err := Migrate(ctx, db)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if len(applied) == 0 || applied[0] != "0001_init.sql" {
		t.Fatalf("applied = %v, want 0001_init.sql first", applied)
	}

	again, err := Migrate(ctx, db)
	if err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second Migrate() applied %v, want nothing", again)
	}

	var count int
	if err := db.QueryRow(ctx, "test", "SELECT COUNT(*) FROM schema_migrations", nil, &count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != len(applied) {
		t.Errorf("schema_migrations rows = %d, want %d", count, len(applied))
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	if _, err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	insert := `INSERT INTO users (email, name, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	if _, err := db.Exec(ctx, "test", insert, "a@example.com", "A", "x", now, now); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := db.Exec(ctx, "test", insert, "a@example.com", "B", "y", now, now)
	if err == nil {
		t.Fatal("duplicate insert should fail")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}

	if IsUniqueViolation(nil) {
		t.Error("IsUniqueViolation(nil) = true")
	}
	if IsUniqueViolation(errors.New("connection refused")) {
		t.Error("IsUniqueViolation(unrelated) = true")
	}
}

func TestForeignKeyCascade(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	if _, err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	now := time.Now().UTC()
	var userID int64
	err := db.QueryRow(ctx, "test",
		`INSERT INTO users (email, name, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		[]any{"c@example.com", "C", "x", now, now}, &userID)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if _, err := db.Exec(ctx, "test",
		`INSERT INTO recipes (user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		userID, "Soup", now, now); err != nil {
		t.Fatalf("insert recipe: %v", err)
	}

	if _, err := db.Exec(ctx, "test", `DELETE FROM users WHERE id = ?`, userID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	var n int
	if err := db.QueryRow(ctx, "test", `SELECT COUNT(*) FROM recipes`, nil, &n); err != nil {
		t.Fatalf("count recipes: %v", err)
	}
	if n != 0 {
		t.Errorf("recipes after user delete = %d, want 0", n)
	}
}

func TestCompactSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compact.db")
	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	res, err := CompactSQLite(ctx, db, true)
	if err != nil {
		t.Fatalf("CompactSQLite() error = %v", err)
	}
	if res.PageSize <= 0 || res.PagesAfter <= 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.SizeAfter() > res.SizeBefore() {
		t.Errorf("size grew: %d -> %d", res.SizeBefore(), res.SizeAfter())
	}

	counts, err := TableCounts(ctx, db)
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	if counts["users"] != 0 || counts["recipes"] != 0 {
		t.Errorf("counts = %v, want zeros", counts)
	}
}

func TestCompactSQLite_RefusesPostgres(t *testing.T) {
	_, err := CompactSQLite(context.Background(), &DB{driver: DriverPostgres}, false)
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("CompactSQLite() error = %v, want ErrUnsupportedDriver", err)
	}
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"
	got := ExtractUpMigration(content)
	if !strings.Contains(got, "CREATE TABLE a") || strings.Contains(got, "DROP TABLE") {
		t.Errorf("ExtractUpMigration() = %q", got)
	}
	if ExtractUpMigration("SELECT 1;") != "SELECT 1;" {
		t.Error("content without markers should be returned whole")
	}
}
