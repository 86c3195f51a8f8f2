package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenSQLiteAppliesSchemaTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campus.db")
	ctx := context.Background()

	db, err := Open(ctx, "sqlite:"+path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if db.Dialect != SQLite {
		t.Fatalf("dialect = %q", db.Dialect)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = Open(ctx, "sqlite:"+path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"users", "posts", "post_likes", "comments", "attendance_responses", "banners"} {
		var name string
		err := db.Client.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
	if !db.Healthy(ctx) {
		t.Fatal("expected healthy db")
	}
}

func TestIsUniqueViolationSQLite(t *testing.T) {
	db, err := Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "u.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	insert := `INSERT INTO categories (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := db.Client.ExecContext(ctx, insert, "c1", "Go", "go", Millis(time.Now())); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = db.Client.ExecContext(ctx, insert, "c2", "Go", "go", Millis(time.Now()))
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(errors.New("connection refused")) || IsUniqueViolation(nil) {
		t.Fatal("unexpected unique violation classification")
	}
}

func TestMillisRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 30, 0, 123_000_000, time.UTC)
	if got := FromMillis(Millis(now)); !got.Equal(now) {
		t.Fatalf("round trip = %s, want %s", got, now)
	}
	if v := NullMillis(nil); v.Valid {
		t.Fatal("expected invalid null millis")
	}
	if TimePtr(NullMillis(&now)) == nil {
		t.Fatal("expected time pointer")
	}
}
