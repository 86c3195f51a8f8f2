// Package storetest opens throwaway SQLite databases with the production schema.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"campus/internal/store"
)

// Open returns a fresh database closed at test cleanup.
func Open(t testing.TB) *store.DB {
	t.Helper()
	db, err := store.Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "campus.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return db
}
