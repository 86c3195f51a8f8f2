package maintenance

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"

	"campus/internal/store/storetest"
)

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
}

func count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}

func seed(t *testing.T, db *sql.DB) {
	t.Helper()
	mustExec(t, db, `INSERT INTO users (id, email, created_at) VALUES ('u-old', 'ann@x.com', 1), ('u-new', ' ANN@x.com', 2), ('u-solo', 'bo@x.com', 3)`)
	mustExec(t, db, `INSERT INTO categories (id, name, slug, created_at) VALUES ('c-old', 'News', 'news', 1), ('c-new', 'news ', 'news-2', 2)`)
	mustExec(t, db, `INSERT INTO posts (id, title, slug, category_id, author_id, likes, created_at, updated_at) VALUES
		('p-old', 'Hello', 'hello', 'c-old', 'u-old', 2, 1, 1),
		('p-new', 'hello', 'hello-2', 'c-new', 'u-new', 2, 2, 2)`)
	mustExec(t, db, `INSERT INTO post_likes (id, post_id, user_id, ip_address, created_at) VALUES
		('l1', 'p-old', 'u-old', NULL, 1),
		('l2', 'p-old', NULL, '1.1.1.1', 1),
		('l3', 'p-new', 'u-new', NULL, 2),
		('l4', 'p-new', NULL, '1.1.1.1', 2)`)
	mustExec(t, db, `INSERT INTO comments (id, post_id, author_id, content, created_at) VALUES ('cm', 'p-new', 'u-new', 'hi', 2)`)
}

func TestDryRunChangesNothing(t *testing.T) {
	db := storetest.Open(t).Client
	seed(t, db)
	d := NewDeduper(db, zerolog.Nop())

	rep, err := d.DedupeUsers(context.Background(), true)
	if err != nil {
		t.Fatalf("dedupe: %v", err)
	}
	if rep.Groups != 1 || len(rep.Removed) != 1 || rep.Removed[0] != "u-new" {
		t.Fatalf("unexpected report %+v", rep)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM users`); n != 3 {
		t.Fatalf("dry run removed users: %d left", n)
	}
}

func TestDedupeKeepsOldestAndRepoints(t *testing.T) {
	db := storetest.Open(t).Client
	seed(t, db)
	d := NewDeduper(db, zerolog.Nop())
	ctx := context.Background()

	if _, err := d.DedupeUsers(ctx, false); err != nil {
		t.Fatalf("users: %v", err)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM users WHERE id = 'u-new'`); n != 0 {
		t.Fatal("duplicate user survived")
	}
	if n := count(t, db, `SELECT COUNT(*) FROM posts WHERE author_id = 'u-old'`); n != 2 {
		t.Fatalf("expected both posts re-pointed, got %d", n)
	}

	rep, err := d.DedupePosts(ctx, false)
	if err != nil {
		t.Fatalf("posts: %v", err)
	}
	if len(rep.Removed) != 1 || rep.Removed[0] != "p-new" {
		t.Fatalf("unexpected posts report %+v", rep)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM comments WHERE post_id = 'p-old'`); n != 1 {
		t.Fatal("comment not moved to surviving post")
	}
	// u-old and 1.1.1.1 both liked each copy; the merged post keeps one like per identity
	if n := count(t, db, `SELECT COUNT(*) FROM post_likes WHERE post_id = 'p-old'`); n != 2 {
		t.Fatalf("expected 2 likes after merge, got %d", n)
	}
	if n := count(t, db, `SELECT likes FROM posts WHERE id = 'p-old'`); n != 2 {
		t.Fatalf("like counter drifted: %d", n)
	}

	if _, err := d.DedupeCategories(ctx, false); err != nil {
		t.Fatalf("categories: %v", err)
	}
	if n := count(t, db, `SELECT COUNT(*) FROM categories`); n != 1 {
		t.Fatalf("expected 1 category, got %d", n)
	}

	again, err := d.DedupeUsers(ctx, false)
	if err != nil || again.Groups != 0 || len(again.Removed) != 0 {
		t.Fatalf("second run should be a no-op: %+v %v", again, err)
	}
}
