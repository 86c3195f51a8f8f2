// Package maintenance repairs duplicate rows left behind by earlier imports.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"campus/internal/normalize"
	"campus/internal/store"
)

// Report summarises one dedupe task.
type Report struct {
	Task    string   `json:"task"`
	Groups  int      `json:"groups"`
	Removed []string `json:"removed"`
	DryRun  bool     `json:"dryRun"`
}

// Deduper collapses rows sharing a normalised key into the oldest one.
type Deduper struct {
	db  *sql.DB
	log zerolog.Logger
}

func NewDeduper(db *sql.DB, log zerolog.Logger) *Deduper {
	return &Deduper{db: db, log: log}
}

type duplicate struct {
	keep, drop string
}

// findDuplicates pairs every non-oldest row with the oldest row of its key.
func findDuplicates(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, table, keyColumn string) ([]duplicate, int, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, `+keyColumn+` FROM `+table+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, 0, fmt.Errorf("scan %s: %w", table, err)
	}
	defer rows.Close()

	oldest := map[string]string{}
	groups := map[string]bool{}
	var dups []duplicate
	for rows.Next() {
		var id, key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, 0, err
		}
		k := normalize.Key(key)
		if keep, ok := oldest[k]; ok {
			dups = append(dups, duplicate{keep: keep, drop: id})
			groups[k] = true
			continue
		}
		oldest[k] = id
	}
	return dups, len(groups), rows.Err()
}

func (d *Deduper) run(ctx context.Context, task, table, keyColumn string, dryRun bool, repoint func(*sql.Tx, duplicate) error, finish func(*sql.Tx) error) (Report, error) {
	rep := Report{Task: task, Removed: []string{}, DryRun: dryRun}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return rep, err
	}
	defer store.Rollback(tx)

	dups, groups, err := findDuplicates(ctx, tx, table, keyColumn)
	if err != nil {
		return rep, err
	}
	rep.Groups = groups
	for _, dup := range dups {
		rep.Removed = append(rep.Removed, dup.drop)
	}
	if dryRun || len(dups) == 0 {
		d.log.Info().Str("task", task).Int("groups", groups).Int("duplicates", len(dups)).Bool("dry_run", dryRun).Msg("dedupe scanned")
		return rep, nil
	}

	for _, dup := range dups {
		if err := repoint(tx, dup); err != nil {
			return rep, fmt.Errorf("%s: repoint %s: %w", task, dup.drop, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, dup.drop); err != nil {
			return rep, fmt.Errorf("%s: delete %s: %w", task, dup.drop, err)
		}
	}
	if finish != nil {
		if err := finish(tx); err != nil {
			return rep, err
		}
	}
	if err := tx.Commit(); err != nil {
		return rep, err
	}
	d.log.Info().Str("task", task).Int("groups", groups).Int("removed", len(dups)).Msg("dedupe applied")
	return rep, nil
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string, args ...any) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return err
		}
	}
	return nil
}

func recountLikes(ctx context.Context) func(*sql.Tx) error {
	return func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE posts SET likes = (SELECT COUNT(*) FROM post_likes l WHERE l.post_id = posts.id)`)
		if err != nil {
			return fmt.Errorf("recount likes: %w", err)
		}
		return nil
	}
}

// DedupeUsers keeps the oldest account per e-mail and moves authorship and likes onto it.
func (d *Deduper) DedupeUsers(ctx context.Context, dryRun bool) (Report, error) {
	return d.run(ctx, "dedupe-users", "users", "email", dryRun, func(tx *sql.Tx, dup duplicate) error {
		return execAll(ctx, tx, []string{
			`UPDATE posts SET author_id = $1 WHERE author_id = $2`,
			`UPDATE comments SET author_id = $1 WHERE author_id = $2`,
			`DELETE FROM post_likes WHERE user_id = $2 AND post_id IN (SELECT post_id FROM post_likes WHERE user_id = $1)`,
			`UPDATE post_likes SET user_id = $1 WHERE user_id = $2`,
		}, dup.keep, dup.drop)
	}, recountLikes(ctx))
}

// DedupePosts keeps the oldest post per title and moves comments and likes onto it.
func (d *Deduper) DedupePosts(ctx context.Context, dryRun bool) (Report, error) {
	return d.run(ctx, "dedupe-posts", "posts", "title", dryRun, func(tx *sql.Tx, dup duplicate) error {
		return execAll(ctx, tx, []string{
			`UPDATE comments SET post_id = $1 WHERE post_id = $2`,
			`DELETE FROM post_likes WHERE post_id = $2 AND (
				user_id IN (SELECT user_id FROM post_likes WHERE post_id = $1 AND user_id IS NOT NULL)
				OR ip_address IN (SELECT ip_address FROM post_likes WHERE post_id = $1 AND ip_address IS NOT NULL))`,
			`UPDATE post_likes SET post_id = $1 WHERE post_id = $2`,
		}, dup.keep, dup.drop)
	}, recountLikes(ctx))
}

// DedupeCategories keeps the oldest category per name and moves posts onto it.
func (d *Deduper) DedupeCategories(ctx context.Context, dryRun bool) (Report, error) {
	return d.run(ctx, "dedupe-categories", "categories", "name", dryRun, func(tx *sql.Tx, dup duplicate) error {
		return execAll(ctx, tx, []string{`UPDATE posts SET category_id = $1 WHERE category_id = $2`}, dup.keep, dup.drop)
	}, nil)
}
