package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campus/internal/store"
)

// HasLike looks up the like by the identity's own key only.
func (r *Repository) HasLike(ctx context.Context, postID string, who Identity) (bool, error) {
	col, val := who.column()
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM post_likes WHERE post_id = $1 AND `+col+` = $2`, postID, val).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return true, nil
}

// AddLike inserts the like and bumps the counter in one transaction.
// A concurrent like by the same identity yields store.ErrDuplicate.
func (r *Repository) AddLike(ctx context.Context, postID string, who Identity, now int64) (int, error) {
	col, val := who.column()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer store.Rollback(tx)

	_, err = tx.ExecContext(ctx, `INSERT INTO post_likes (id, post_id, `+col+`, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), postID, val, now)
	if store.IsUniqueViolation(err) {
		return 0, store.ErrDuplicate
	}
	if err != nil {
		return 0, fmt.Errorf("insert like: %w", err)
	}
	likes, err := adjustLikes(ctx, tx, postID, "+ 1")
	if err != nil {
		return 0, err
	}
	return likes, tx.Commit()
}

// RemoveLike deletes the like and decrements the counter in one transaction.
// It reports false when there was nothing to delete.
func (r *Repository) RemoveLike(ctx context.Context, postID string, who Identity) (int, bool, error) {
	col, val := who.column()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, err
	}
	defer store.Rollback(tx)

	res, err := tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND `+col+` = $2`, postID, val)
	if err != nil {
		return 0, false, fmt.Errorf("delete like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	likes, err := adjustLikes(ctx, tx, postID, "- 1")
	if err != nil {
		return 0, false, err
	}
	return likes, true, tx.Commit()
}

func adjustLikes(ctx context.Context, tx *sql.Tx, postID, delta string) (int, error) {
	if _, err := tx.ExecContext(ctx, `UPDATE posts SET likes = likes `+delta+` WHERE id = $1`, postID); err != nil {
		return 0, fmt.Errorf("adjust likes: %w", err)
	}
	var likes int
	if err := tx.QueryRowContext(ctx, `SELECT likes FROM posts WHERE id = $1`, postID).Scan(&likes); err != nil {
		return 0, fmt.Errorf("read likes: %w", err)
	}
	return likes, nil
}

// LikeCount reads the denormalised counter.
func (r *Repository) LikeCount(ctx context.Context, postID string) (int, error) {
	var likes int
	if err := r.db.QueryRowContext(ctx, `SELECT likes FROM posts WHERE id = $1`, postID).Scan(&likes); err != nil {
		return 0, fmt.Errorf("read likes: %w", err)
	}
	return likes, nil
}
