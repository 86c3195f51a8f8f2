package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus/internal/store"
)

const commentSelect = `SELECT cm.id, cm.post_id, COALESCE(p.title, ''), cm.author_id, COALESCE(u.name, ''),
	COALESCE(u.email, ''), cm.anonymous_name, cm.anonymous_email, cm.content, cm.parent_id, cm.approved, cm.created_at
	FROM comments cm
	LEFT JOIN users u ON u.id = cm.author_id
	LEFT JOIN posts p ON p.id = cm.post_id`

func scanComment(row interface{ Scan(...any) error }) (Comment, error) {
	var (
		c              Comment
		author, parent sql.NullString
		created        int64
	)
	if err := row.Scan(&c.ID, &c.PostID, &c.PostTitle, &author, &c.AuthorName, &c.AuthorEmail,
		&c.AnonymousName, &c.AnonymousEmail, &c.Content, &parent, &c.Approved, &created); err != nil {
		return Comment{}, err
	}
	c.AuthorID = author.String
	c.ParentID = parent.String
	c.CreatedAt = store.FromMillis(created)
	return c, nil
}

func (r *Repository) comments(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	res := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *Repository) InsertComment(ctx context.Context, c Comment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, author_id, anonymous_name, anonymous_email, content, parent_id, approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, c.ID, c.PostID, store.NullString(c.AuthorID), c.AnonymousName, c.AnonymousEmail, c.Content,
		store.NullString(c.ParentID), c.Approved, store.Millis(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// CommentByID returns a comment or nil.
func (r *Repository) CommentByID(ctx context.Context, id string) (*Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+` WHERE cm.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

// ApprovedComments returns a post's approved comments oldest first.
func (r *Repository) ApprovedComments(ctx context.Context, postID string) ([]Comment, error) {
	return r.comments(ctx, commentSelect+` WHERE cm.post_id = $1 AND cm.approved = $2 ORDER BY cm.created_at ASC`, postID, true)
}

// CommentsByApproval lists comments newest first; a nil filter returns all.
func (r *Repository) CommentsByApproval(ctx context.Context, approved *bool) ([]Comment, error) {
	if approved == nil {
		return r.comments(ctx, commentSelect+` ORDER BY cm.created_at DESC`)
	}
	return r.comments(ctx, commentSelect+` WHERE cm.approved = $1 ORDER BY cm.created_at DESC`, *approved)
}

func (r *Repository) SetCommentApproved(ctx context.Context, id string, approved bool) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE comments SET approved = $2 WHERE id = $1`, id, approved); err != nil {
		return fmt.Errorf("moderate comment: %w", err)
	}
	return nil
}

// DeleteComment removes the comment and, through the parent key, its replies.
func (r *Repository) DeleteComment(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
