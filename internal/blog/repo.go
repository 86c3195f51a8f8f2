package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"campus/internal/store"
)

// Repository persists posts, categories, likes and comments.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertCategory returns store.ErrDuplicate when the slug exists.
func (r *Repository) InsertCategory(ctx context.Context, c Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, created_at) VALUES ($1, $2, $3, $4)
	`, c.ID, c.Name, c.Slug, store.Millis(c.CreatedAt))
	if store.IsUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) Categories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, slug, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	res := []Category{}
	for rows.Next() {
		var (
			c       Category
			created int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = store.FromMillis(created)
		res = append(res, c)
	}
	return res, rows.Err()
}

// CategoryExists reports whether id names a category.
func (r *Repository) CategoryExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check category: %w", err)
	}
	return true, nil
}

// DeleteCategory reports whether a row was removed. Posts keep existing without a category.
func (r *Repository) DeleteCategory(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer store.Rollback(tx)
	if _, err := tx.ExecContext(ctx, `UPDATE posts SET category_id = NULL WHERE category_id = $1`, id); err != nil {
		return false, fmt.Errorf("detach posts: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}

const postSelect = `SELECT p.id, p.title, p.slug, p.excerpt, p.content, p.cover_image, p.category_id,
	COALESCE(c.name, ''), p.author_id, p.published, p.likes, p.created_at, p.updated_at
	FROM posts p LEFT JOIN categories c ON c.id = p.category_id`

func scanPost(row interface{ Scan(...any) error }) (Post, error) {
	var (
		p                Post
		category, author sql.NullString
		created, updated int64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.CoverImage, &category,
		&p.CategoryName, &author, &p.Published, &p.Likes, &created, &updated); err != nil {
		return Post{}, err
	}
	p.CategoryID = category.String
	p.AuthorID = author.String
	p.CreatedAt = store.FromMillis(created)
	p.UpdatedAt = store.FromMillis(updated)
	return p, nil
}

func (r *Repository) onePost(ctx context.Context, where string, arg any) (*Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, postSelect+` WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// PostBySlug returns a post regardless of publication, or nil.
func (r *Repository) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	return r.onePost(ctx, `p.slug = $1`, slug)
}

// PostByID returns a post or nil.
func (r *Repository) PostByID(ctx context.Context, id string) (*Post, error) {
	return r.onePost(ctx, `p.id = $1`, id)
}

// PostFilter narrows ListPosts.
type PostFilter struct {
	PublishedOnly bool
	CategorySlug  string
	Limit         int
	Offset        int
}

// ListPosts returns posts newest first.
func (r *Repository) ListPosts(ctx context.Context, f PostFilter) ([]Post, error) {
	query := postSelect
	args := []any{}
	where := ""
	if f.PublishedOnly {
		where = ` WHERE p.published = $1`
		args = append(args, true)
	}
	if f.CategorySlug != "" {
		args = append(args, f.CategorySlug)
		if where == "" {
			where = ` WHERE`
		} else {
			where += ` AND`
		}
		where += ` c.slug = $` + strconv.Itoa(len(args))
	}
	query += where + ` ORDER BY p.created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()
	res := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// InsertPost returns store.ErrDuplicate when the slug exists.
func (r *Repository) InsertPost(ctx context.Context, p Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, title, slug, excerpt, content, cover_image, category_id, author_id,
			published, likes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11)
	`, p.ID, p.Title, p.Slug, p.Excerpt, p.Content, p.CoverImage, store.NullString(p.CategoryID),
		store.NullString(p.AuthorID), p.Published, store.Millis(p.CreatedAt), store.Millis(p.UpdatedAt))
	if store.IsUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// UpdatePost rewrites editable fields; the like counter is never touched here.
func (r *Repository) UpdatePost(ctx context.Context, p Post) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE posts SET title = $2, slug = $3, excerpt = $4, content = $5, cover_image = $6,
			category_id = $7, published = $8, updated_at = $9
		WHERE id = $1
	`, p.ID, p.Title, p.Slug, p.Excerpt, p.Content, p.CoverImage, store.NullString(p.CategoryID),
		p.Published, store.Millis(p.UpdatedAt))
	if store.IsUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// DeletePost removes a post with its likes and comments.
func (r *Repository) DeletePost(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer store.Rollback(tx)
	for _, q := range []string{
		`DELETE FROM post_likes WHERE post_id = $1`,
		`DELETE FROM comments WHERE post_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return false, fmt.Errorf("delete post children: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, tx.Commit()
}
