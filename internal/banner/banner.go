// Package banner manages promotional banners shown on the public site.
package banner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus/internal/apperr"
	"campus/internal/store"
)

var ErrNotFound = apperr.New(apperr.KindNotFound, "BANNER_NOT_FOUND", "banner not found")

type Banner struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Subtitle      string     `json:"subtitle"`
	ImageURL      string     `json:"imageUrl"`
	ImagePublicID string     `json:"imagePublicId,omitempty"`
	LinkURL       string     `json:"linkUrl"`
	IsActive      bool       `json:"isActive"`
	SortOrder     int        `json:"sortOrder"`
	StartsAt      *time.Time `json:"startsAt,omitempty"`
	EndsAt        *time.Time `json:"endsAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Live reports whether the banner should be shown at now.
func (b Banner) Live(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.StartsAt != nil && now.Before(*b.StartsAt) {
		return false
	}
	return b.EndsAt == nil || !now.After(*b.EndsAt)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const bannerColumns = `id, title, subtitle, image_url, image_public_id, link_url, is_active, sort_order,
	starts_at, ends_at, created_at, updated_at`

func scanBanner(row interface{ Scan(...any) error }) (Banner, error) {
	var (
		b                Banner
		starts, ends     sql.NullInt64
		created, updated int64
	)
	if err := row.Scan(&b.ID, &b.Title, &b.Subtitle, &b.ImageURL, &b.ImagePublicID, &b.LinkURL, &b.IsActive,
		&b.SortOrder, &starts, &ends, &created, &updated); err != nil {
		return Banner{}, err
	}
	b.StartsAt = store.TimePtr(starts)
	b.EndsAt = store.TimePtr(ends)
	b.CreatedAt = store.FromMillis(created)
	b.UpdatedAt = store.FromMillis(updated)
	return b, nil
}

func (r *Repository) Insert(ctx context.Context, b Banner) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO banners (`+bannerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, b.ID, b.Title, b.Subtitle, b.ImageURL, b.ImagePublicID, b.LinkURL, b.IsActive, b.SortOrder,
		store.NullMillis(b.StartsAt), store.NullMillis(b.EndsAt), store.Millis(b.CreatedAt), store.Millis(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert banner: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Banner, error) {
	b, err := scanBanner(r.db.QueryRowContext(ctx, `SELECT `+bannerColumns+` FROM banners WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get banner: %w", err)
	}
	return &b, nil
}

// List returns every banner in display order.
func (r *Repository) List(ctx context.Context) ([]Banner, error) {
	return r.query(ctx, `SELECT `+bannerColumns+` FROM banners ORDER BY sort_order ASC, created_at DESC`)
}

// Live returns active banners whose window contains now, in display order.
func (r *Repository) Live(ctx context.Context, now time.Time) ([]Banner, error) {
	ms := store.Millis(now)
	return r.query(ctx, `SELECT `+bannerColumns+` FROM banners
		WHERE is_active = $1
			AND (starts_at IS NULL OR starts_at <= $2)
			AND (ends_at IS NULL OR ends_at >= $2)
		ORDER BY sort_order ASC, created_at DESC`, true, ms)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Banner, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list banners: %w", err)
	}
	defer rows.Close()
	res := []Banner{}
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func (r *Repository) Update(ctx context.Context, b Banner) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE banners SET title = $2, subtitle = $3, image_url = $4, image_public_id = $5, link_url = $6,
			is_active = $7, sort_order = $8, starts_at = $9, ends_at = $10, updated_at = $11
		WHERE id = $1
	`, b.ID, b.Title, b.Subtitle, b.ImageURL, b.ImagePublicID, b.LinkURL, b.IsActive, b.SortOrder,
		store.NullMillis(b.StartsAt), store.NullMillis(b.EndsAt), store.Millis(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("update banner: %w", err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete banner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
