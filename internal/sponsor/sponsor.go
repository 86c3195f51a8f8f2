// Package sponsor handles sponsorship applications and their review.
package sponsor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus/internal/apperr"
	"campus/internal/store"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, true
	}
	return "", false
}

var (
	ErrNotFound      = apperr.New(apperr.KindNotFound, "SPONSOR_NOT_FOUND", "sponsor application not found")
	ErrInvalidStatus = apperr.New(apperr.KindValidation, "INVALID_STATUS", "status must be one of PENDING, APPROVED, REJECTED")
)

type Sponsor struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"companyName"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Website     string    `json:"website"`
	Tier        string    `json:"tier"`
	Message     string    `json:"message"`
	DocumentURL string    `json:"documentUrl,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sponsorColumns = `id, company_name, contact_name, email, phone, website, tier, message, document_url, status, created_at, updated_at`

func scanSponsor(row interface{ Scan(...any) error }) (Sponsor, error) {
	var (
		s                Sponsor
		created, updated int64
	)
	if err := row.Scan(&s.ID, &s.CompanyName, &s.ContactName, &s.Email, &s.Phone, &s.Website, &s.Tier,
		&s.Message, &s.DocumentURL, &s.Status, &created, &updated); err != nil {
		return Sponsor{}, err
	}
	s.CreatedAt = store.FromMillis(created)
	s.UpdatedAt = store.FromMillis(updated)
	return s, nil
}

func (r *Repository) Insert(ctx context.Context, s Sponsor) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sponsors (`+sponsorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, s.ID, s.CompanyName, s.ContactName, s.Email, s.Phone, s.Website, s.Tier, s.Message, s.DocumentURL,
		string(s.Status), store.Millis(s.CreatedAt), store.Millis(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert sponsor: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Sponsor, error) {
	s, err := scanSponsor(r.db.QueryRowContext(ctx, `SELECT `+sponsorColumns+` FROM sponsors WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sponsor: %w", err)
	}
	return &s, nil
}

// List returns applications newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status Status) ([]Sponsor, error) {
	query := `SELECT ` + sponsorColumns + ` FROM sponsors`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	rows, err := r.db.QueryContext(ctx, query+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sponsors: %w", err)
	}
	defer rows.Close()
	res := []Sponsor{}
	for rows.Next() {
		s, err := scanSponsor(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sponsors SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), store.Millis(at))
	if err != nil {
		return fmt.Errorf("update sponsor: %w", err)
	}
	return nil
}
