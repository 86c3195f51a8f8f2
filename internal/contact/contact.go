// Package contact stores contact-form submissions and keeps a short log of recent ones.
package contact

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"campus/internal/apperr"
	"campus/internal/normalize"
	"campus/internal/store"
)

// Contact is a stored submission.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, c Contact) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, email, subject, message, created_at) VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.Name, c.Email, c.Subject, c.Message, store.Millis(c.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// List returns submissions newest first.
func (r *Repository) List(ctx context.Context) ([]Contact, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email, subject, message, created_at FROM contacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	res := []Contact{}
	for rows.Next() {
		var (
			c       Contact
			created int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = store.FromMillis(created)
		res = append(res, c)
	}
	return res, rows.Err()
}

// Notifier is the subset of notify.Notifier the service uses.
type Notifier interface {
	ContactReceived(ctx context.Context, name, email, subject, message string)
}

type Service struct {
	repo   *Repository
	recent Log
	notify Notifier
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(repo *Repository, recent Log, notify Notifier, log zerolog.Logger) *Service {
	return &Service{repo: repo, recent: recent, notify: notify, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Submission is the public contact form.
type Submission struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Submit stores the message, records it in the recent log and e-mails a confirmation.
// Neither the log nor the mail can fail the request.
func (s *Service) Submit(ctx context.Context, in Submission) (Contact, error) {
	c := Contact{
		ID:      uuid.NewString(),
		Name:    strings.TrimSpace(in.Name),
		Email:   normalize.Key(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: strings.TrimSpace(in.Message),
	}
	if c.Name == "" || c.Message == "" {
		return Contact{}, apperr.Validation("name and message are required")
	}
	if !normalize.ValidEmail(c.Email) {
		return Contact{}, apperr.Validation("a valid email is required")
	}
	c.CreatedAt = s.now()
	if err := s.repo.Insert(ctx, c); err != nil {
		return Contact{}, err
	}

	entry := Entry{ID: c.ID, Name: c.Name, Email: c.Email, Subject: c.Subject, CreatedAt: c.CreatedAt}
	if err := s.recent.Record(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("contact_id", c.ID).Msg("recent contacts log unavailable")
	}
	s.notify.ContactReceived(ctx, c.Name, c.Email, c.Subject, c.Message)
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]Contact, error) {
	return s.repo.List(ctx)
}

// Recent reads the operator log.
func (s *Service) Recent(ctx context.Context, n int) ([]Entry, error) {
	return s.recent.Recent(ctx, n)
}
