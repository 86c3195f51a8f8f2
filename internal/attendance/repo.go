package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campus/internal/store"
)

// Repository persists sessions and responses.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `id, question, correct_answer, course, expires_at, is_active, created_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var (
		s                  Session
		expires, createdAt int64
	)
	if err := row.Scan(&s.ID, &s.Question, &s.CorrectAnswer, &s.Course, &expires, &s.IsActive, &createdAt); err != nil {
		return Session{}, err
	}
	s.ExpiresAt = store.FromMillis(expires)
	s.CreatedAt = store.FromMillis(createdAt)
	return s, nil
}

// InsertSession writes a new session.
func (r *Repository) InsertSession(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_sessions (id, question, correct_answer, course, expires_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, s.ID, s.Question, s.CorrectAnswer, s.Course, store.Millis(s.ExpiresAt), s.IsActive, store.Millis(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Session returns a session by id, or nil when missing.
func (r *Repository) Session(ctx context.Context, id string) (*Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM attendance_sessions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// ListSessions returns every session newest first with its response count.
func (r *Repository) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.question, s.correct_answer, s.course, s.expires_at, s.is_active, s.created_at,
			(SELECT COUNT(*) FROM attendance_responses r WHERE r.session_id = s.id)
		FROM attendance_sessions s
		ORDER BY s.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	res := []SessionSummary{}
	for rows.Next() {
		var (
			sum                SessionSummary
			expires, createdAt int64
		)
		if err := rows.Scan(&sum.ID, &sum.Question, &sum.CorrectAnswer, &sum.Course, &expires, &sum.IsActive, &createdAt, &sum.ResponseCount); err != nil {
			return nil, err
		}
		sum.ExpiresAt = store.FromMillis(expires)
		sum.CreatedAt = store.FromMillis(createdAt)
		res = append(res, sum)
	}
	return res, rows.Err()
}

// SetActive toggles a session and reports whether it existed.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE attendance_sessions SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return false, fmt.Errorf("set session active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasResponse reports whether the student already answered the session.
func (r *Repository) HasResponse(ctx context.Context, sessionID, email string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM attendance_responses WHERE session_id = $1 AND student_email = $2
	`, sessionID, email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check response: %w", err)
	}
	return true, nil
}

// InsertResponse writes a response; a second response for the same student returns store.ErrDuplicate.
func (r *Repository) InsertResponse(ctx context.Context, resp Response) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_responses (id, session_id, student_email, student_name, submitted_answer,
			is_correct, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, resp.ID, resp.SessionID, resp.StudentEmail, resp.StudentName, resp.SubmittedAnswer,
		resp.IsCorrect, resp.IPAddress, store.Millis(resp.CreatedAt))
	if store.IsUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// Responses lists a session's responses oldest first.
func (r *Repository) Responses(ctx context.Context, sessionID string) ([]Response, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, student_email, student_name, submitted_answer, is_correct, ip_address, created_at
		FROM attendance_responses WHERE session_id = $1
		ORDER BY created_at ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()
	res := []Response{}
	for rows.Next() {
		var (
			resp      Response
			createdAt int64
		)
		if err := rows.Scan(&resp.ID, &resp.SessionID, &resp.StudentEmail, &resp.StudentName, &resp.SubmittedAnswer,
			&resp.IsCorrect, &resp.IPAddress, &createdAt); err != nil {
			return nil, err
		}
		resp.CreatedAt = store.FromMillis(createdAt)
		res = append(res, resp)
	}
	return res, rows.Err()
}
