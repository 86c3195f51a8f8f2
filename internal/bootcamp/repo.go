package bootcamp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"campus/internal/store"
)

// Repository persists enrollments.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const enrollmentColumns = `id, name, email, phone, courses_interested, experience, motivation, status,
	assigned_course, approval_date, notes, created_at, updated_at`

func scanEnrollment(row interface{ Scan(...any) error }) (Enrollment, error) {
	var (
		e                Enrollment
		courses          string
		approval         sql.NullInt64
		created, updated int64
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &courses, &e.Experience, &e.Motivation, &e.Status,
		&e.AssignedCourse, &approval, &e.Notes, &created, &updated); err != nil {
		return Enrollment{}, err
	}
	if err := json.Unmarshal([]byte(courses), &e.CoursesInterested); err != nil {
		return Enrollment{}, fmt.Errorf("decode courses for %s: %w", e.ID, err)
	}
	if e.CoursesInterested == nil {
		e.CoursesInterested = []string{}
	}
	e.ApprovalDate = store.TimePtr(approval)
	e.CreatedAt = store.FromMillis(created)
	e.UpdatedAt = store.FromMillis(updated)
	return e, nil
}

// Insert writes a new enrollment.
func (r *Repository) Insert(ctx context.Context, e Enrollment) error {
	courses, err := json.Marshal(e.CoursesInterested)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO bootcamp_enrollments (id, name, email, phone, courses_interested, experience, motivation,
			status, assigned_course, approval_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, e.ID, e.Name, e.Email, e.Phone, string(courses), e.Experience, e.Motivation,
		string(e.Status), e.AssignedCourse, store.NullMillis(e.ApprovalDate), e.Notes,
		store.Millis(e.CreatedAt), store.Millis(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// Get returns an enrollment or nil when missing.
func (r *Repository) Get(ctx context.Context, id string) (*Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+enrollmentColumns+` FROM bootcamp_enrollments WHERE id = $1`, id)
	e, err := scanEnrollment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return &e, nil
}

// List returns enrollments newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status Status) ([]Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM bootcamp_enrollments`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`
	return r.query(ctx, query, args...)
}

// ApprovedMissingCourse returns approved enrollments without an assigned course, oldest first.
func (r *Repository) ApprovedMissingCourse(ctx context.Context) ([]Enrollment, error) {
	return r.query(ctx, `SELECT `+enrollmentColumns+` FROM bootcamp_enrollments
		WHERE status = $1 AND assigned_course = '' ORDER BY created_at ASC`, string(StatusApproved))
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()
	res := []Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// Update persists the mutable review fields.
func (r *Repository) Update(ctx context.Context, e Enrollment) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE bootcamp_enrollments
		SET status = $2, assigned_course = $3, approval_date = $4, notes = $5, updated_at = $6
		WHERE id = $1
	`, e.ID, string(e.Status), e.AssignedCourse, store.NullMillis(e.ApprovalDate), e.Notes, store.Millis(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// AssignCourse sets the course only while it is still empty; it reports whether a row changed.
func (r *Repository) AssignCourse(ctx context.Context, e Enrollment) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bootcamp_enrollments
		SET assigned_course = $2, approval_date = $3, updated_at = $4
		WHERE id = $1 AND assigned_course = ''
	`, e.ID, e.AssignedCourse, store.NullMillis(e.ApprovalDate), store.Millis(e.UpdatedAt))
	if err != nil {
		return false, fmt.Errorf("assign course: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HasApproved reports whether any enrollment for the normalised email is APPROVED.
func (r *Repository) HasApproved(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM bootcamp_enrollments WHERE email = $1 AND status = $2 LIMIT 1
	`, email, string(StatusApproved)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}
