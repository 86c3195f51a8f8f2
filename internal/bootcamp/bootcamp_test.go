package bootcamp

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"campus/internal/apperr"
	"campus/internal/store/storetest"
)

type recordingNotifier struct {
	received []string
	changed  []string
}

func (r *recordingNotifier) EnrollmentReceived(_ context.Context, _, email string) {
	r.received = append(r.received, email)
}

func (r *recordingNotifier) EnrollmentStatusChanged(_ context.Context, _, email, status, _ string) {
	r.changed = append(r.changed, email+":"+status)
}

func newTestService(t *testing.T) (*Service, *Repository, *recordingNotifier) {
	t.Helper()
	db := storetest.Open(t)
	repo := NewRepository(db.Client)
	n := &recordingNotifier{}
	svc := NewService(repo, n, zerolog.Nop())
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	return svc, repo, n
}

func TestEnrollValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		app  Application
	}{
		{"missing name", Application{Email: "a@x.com", CoursesInterested: []string{"Go"}}},
		{"bad email", Application{Name: "A", Email: "nope", CoursesInterested: []string{"Go"}}},
		{"no courses", Application{Name: "A", Email: "a@x.com", CoursesInterested: []string{" "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Enroll(ctx, tt.app); apperr.StatusOf(err) != 400 {
				t.Fatalf("expected 400, got %v", err)
			}
		})
	}
}

func TestApprovalAssignsFirstCourse(t *testing.T) {
	svc, _, n := newTestService(t)
	ctx := context.Background()

	e, err := svc.Enroll(ctx, Application{Name: "Ada", Email: " Ada@X.com", CoursesInterested: []string{"Go", "Rust"}})
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if e.Status != StatusPending || e.Email != "ada@x.com" {
		t.Fatalf("unexpected enrollment %+v", e)
	}

	got, err := svc.UpdateStatus(ctx, e.ID, "APPROVED", nil)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.AssignedCourse != "Go" || got.ApprovalDate == nil {
		t.Fatalf("expected Go assigned with approval date, got %+v", got)
	}
	if len(n.received) != 1 || len(n.changed) != 1 || n.changed[0] != "ada@x.com:APPROVED" {
		t.Fatalf("unexpected notifications %+v %+v", n.received, n.changed)
	}

	ok, err := svc.HasApproved(ctx, "ada@x.com")
	if err != nil || !ok {
		t.Fatalf("expected eligible, got %v %v", ok, err)
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, "missing", "approved", nil); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "missing", "APPROVED", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.List(ctx, "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status filter, got %v", err)
	}
}

func TestFixCoursesIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	now := svc.now()

	// approved rows written directly, bypassing the approval path
	rows := []Enrollment{
		{ID: "a", Name: "A", Email: "a@x.com", CoursesInterested: []string{"Go", "SQL"}, Status: StatusApproved},
		{ID: "b", Name: "B", Email: "b@x.com", CoursesInterested: []string{}, Status: StatusApproved},
		{ID: "c", Name: "C", Email: "c@x.com", CoursesInterested: []string{"UX"}, Status: StatusPending},
		{ID: "d", Name: "D", Email: "d@x.com", CoursesInterested: []string{"Data"}, Status: StatusApproved, AssignedCourse: "Data"},
	}
	for _, e := range rows {
		e.CreatedAt, e.UpdatedAt = now, now
		if err := repo.Insert(ctx, e); err != nil {
			t.Fatalf("insert %s: %v", e.ID, err)
		}
	}

	first, err := svc.FixCourses(ctx)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if len(first) != 1 || first[0].ID != "a" || first[0].AssignedCourse != "Go" {
		t.Fatalf("unexpected first run %+v", first)
	}
	second, err := svc.FixCourses(ctx)
	if err != nil {
		t.Fatalf("fix again: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("second run updated %d rows", len(second))
	}

	a, err := repo.Get(ctx, "a")
	if err != nil || a == nil || a.ApprovalDate == nil {
		t.Fatalf("expected approval date stamped, got %+v %v", a, err)
	}
}

func TestExport(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Enroll(ctx, Application{Name: "Ada", Email: "ada@x.com", CoursesInterested: []string{"Go", "Rust"}}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := svc.Export(ctx, "", &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][2] != "ada@x.com" || rows[1][4] != "Go, Rust" {
		t.Fatalf("unexpected rows %v", rows)
	}
}
