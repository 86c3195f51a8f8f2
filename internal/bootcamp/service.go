package bootcamp

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"campus/internal/apperr"
	"campus/internal/normalize"
)

// Notifier is the subset of notify.Notifier the service uses.
type Notifier interface {
	EnrollmentReceived(ctx context.Context, name, email string)
	EnrollmentStatusChanged(ctx context.Context, name, email, status, course string)
}

// Service coordinates applications and reviews.
type Service struct {
	repo   *Repository
	notify Notifier
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(repo *Repository, notify Notifier, log zerolog.Logger) *Service {
	return &Service{repo: repo, notify: notify, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Application is the public enrollment form.
type Application struct {
	Name              string
	Email             string
	Phone             string
	CoursesInterested []string
	Experience        string
	Motivation        string
}

// Enroll records a PENDING application and sends a best-effort confirmation.
func (s *Service) Enroll(ctx context.Context, a Application) (Enrollment, error) {
	name := strings.TrimSpace(a.Name)
	email := normalize.Key(a.Email)
	if name == "" {
		return Enrollment{}, apperr.Validation("name is required")
	}
	if !normalize.ValidEmail(email) {
		return Enrollment{}, apperr.Validation("a valid email is required")
	}
	courses := make([]string, 0, len(a.CoursesInterested))
	for _, c := range a.CoursesInterested {
		if c = strings.TrimSpace(c); c != "" {
			courses = append(courses, c)
		}
	}
	if len(courses) == 0 {
		return Enrollment{}, apperr.Validation("at least one course of interest is required")
	}

	now := s.now()
	e := Enrollment{
		ID:                uuid.NewString(),
		Name:              name,
		Email:             email,
		Phone:             strings.TrimSpace(a.Phone),
		CoursesInterested: courses,
		Experience:        strings.TrimSpace(a.Experience),
		Motivation:        strings.TrimSpace(a.Motivation),
		Status:            StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return Enrollment{}, err
	}
	s.notify.EnrollmentReceived(ctx, e.Name, e.Email)
	return e, nil
}

// List returns enrollments, optionally filtered by a status value.
func (s *Service) List(ctx context.Context, status string) ([]Enrollment, error) {
	var st Status
	if status != "" {
		var ok bool
		if st, ok = ParseStatus(status); !ok {
			return nil, ErrInvalidStatus
		}
	}
	return s.repo.List(ctx, st)
}

// UpdateStatus applies an admin review decision.
func (s *Service) UpdateStatus(ctx context.Context, id, status string, notes *string) (Enrollment, error) {
	st, ok := ParseStatus(status)
	if !ok {
		return Enrollment{}, ErrInvalidStatus
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if e == nil {
		return Enrollment{}, ErrNotFound
	}
	previous := e.Status
	applyStatus(e, st, notes, s.now())
	if err := s.repo.Update(ctx, *e); err != nil {
		return Enrollment{}, err
	}
	s.log.Info().Str("enrollment_id", e.ID).Str("from", string(previous)).Str("to", string(st)).Msg("enrollment status updated")
	if previous != st {
		s.notify.EnrollmentStatusChanged(ctx, e.Name, e.Email, string(st), e.AssignedCourse)
	}
	return *e, nil
}

// FixCourses assigns the first course of interest to every approved enrollment that lacks
// one. Enrollments with no interests are left alone, so a second run changes nothing.
func (s *Service) FixCourses(ctx context.Context) ([]CourseUpdate, error) {
	pending, err := s.repo.ApprovedMissingCourse(ctx)
	if err != nil {
		return nil, err
	}
	updates := []CourseUpdate{}
	now := s.now()
	for i := range pending {
		e := pending[i]
		if len(e.CoursesInterested) == 0 {
			continue
		}
		assignFirstCourse(&e, now)
		e.UpdatedAt = now
		changed, err := s.repo.AssignCourse(ctx, e)
		if err != nil {
			return updates, err
		}
		if changed {
			updates = append(updates, CourseUpdate{ID: e.ID, Name: e.Name, AssignedCourse: e.AssignedCourse})
		}
	}
	s.log.Info().Int("updated", len(updates)).Msg("course assignment repair finished")
	return updates, nil
}

// HasApproved reports whether a normalised email belongs to an approved enrollment.
func (s *Service) HasApproved(ctx context.Context, email string) (bool, error) {
	return s.repo.HasApproved(ctx, email)
}
