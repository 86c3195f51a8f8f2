package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"campus/internal/apperr"
	"campus/internal/httpmiddleware"
	"campus/internal/metrics"
	"campus/internal/normalize"
	"campus/internal/store"
)

// Store is the persistence the service needs; *Repository implements it.
type Store interface {
	InsertSession(ctx context.Context, s Session) error
	Session(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]SessionSummary, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	HasResponse(ctx context.Context, sessionID, email string) (bool, error)
	InsertResponse(ctx context.Context, resp Response) error
	Responses(ctx context.Context, sessionID string) ([]Response, error)
}

// Enrollments answers whether a normalised email has an approved enrollment.
type Enrollments interface {
	HasApproved(ctx context.Context, email string) (bool, error)
}

// Service coordinates session administration and student submissions.
type Service struct {
	repo        Store
	enrollments Enrollments
	log         zerolog.Logger
	now         func() time.Time
}

// NewService creates a service backed by a repository.
func NewService(repo Store, enrollments Enrollments, log zerolog.Logger) *Service {
	return &Service{repo: repo, enrollments: enrollments, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// NewSession is the admin create request. ExpiresAt wins over DurationMinutes.
type NewSession struct {
	Question        string
	CorrectAnswer   string
	Course          string
	ExpiresAt       *time.Time
	DurationMinutes int
}

// CreateSession opens an active session.
func (s *Service) CreateSession(ctx context.Context, in NewSession) (Session, error) {
	question := strings.TrimSpace(in.Question)
	answer := strings.TrimSpace(in.CorrectAnswer)
	if question == "" || answer == "" {
		return Session{}, apperr.Validation("question and correctAnswer are required")
	}
	now := s.now()
	var expires time.Time
	switch {
	case in.ExpiresAt != nil:
		expires = in.ExpiresAt.UTC()
	case in.DurationMinutes > 0:
		expires = now.Add(time.Duration(in.DurationMinutes) * time.Minute)
	default:
		return Session{}, apperr.Validation("expiresAt or durationMinutes is required")
	}
	if !expires.After(now) {
		return Session{}, apperr.Validation("expiresAt must be in the future")
	}

	sess := Session{
		ID:            uuid.NewString(),
		Question:      question,
		CorrectAnswer: answer,
		Course:        strings.TrimSpace(in.Course),
		ExpiresAt:     expires,
		IsActive:      true,
		CreatedAt:     now,
	}
	if err := s.repo.InsertSession(ctx, sess); err != nil {
		return Session{}, err
	}
	s.log.Info().Str("session_id", sess.ID).Time("expires_at", expires).Msg("attendance session created")
	return sess, nil
}

// ListSessions returns all sessions for admins.
func (s *Service) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	return s.repo.ListSessions(ctx)
}

// SetActive opens or closes a session.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (Session, error) {
	ok, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrNotFound
	}
	sess, err := s.repo.Session(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if sess == nil {
		return Session{}, ErrNotFound
	}
	return *sess, nil
}

// Responses lists answers to a session.
func (s *Service) Responses(ctx context.Context, id string) ([]Response, error) {
	sess, err := s.repo.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	return s.repo.Responses(ctx, id)
}

// Get returns the student view of an open session.
func (s *Service) Get(ctx context.Context, id string) (PublicSession, error) {
	sess, err := s.open(ctx, id)
	if err != nil {
		return PublicSession{}, err
	}
	return sess.Public(), nil
}

func (s *Service) open(ctx context.Context, id string) (*Session, error) {
	sess, err := s.repo.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	if err := sess.Usable(s.now()); err != nil {
		return nil, err
	}
	return sess, nil
}

// Submission is a student's answer.
type Submission struct {
	StudentEmail string
	StudentName  string
	Answer       string
	IPAddress    string
}

// Result tells the student whether the answer matched; the response is recorded either way.
type Result struct {
	IsCorrect bool   `json:"isCorrect"`
	Message   string `json:"message"`
}

// Submit records one response per student per session.
func (s *Service) Submit(ctx context.Context, sessionID string, sub Submission) (Result, error) {
	res, err := s.submit(ctx, sessionID, sub)
	switch {
	case err == nil && res.IsCorrect:
		metrics.AttendanceSubmissions.WithLabelValues("correct").Inc()
	case err == nil:
		metrics.AttendanceSubmissions.WithLabelValues("incorrect").Inc()
	default:
		metrics.AttendanceSubmissions.WithLabelValues("rejected").Inc()
	}
	return res, err
}

func (s *Service) submit(ctx context.Context, sessionID string, sub Submission) (Result, error) {
	email := normalize.Key(sub.StudentEmail)
	name := strings.TrimSpace(sub.StudentName)
	answer := strings.TrimSpace(sub.Answer)
	if email == "" || name == "" || answer == "" {
		return Result{}, apperr.Validation("studentEmail, studentName and answer are required")
	}

	sess, err := s.open(ctx, sessionID)
	if err != nil {
		return Result{}, err
	}
	enrolled, err := s.enrollments.HasApproved(ctx, email)
	if err != nil {
		return Result{}, err
	}
	if !enrolled {
		return Result{}, ErrNotEnrolled
	}
	exists, err := s.repo.HasResponse(ctx, sess.ID, email)
	if err != nil {
		return Result{}, err
	}
	if exists {
		return Result{}, ErrDuplicateSubmission
	}

	ip := strings.TrimSpace(sub.IPAddress)
	if ip == "" {
		ip = httpmiddleware.UnknownIP
	}
	resp := Response{
		ID:              uuid.NewString(),
		SessionID:       sess.ID,
		StudentEmail:    email,
		StudentName:     name,
		SubmittedAnswer: answer,
		IsCorrect:       normalize.Key(answer) == normalize.Key(sess.CorrectAnswer),
		IPAddress:       ip,
		CreatedAt:       s.now(),
	}
	if err := s.repo.InsertResponse(ctx, resp); err != nil {
		// lost the race against a concurrent submission for the same student
		if errors.Is(err, store.ErrDuplicate) {
			return Result{}, ErrDuplicateSubmission
		}
		return Result{}, err
	}

	s.log.Info().Str("session_id", sess.ID).Str("student_email", email).Bool("correct", resp.IsCorrect).Msg("attendance recorded")
	if resp.IsCorrect {
		return Result{IsCorrect: true, Message: "Attendance recorded. Correct answer!"}, nil
	}
	return Result{IsCorrect: false, Message: "Attendance recorded, but the answer was incorrect."}, nil
}
