// Package attendance runs short question-based attendance sessions for approved bootcamp students.
package attendance

import (
	"time"

	"campus/internal/apperr"
)

var (
	ErrNotFound            = apperr.New(apperr.KindNotFound, "SESSION_NOT_FOUND", "attendance session not found")
	ErrInactiveSession     = apperr.New(apperr.KindValidation, "SESSION_INACTIVE", "this attendance session is no longer active")
	ErrExpired             = apperr.New(apperr.KindValidation, "SESSION_EXPIRED", "this attendance session has expired")
	ErrNotEnrolled         = apperr.New(apperr.KindValidation, "NOT_ENROLLED", "no approved bootcamp enrollment found for this email")
	ErrDuplicateSubmission = apperr.New(apperr.KindConflict, "DUPLICATE_SUBMISSION", "attendance already submitted for this session")
)

// Session is an admin-created attendance question.
type Session struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	CorrectAnswer string    `json:"correctAnswer"`
	Course        string    `json:"course,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PublicSession is what students see; it carries no answer.
type PublicSession struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Course    string    `json:"course,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `json:"isActive"`
}

// Public strips the correct answer.
func (s Session) Public() PublicSession {
	return PublicSession{ID: s.ID, Question: s.Question, Course: s.Course, ExpiresAt: s.ExpiresAt, IsActive: s.IsActive}
}

// Usable returns the rejection for a session that can no longer be read or answered.
func (s Session) Usable(now time.Time) error {
	if !s.IsActive {
		return ErrInactiveSession
	}
	if now.After(s.ExpiresAt) {
		return ErrExpired
	}
	return nil
}

// SessionSummary is the admin list row.
type SessionSummary struct {
	Session
	ResponseCount int `json:"responseCount"`
}

// Response is one student's answer to a session.
type Response struct {
	ID              string    `json:"id"`
	SessionID       string    `json:"sessionId"`
	StudentEmail    string    `json:"studentEmail"`
	StudentName     string    `json:"studentName"`
	SubmittedAnswer string    `json:"submittedAnswer"`
	IsCorrect       bool      `json:"isCorrect"`
	IPAddress       string    `json:"ipAddress"`
	CreatedAt       time.Time `json:"createdAt"`
}
