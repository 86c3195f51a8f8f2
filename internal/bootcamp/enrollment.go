// Package bootcamp manages bootcamp applications, their review status and course assignment.
package bootcamp

import (
	"strings"
	"time"

	"campus/internal/apperr"
)

// Status is the review state of an enrollment.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusRejected   Status = "REJECTED"
	StatusWaitlisted Status = "WAITLISTED"
)

// Statuses lists every accepted status value.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusWaitlisted}

// ParseStatus accepts exactly one of the four status values.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

var (
	ErrNotFound      = apperr.New(apperr.KindNotFound, "ENROLLMENT_NOT_FOUND", "enrollment not found")
	ErrInvalidStatus = apperr.New(apperr.KindValidation, "INVALID_STATUS", "status must be one of PENDING, APPROVED, REJECTED, WAITLISTED")
)

// Enrollment is one bootcamp application.
type Enrollment struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Phone             string     `json:"phone"`
	CoursesInterested []string   `json:"coursesInterested"`
	Experience        string     `json:"experience"`
	Motivation        string     `json:"motivation"`
	Status            Status     `json:"status"`
	AssignedCourse    string     `json:"assignedCourse"`
	ApprovalDate      *time.Time `json:"approvalDate,omitempty"`
	Notes             string     `json:"notes"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// applyStatus moves e to status. Approval assigns the first course of interest when none is
// assigned and stamps the approval date once.
func applyStatus(e *Enrollment, status Status, notes *string, now time.Time) {
	e.Status = status
	if notes != nil {
		e.Notes = *notes
	}
	if status == StatusApproved {
		assignFirstCourse(e, now)
	}
	e.UpdatedAt = now
}

// assignFirstCourse reports whether it changed e.
func assignFirstCourse(e *Enrollment, now time.Time) bool {
	changed := false
	if strings.TrimSpace(e.AssignedCourse) == "" && len(e.CoursesInterested) > 0 {
		e.AssignedCourse = e.CoursesInterested[0]
		changed = true
	}
	if e.ApprovalDate == nil {
		t := now
		e.ApprovalDate = &t
		changed = true
	}
	return changed
}

// CourseUpdate reports one repair performed by FixCourses.
type CourseUpdate struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AssignedCourse string `json:"assignedCourse"`
}
