package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campus/internal/attendance"
	"campus/internal/httpmiddleware"
)

func (h *Handler) getSession(c *gin.Context) {
	s, err := h.Attendance.Get(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, s)
}

type submitAttendanceRequest struct {
	StudentEmail string `json:"studentEmail" binding:"required"`
	StudentName  string `json:"studentName" binding:"required"`
	Answer       string `json:"answer" binding:"required"`
}

func (h *Handler) submitAttendance(c *gin.Context) {
	var req submitAttendanceRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Attendance.Submit(c.Request.Context(), c.Param("sessionId"), attendance.Submission{
		StudentEmail: req.StudentEmail,
		StudentName:  req.StudentName,
		Answer:       req.Answer,
		IPAddress:    httpmiddleware.ClientIP(c.Request),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, res)
}

type createSessionRequest struct {
	Question        string     `json:"question" binding:"required"`
	CorrectAnswer   string     `json:"correctAnswer" binding:"required"`
	Course          string     `json:"course"`
	ExpiresAt       *time.Time `json:"expiresAt"`
	DurationMinutes int        `json:"durationMinutes" binding:"min=0"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if !h.bind(c, &req) {
		return
	}
	s, err := h.Attendance.CreateSession(c.Request.Context(), attendance.NewSession{
		Question:        req.Question,
		CorrectAnswer:   req.CorrectAnswer,
		Course:          req.Course,
		ExpiresAt:       req.ExpiresAt,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, s)
}

func (h *Handler) listSessions(c *gin.Context) {
	list, err := h.Attendance.ListSessions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}

func (h *Handler) setSessionActive(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"isActive" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	s, err := h.Attendance.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, s)
}

func (h *Handler) sessionResponses(c *gin.Context) {
	list, err := h.Attendance.Responses(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}
