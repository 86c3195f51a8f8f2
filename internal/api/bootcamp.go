package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campus/internal/bootcamp"
)

type enrollRequest struct {
	Name              string   `json:"name" binding:"required"`
	Email             string   `json:"email" binding:"required,email"`
	Phone             string   `json:"phone"`
	CoursesInterested []string `json:"coursesInterested" binding:"required,min=1"`
	Experience        string   `json:"experience"`
	Motivation        string   `json:"motivation"`
}

func (h *Handler) enroll(c *gin.Context) {
	var req enrollRequest
	if !h.bind(c, &req) {
		return
	}
	e, err := h.Bootcamp.Enroll(c.Request.Context(), bootcamp.Application{
		Name:              req.Name,
		Email:             req.Email,
		Phone:             req.Phone,
		CoursesInterested: req.CoursesInterested,
		Experience:        req.Experience,
		Motivation:        req.Motivation,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, e)
}

func (h *Handler) listEnrollments(c *gin.Context) {
	list, err := h.Bootcamp.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}

type enrollmentStatusRequest struct {
	EnrollmentID string  `json:"enrollmentId" binding:"required"`
	Status       string  `json:"status" binding:"required,enrollmentstatus"`
	Notes        *string `json:"notes"`
}

func (h *Handler) updateEnrollment(c *gin.Context) {
	var req enrollmentStatusRequest
	if !h.bind(c, &req) {
		return
	}
	e, err := h.Bootcamp.UpdateStatus(c.Request.Context(), req.EnrollmentID, req.Status, req.Notes)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, e)
}

func (h *Handler) fixCourses(c *gin.Context) {
	updates, err := h.Bootcamp.FixCourses(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, updates)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) exportEnrollments(c *gin.Context) {
	// validate before headers are written so errors still render as JSON
	if _, err := h.Bootcamp.List(c.Request.Context(), c.Query("status")); err != nil {
		h.fail(c, err)
		return
	}
	name := "enrollments-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Status(http.StatusOK)
	if err := h.Bootcamp.Export(c.Request.Context(), c.Query("status"), c.Writer); err != nil {
		h.Log.Error().Err(err).Msg("enrollment export failed")
	}
}
