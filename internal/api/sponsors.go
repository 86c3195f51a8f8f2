package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campus/internal/sponsor"
)

// sponsorRequest binds from JSON or multipart form fields.
type sponsorRequest struct {
	CompanyName string `json:"companyName" form:"companyName" binding:"required"`
	ContactName string `json:"contactName" form:"contactName" binding:"required"`
	Email       string `json:"email" form:"email" binding:"required,email"`
	Phone       string `json:"phone" form:"phone"`
	Website     string `json:"website" form:"website"`
	Tier        string `json:"tier" form:"tier"`
	Message     string `json:"message" form:"message"`
}

func (h *Handler) applySponsor(c *gin.Context) {
	var req sponsorRequest
	if !h.bind(c, &req) {
		return
	}
	filename, data, err := formFile(c, "document")
	if err != nil {
		h.fail(c, err)
		return
	}
	var doc *sponsor.Document
	if data != nil {
		doc = &sponsor.Document{Filename: filename, Data: data}
	}
	sp, err := h.Sponsors.Apply(c.Request.Context(), sponsor.Application{
		CompanyName: req.CompanyName,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
		Tier:        req.Tier,
		Message:     req.Message,
	}, doc)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, sp)
}

func (h *Handler) listSponsors(c *gin.Context) {
	list, err := h.Sponsors.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}

func (h *Handler) updateSponsor(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,oneof=PENDING APPROVED REJECTED"`
	}
	if !h.bind(c, &req) {
		return
	}
	sp, err := h.Sponsors.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, sp)
}
