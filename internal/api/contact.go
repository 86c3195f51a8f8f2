package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus/internal/contact"
)

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

func (h *Handler) submitContact(c *gin.Context) {
	var req contactRequest
	if !h.bind(c, &req) {
		return
	}
	ct, err := h.Contacts.Submit(c.Request.Context(), contact.Submission{
		Name: req.Name, Email: req.Email, Subject: req.Subject, Message: req.Message,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"id": ct.ID}, "message": "Thanks, we will be in touch soon"})
}

func (h *Handler) listContacts(c *gin.Context) {
	list, err := h.Contacts.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}

func (h *Handler) recentContacts(c *gin.Context) {
	n, _ := strconv.Atoi(c.DefaultQuery("n", "20"))
	list, err := h.Contacts.Recent(c.Request.Context(), n)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}
