package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campus/internal/apperr"
	"campus/internal/media"
	"campus/internal/metrics"
)

// upload stores an admin image (post covers and similar) and returns its hosted URL.
func (h *Handler) upload(c *gin.Context) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "image storage not configured"})
		return
	}
	filename, data, err := formFile(c, "file")
	if err != nil {
		h.fail(c, err)
		return
	}
	if data == nil {
		h.fail(c, apperr.Validation("file is required"))
		return
	}
	if !media.IsImage(data) {
		h.fail(c, apperr.Validation("file must be a JPEG, PNG, GIF or WebP image"))
		return
	}
	folder := c.DefaultPostForm("folder", "uploads")
	res, err := h.Uploader.Upload(c.Request.Context(), data, media.UploadOptions{Folder: folder, PublicID: uuid.NewString(), Filename: filename})
	if err != nil {
		metrics.UploadsFailed.WithLabelValues("images").Inc()
		h.fail(c, apperr.Upstream("image upload failed", err))
		return
	}
	h.ok(c, http.StatusCreated, res)
}
