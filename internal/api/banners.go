package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campus/internal/banner"
)

// bannerRequest binds from JSON or multipart form fields; absent fields stay nil.
type bannerRequest struct {
	Title     *string    `json:"title" form:"title"`
	Subtitle  *string    `json:"subtitle" form:"subtitle"`
	ImageURL  *string    `json:"imageUrl" form:"imageUrl"`
	LinkURL   *string    `json:"linkUrl" form:"linkUrl"`
	IsActive  *bool      `json:"isActive" form:"isActive"`
	SortOrder *int       `json:"sortOrder" form:"sortOrder"`
	StartsAt  *time.Time `json:"startsAt" form:"startsAt" time_format:"2006-01-02T15:04:05Z07:00"`
	EndsAt    *time.Time `json:"endsAt" form:"endsAt" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (r bannerRequest) fields() banner.Fields {
	return banner.Fields{
		Title:     r.Title,
		Subtitle:  r.Subtitle,
		ImageURL:  r.ImageURL,
		LinkURL:   r.LinkURL,
		IsActive:  r.IsActive,
		SortOrder: r.SortOrder,
		StartsAt:  r.StartsAt,
		EndsAt:    r.EndsAt,
	}
}

func (h *Handler) bannerInput(c *gin.Context) (banner.Fields, *banner.Image, bool) {
	var req bannerRequest
	if !h.bind(c, &req) {
		return banner.Fields{}, nil, false
	}
	filename, data, err := formFile(c, "image")
	if err != nil {
		h.fail(c, err)
		return banner.Fields{}, nil, false
	}
	var img *banner.Image
	if data != nil {
		img = &banner.Image{Filename: filename, Data: data}
	}
	return req.fields(), img, true
}

func (h *Handler) liveBanners(c *gin.Context) {
	list, err := h.Banners.Live(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}

func (h *Handler) listBanners(c *gin.Context) {
	list, err := h.Banners.All(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, list)
}

func (h *Handler) createBanner(c *gin.Context) {
	fields, img, ok := h.bannerInput(c)
	if !ok {
		return
	}
	b, err := h.Banners.Create(c.Request.Context(), fields, img)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusCreated, b)
}

func (h *Handler) updateBanner(c *gin.Context) {
	fields, img, ok := h.bannerInput(c)
	if !ok {
		return
	}
	b, err := h.Banners.Update(c.Request.Context(), c.Param("id"), fields, img)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, b)
}

func (h *Handler) deleteBanner(c *gin.Context) {
	if err := h.Banners.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.ok(c, http.StatusOK, gin.H{"id": c.Param("id")})
}
