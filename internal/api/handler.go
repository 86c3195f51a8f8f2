// Package api exposes the HTTP surface of the site.
package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"campus/internal/apperr"
	"campus/internal/attendance"
	"campus/internal/auth"
	"campus/internal/banner"
	"campus/internal/blog"
	"campus/internal/bootcamp"
	"campus/internal/contact"
	"campus/internal/media"
	"campus/internal/sponsor"
	"campus/internal/store"
	"campus/internal/user"
)

// Deps are the collaborators the router serves. Uploader and Redis may be nil.
type Deps struct {
	Log   zerolog.Logger
	DB    *store.DB
	Redis *store.Redis

	Signer     auth.Signer
	Users      *user.Service
	Posts      *blog.PostService
	Likes      *blog.LikeService
	Comments   *blog.CommentService
	Contacts   *contact.Service
	Bootcamp   *bootcamp.Service
	Attendance *attendance.Service
	Sponsors   *sponsor.Service
	Banners    *banner.Service
	Uploader   media.Uploader

	CORSOrigins     []string
	RateLimitPerMin int
}

// Handler serves every route.
type Handler struct {
	Deps
}

// maxUploadBytes bounds multipart files read into memory.
const maxUploadBytes = 10 << 20

// formFile reads an optional multipart file. It returns nil data when the field is absent.
func formFile(c *gin.Context, field string) (string, []byte, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, apperr.Validation("could not read " + field + " upload")
	}
	if fh.Size > maxUploadBytes {
		return "", nil, apperr.Validation(field + " must be 10MB or smaller")
	}
	data, err := readAll(fh)
	if err != nil {
		return "", nil, err
	}
	return fh.Filename, data, nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
}
