// Package media uploads images and documents to external object storage.
package media

import (
	"context"
	"net/http"
	"strings"
)

// UploadOptions places an upload.
type UploadOptions struct {
	Folder   string
	PublicID string
	Filename string
}

// UploadResult describes a stored image.
type UploadResult struct {
	SecureURL string `json:"secureUrl"`
	PublicID  string `json:"publicId"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int    `json:"bytes"`
}

// Uploader stores images.
type Uploader interface {
	Upload(ctx context.Context, data []byte, opts UploadOptions) (*UploadResult, error)
}

// DocumentStore stores arbitrary files and returns a URL for them.
type DocumentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// IsImage sniffs data and reports whether it is a supported image type.
func IsImage(data []byte) bool {
	return imageTypes[http.DetectContentType(data)]
}

var documentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// DocumentType sniffs data and returns its content type when accepted for documents.
func DocumentType(data []byte) (string, bool) {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct, documentTypes[ct]
}
