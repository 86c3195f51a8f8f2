package sponsor

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"campus/internal/apperr"
	"campus/internal/media"
	"campus/internal/metrics"
	"campus/internal/normalize"
)

// maxDocumentBytes bounds an attached sponsorship deck.
const maxDocumentBytes = 10 << 20

type Notifier interface {
	SponsorReceived(ctx context.Context, company, contactName, email string)
	SponsorStatusChanged(ctx context.Context, company, contactName, email, status string)
}

type Service struct {
	repo      *Repository
	documents media.DocumentStore
	notify    Notifier
	log       zerolog.Logger
	now       func() time.Time
}

// NewService accepts a nil document store when uploads are not configured.
func NewService(repo *Repository, documents media.DocumentStore, notify Notifier, log zerolog.Logger) *Service {
	return &Service{repo: repo, documents: documents, notify: notify, log: log, now: func() time.Time { return time.Now().UTC() }}
}

type Application struct {
	CompanyName string
	ContactName string
	Email       string
	Phone       string
	Website     string
	Tier        string
	Message     string
}

// Document is an optional attachment.
type Document struct {
	Filename string
	Data     []byte
}

// Apply stores an application. The attachment must upload for the application to be accepted.
func (s *Service) Apply(ctx context.Context, in Application, doc *Document) (Sponsor, error) {
	now := s.now()
	sp := Sponsor{
		ID:          uuid.NewString(),
		CompanyName: strings.TrimSpace(in.CompanyName),
		ContactName: strings.TrimSpace(in.ContactName),
		Email:       normalize.Key(in.Email),
		Phone:       strings.TrimSpace(in.Phone),
		Website:     strings.TrimSpace(in.Website),
		Tier:        strings.TrimSpace(in.Tier),
		Message:     strings.TrimSpace(in.Message),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if sp.CompanyName == "" || sp.ContactName == "" {
		return Sponsor{}, apperr.Validation("companyName and contactName are required")
	}
	if !normalize.ValidEmail(sp.Email) {
		return Sponsor{}, apperr.Validation("a valid email is required")
	}

	if doc != nil && len(doc.Data) > 0 {
		url, err := s.storeDocument(ctx, sp.ID, doc)
		if err != nil {
			return Sponsor{}, err
		}
		sp.DocumentURL = url
	}

	if err := s.repo.Insert(ctx, sp); err != nil {
		return Sponsor{}, err
	}
	s.log.Info().Str("sponsor_id", sp.ID).Str("company", sp.CompanyName).Msg("sponsor application received")
	s.notify.SponsorReceived(ctx, sp.CompanyName, sp.ContactName, sp.Email)
	return sp, nil
}

func (s *Service) storeDocument(ctx context.Context, id string, doc *Document) (string, error) {
	if s.documents == nil {
		return "", apperr.Validation("document uploads are not available")
	}
	if len(doc.Data) > maxDocumentBytes {
		return "", apperr.Validation("document must be 10MB or smaller")
	}
	contentType, ok := media.DocumentType(doc.Data)
	if !ok {
		return "", apperr.Validation("document must be a PDF, JPEG or PNG")
	}
	ext := path.Ext(doc.Filename)
	name := slug.Make(strings.TrimSuffix(path.Base(doc.Filename), ext))
	if name == "" {
		name = "document"
	}
	url, err := s.documents.Put(ctx, "sponsors/"+id+"/"+name+strings.ToLower(ext), doc.Data, contentType)
	if err != nil {
		metrics.UploadsFailed.WithLabelValues("documents").Inc()
		s.log.Error().Err(err).Str("sponsor_id", id).Msg("document upload failed")
		return "", apperr.Upstream("document upload failed", err)
	}
	return url, nil
}

func (s *Service) List(ctx context.Context, status string) ([]Sponsor, error) {
	var st Status
	if status != "" {
		var ok bool
		if st, ok = ParseStatus(status); !ok {
			return nil, ErrInvalidStatus
		}
	}
	return s.repo.List(ctx, st)
}

// UpdateStatus moderates an application and tells the contact when the status changes.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (Sponsor, error) {
	st, ok := ParseStatus(status)
	if !ok {
		return Sponsor{}, ErrInvalidStatus
	}
	sp, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sponsor{}, err
	}
	if sp == nil {
		return Sponsor{}, ErrNotFound
	}
	previous := sp.Status
	sp.Status, sp.UpdatedAt = st, s.now()
	if err := s.repo.UpdateStatus(ctx, id, st, sp.UpdatedAt); err != nil {
		return Sponsor{}, err
	}
	if previous != st {
		s.notify.SponsorStatusChanged(ctx, sp.CompanyName, sp.ContactName, sp.Email, string(st))
	}
	return *sp, nil
}
