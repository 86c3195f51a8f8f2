package banner

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"campus/internal/apperr"
	"campus/internal/media"
	"campus/internal/metrics"
)

const uploadFolder = "banners"

type Service struct {
	repo     *Repository
	uploader media.Uploader
	log      zerolog.Logger
	now      func() time.Time
}

// NewService accepts a nil uploader when image hosting is not configured.
func NewService(repo *Repository, uploader media.Uploader, log zerolog.Logger) *Service {
	return &Service{repo: repo, uploader: uploader, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Image is an uploaded file.
type Image struct {
	Filename string
	Data     []byte
}

// Fields are the editable banner attributes; nil leaves a value unchanged on update.
type Fields struct {
	Title     *string
	Subtitle  *string
	ImageURL  *string
	LinkURL   *string
	IsActive  *bool
	SortOrder *int
	StartsAt  *time.Time
	EndsAt    *time.Time
}

func (f Fields) apply(b *Banner) {
	if f.Title != nil {
		b.Title = strings.TrimSpace(*f.Title)
	}
	if f.Subtitle != nil {
		b.Subtitle = strings.TrimSpace(*f.Subtitle)
	}
	if f.ImageURL != nil {
		b.ImageURL, b.ImagePublicID = strings.TrimSpace(*f.ImageURL), ""
	}
	if f.LinkURL != nil {
		b.LinkURL = strings.TrimSpace(*f.LinkURL)
	}
	if f.IsActive != nil {
		b.IsActive = *f.IsActive
	}
	if f.SortOrder != nil {
		b.SortOrder = *f.SortOrder
	}
	if f.StartsAt != nil {
		t := f.StartsAt.UTC()
		b.StartsAt = &t
	}
	if f.EndsAt != nil {
		t := f.EndsAt.UTC()
		b.EndsAt = &t
	}
}

func validate(b Banner) error {
	if b.Title == "" {
		return apperr.Validation("title is required")
	}
	if b.ImageURL == "" {
		return apperr.Validation("an image file or imageUrl is required")
	}
	if b.StartsAt != nil && b.EndsAt != nil && b.EndsAt.Before(*b.StartsAt) {
		return apperr.Validation("endsAt must not be before startsAt")
	}
	return nil
}

func (s *Service) upload(ctx context.Context, b *Banner, img *Image) error {
	if img == nil || len(img.Data) == 0 {
		return nil
	}
	if s.uploader == nil {
		return apperr.Validation("image uploads are not available")
	}
	if !media.IsImage(img.Data) {
		return apperr.Validation("image must be a JPEG, PNG, GIF or WebP file")
	}
	res, err := s.uploader.Upload(ctx, img.Data, media.UploadOptions{Folder: uploadFolder, PublicID: b.ID, Filename: img.Filename})
	if err != nil {
		metrics.UploadsFailed.WithLabelValues("images").Inc()
		s.log.Error().Err(err).Str("banner_id", b.ID).Msg("banner image upload failed")
		return apperr.Upstream("image upload failed", err)
	}
	b.ImageURL, b.ImagePublicID = res.SecureURL, res.PublicID
	return nil
}

// Create stores a banner; an attached image replaces any imageUrl field.
func (s *Service) Create(ctx context.Context, f Fields, img *Image) (Banner, error) {
	now := s.now()
	b := Banner{ID: uuid.NewString(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	f.apply(&b)
	if err := s.upload(ctx, &b, img); err != nil {
		return Banner{}, err
	}
	if err := validate(b); err != nil {
		return Banner{}, err
	}
	if err := s.repo.Insert(ctx, b); err != nil {
		return Banner{}, err
	}
	return b, nil
}

func (s *Service) Update(ctx context.Context, id string, f Fields, img *Image) (Banner, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Banner{}, err
	}
	if existing == nil {
		return Banner{}, ErrNotFound
	}
	b := *existing
	f.apply(&b)
	if err := s.upload(ctx, &b, img); err != nil {
		return Banner{}, err
	}
	if err := validate(b); err != nil {
		return Banner{}, err
	}
	b.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, b); err != nil {
		return Banner{}, err
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) All(ctx context.Context) ([]Banner, error) {
	return s.repo.List(ctx)
}

// Live returns the banners to show right now.
func (s *Service) Live(ctx context.Context) ([]Banner, error) {
	return s.repo.Live(ctx, s.now())
}
