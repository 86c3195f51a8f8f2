package blog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"campus/internal/apperr"
	"campus/internal/store"
)

// PostService manages posts and categories.
type PostService struct {
	repo *Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewPostService(repo *Repository, log zerolog.Logger) *PostService {
	return &PostService{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (s *PostService) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.Categories(ctx)
}

// CreateCategory derives the slug from the name.
func (s *PostService) CreateCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, apperr.Validation("name is required")
	}
	c := Category{ID: uuid.NewString(), Name: name, Slug: slug.Make(name), CreatedAt: s.now()}
	if c.Slug == "" {
		return Category{}, apperr.Validation("name must contain letters or digits")
	}
	if err := s.repo.InsertCategory(ctx, c); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return Category{}, ErrSlugTaken
		}
		return Category{}, err
	}
	return c, nil
}

func (s *PostService) DeleteCategory(ctx context.Context, id string) error {
	ok, err := s.repo.DeleteCategory(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCategoryNotFound
	}
	return nil
}

// Published lists published posts, optionally within a category slug.
func (s *PostService) Published(ctx context.Context, category string, limit, offset int) ([]Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPosts(ctx, PostFilter{PublishedOnly: true, CategorySlug: category, Limit: limit, Offset: offset})
}

// All lists every post for admins.
func (s *PostService) All(ctx context.Context) ([]Post, error) {
	return s.repo.ListPosts(ctx, PostFilter{})
}

// PublishedBySlug hides drafts from the public.
func (s *PostService) PublishedBySlug(ctx context.Context, slug string) (Post, error) {
	p, err := s.repo.PostBySlug(ctx, slug)
	if err != nil {
		return Post{}, err
	}
	if p == nil || !p.Published {
		return Post{}, ErrPostNotFound
	}
	return *p, nil
}

// PostInput carries admin-editable fields. An empty Slug is derived from Title.
type PostInput struct {
	Title      string
	Slug       string
	Excerpt    string
	Content    string
	CoverImage string
	CategoryID string
	Published  bool
}

func (s *PostService) prepare(ctx context.Context, in PostInput) (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, apperr.Validation("title is required")
	}
	if strings.TrimSpace(in.Slug) != "" {
		in.Slug = slug.Make(in.Slug)
	} else {
		in.Slug = slug.Make(in.Title)
	}
	if in.Slug == "" {
		return in, apperr.Validation("title must contain letters or digits")
	}
	if in.CategoryID != "" {
		ok, err := s.repo.CategoryExists(ctx, in.CategoryID)
		if err != nil {
			return in, err
		}
		if !ok {
			return in, ErrCategoryNotFound
		}
	}
	return in, nil
}

func (s *PostService) Create(ctx context.Context, in PostInput, authorID string) (Post, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return Post{}, err
	}
	now := s.now()
	p := Post{
		ID:         uuid.NewString(),
		Title:      in.Title,
		Slug:       in.Slug,
		Excerpt:    in.Excerpt,
		Content:    in.Content,
		CoverImage: in.CoverImage,
		CategoryID: in.CategoryID,
		AuthorID:   authorID,
		Published:  in.Published,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertPost(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return Post{}, ErrSlugTaken
		}
		return Post{}, err
	}
	s.log.Info().Str("post_id", p.ID).Str("slug", p.Slug).Msg("post created")
	return s.get(ctx, p.ID)
}

func (s *PostService) Update(ctx context.Context, id string, in PostInput) (Post, error) {
	existing, err := s.repo.PostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if existing == nil {
		return Post{}, ErrPostNotFound
	}
	if in, err = s.prepare(ctx, in); err != nil {
		return Post{}, err
	}
	p := *existing
	p.Title, p.Slug, p.Excerpt, p.Content = in.Title, in.Slug, in.Excerpt, in.Content
	p.CoverImage, p.CategoryID, p.Published = in.CoverImage, in.CategoryID, in.Published
	p.UpdatedAt = s.now()
	if err := s.repo.UpdatePost(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return Post{}, ErrSlugTaken
		}
		return Post{}, err
	}
	return s.get(ctx, id)
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPostNotFound
	}
	return nil
}

func (s *PostService) get(ctx context.Context, id string) (Post, error) {
	p, err := s.repo.PostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}
	if p == nil {
		return Post{}, ErrPostNotFound
	}
	return *p, nil
}
