package blog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"campus/internal/apperr"
	"campus/internal/normalize"
)

// CommentNotifier is the subset of notify.Notifier used on approval.
type CommentNotifier interface {
	CommentApproved(ctx context.Context, name, email, postTitle string)
}

// CommentService creates, threads and moderates comments.
type CommentService struct {
	repo   *Repository
	notify CommentNotifier
	log    zerolog.Logger
	now    func() time.Time
}

func NewCommentService(repo *Repository, notify CommentNotifier, log zerolog.Logger) *CommentService {
	return &CommentService{repo: repo, notify: notify, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// NewComment is the public submission. AuthorID is set for signed-in users.
type NewComment struct {
	Content        string
	ParentID       string
	AuthorID       string
	AnonymousName  string
	AnonymousEmail string
}

func (s *CommentService) publishedPost(ctx context.Context, slug string) (*Post, error) {
	p, err := s.repo.PostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Published {
		return nil, ErrPostNotFound
	}
	return p, nil
}

// Create stores an unapproved comment. A parent must be on the same post; its own depth is not checked.
func (s *CommentService) Create(ctx context.Context, postSlug string, in NewComment) (Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return Comment{}, apperr.Validation("content is required")
	}
	c := Comment{ID: uuid.NewString(), Content: content, AuthorID: in.AuthorID, CreatedAt: s.now()}
	if in.AuthorID == "" {
		c.AnonymousName = strings.TrimSpace(in.AnonymousName)
		c.AnonymousEmail = normalize.Key(in.AnonymousEmail)
		if c.AnonymousName == "" {
			return Comment{}, apperr.Validation("anonymousName is required")
		}
		if !normalize.ValidEmail(c.AnonymousEmail) {
			return Comment{}, apperr.Validation("a valid anonymousEmail is required")
		}
	}

	p, err := s.publishedPost(ctx, postSlug)
	if err != nil {
		return Comment{}, err
	}
	c.PostID = p.ID
	c.PostTitle = p.Title
	if in.ParentID != "" {
		parent, err := s.repo.CommentByID(ctx, in.ParentID)
		if err != nil {
			return Comment{}, err
		}
		if parent == nil {
			return Comment{}, ErrParentNotFound
		}
		if parent.PostID != p.ID {
			return Comment{}, ErrParentMismatch
		}
		c.ParentID = parent.ID
	}

	if err := s.repo.InsertComment(ctx, c); err != nil {
		return Comment{}, err
	}
	s.log.Info().Str("comment_id", c.ID).Str("post_id", p.ID).Msg("comment awaiting moderation")
	return c, nil
}

// Threads returns the approved comments of a published post as reply trees.
func (s *CommentService) Threads(ctx context.Context, postSlug string) ([]*Thread, error) {
	p, err := s.publishedPost(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ApprovedComments(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return buildThreads(list), nil
}

// buildThreads links replies under their parents. Replies whose parent is not in list
// (unapproved or deleted) are dropped so they cannot surface on their own.
func buildThreads(list []Comment) []*Thread {
	nodes := make(map[string]*Thread, len(list))
	for _, c := range list {
		nodes[c.ID] = &Thread{
			ID:         c.ID,
			AuthorName: c.displayName(),
			Content:    c.Content,
			ParentID:   c.ParentID,
			CreatedAt:  c.CreatedAt,
			Replies:    []*Thread{},
		}
	}
	roots := []*Thread{}
	for _, c := range list {
		n := nodes[c.ID]
		if c.ParentID == "" {
			roots = append(roots, n)
			continue
		}
		if parent, ok := nodes[c.ParentID]; ok {
			parent.Replies = append(parent.Replies, n)
		}
	}
	return roots
}

// List filters by "pending", "approved" or "all" (the default).
func (s *CommentService) List(ctx context.Context, status string) ([]Comment, error) {
	var approved *bool
	switch status {
	case "", "all":
	case "pending":
		f := false
		approved = &f
	case "approved":
		t := true
		approved = &t
	default:
		return nil, apperr.Validation("status must be pending, approved or all")
	}
	return s.repo.CommentsByApproval(ctx, approved)
}

// SetApproved moderates a comment. The author is told on false→true; mail failures never undo it.
func (s *CommentService) SetApproved(ctx context.Context, id string, approved bool) (Comment, error) {
	c, err := s.repo.CommentByID(ctx, id)
	if err != nil {
		return Comment{}, err
	}
	if c == nil {
		return Comment{}, ErrCommentNotFound
	}
	was := c.Approved
	if err := s.repo.SetCommentApproved(ctx, id, approved); err != nil {
		return Comment{}, err
	}
	c.Approved = approved
	s.log.Info().Str("comment_id", id).Bool("approved", approved).Msg("comment moderated")
	if !was && approved {
		s.notify.CommentApproved(ctx, c.displayName(), c.contactEmail(), c.PostTitle)
	}
	return *c, nil
}

func (s *CommentService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.DeleteComment(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCommentNotFound
	}
	return nil
}
