package blog

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"campus/internal/metrics"
	"campus/internal/store"
)

// LikeStore is the persistence behind LikeService; *Repository implements it.
type LikeStore interface {
	PostBySlug(ctx context.Context, slug string) (*Post, error)
	HasLike(ctx context.Context, postID string, who Identity) (bool, error)
	AddLike(ctx context.Context, postID string, who Identity, now int64) (int, error)
	RemoveLike(ctx context.Context, postID string, who Identity) (int, bool, error)
	LikeCount(ctx context.Context, postID string) (int, error)
}

// LikeService toggles likes keyed by user or client IP.
type LikeService struct {
	repo LikeStore
	log  zerolog.Logger
	now  func() time.Time
}

func NewLikeService(repo LikeStore, log zerolog.Logger) *LikeService {
	return &LikeService{repo: repo, log: log, now: time.Now}
}

func (s *LikeService) post(ctx context.Context, slug string) (*Post, error) {
	p, err := s.repo.PostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPostNotFound
	}
	return p, nil
}

// Status reports the current like state without mutating it.
func (s *LikeService) Status(ctx context.Context, slug string, who Identity) (LikeState, error) {
	p, err := s.post(ctx, slug)
	if err != nil {
		return LikeState{}, err
	}
	liked, err := s.repo.HasLike(ctx, p.ID, who)
	if err != nil {
		return LikeState{}, err
	}
	return LikeState{Liked: liked, Likes: p.Likes}, nil
}

// Toggle flips the like for who. Losing a race to a concurrent toggle by the same identity
// resolves to the state that toggle produced instead of failing.
func (s *LikeService) Toggle(ctx context.Context, slug string, who Identity) (LikeState, error) {
	p, err := s.post(ctx, slug)
	if err != nil {
		return LikeState{}, err
	}
	liked, err := s.repo.HasLike(ctx, p.ID, who)
	if err != nil {
		return LikeState{}, err
	}

	if liked {
		likes, removed, err := s.repo.RemoveLike(ctx, p.ID, who)
		if err != nil {
			return LikeState{}, err
		}
		if !removed {
			return s.current(ctx, p.ID, false)
		}
		metrics.LikeToggles.WithLabelValues("unliked").Inc()
		return LikeState{Liked: false, Likes: likes}, nil
	}

	likes, err := s.repo.AddLike(ctx, p.ID, who, store.Millis(s.now()))
	if errors.Is(err, store.ErrDuplicate) {
		s.log.Debug().Str("post_id", p.ID).Msg("concurrent like resolved")
		return s.current(ctx, p.ID, true)
	}
	if err != nil {
		return LikeState{}, err
	}
	metrics.LikeToggles.WithLabelValues("liked").Inc()
	return LikeState{Liked: true, Likes: likes}, nil
}

func (s *LikeService) current(ctx context.Context, postID string, liked bool) (LikeState, error) {
	likes, err := s.repo.LikeCount(ctx, postID)
	if err != nil {
		return LikeState{}, err
	}
	return LikeState{Liked: liked, Likes: likes}, nil
}
