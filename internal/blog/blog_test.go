package blog

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"campus/internal/store/storetest"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(storetest.Open(t).Client)
}

func seedPost(t *testing.T, repo *Repository, title string, published bool) Post {
	t.Helper()
	svc := NewPostService(repo, zerolog.Nop())
	p, err := svc.Create(context.Background(), PostInput{Title: title, Content: "body", Published: published}, "")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestPostSlugsAndVisibility(t *testing.T) {
	repo := newRepo(t)
	svc := NewPostService(repo, zerolog.Nop())
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, "Go Tips")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if cat.Slug != "go-tips" {
		t.Fatalf("slug = %q", cat.Slug)
	}
	if _, err := svc.CreateCategory(ctx, "go tips"); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected slug taken, got %v", err)
	}

	p, err := svc.Create(ctx, PostInput{Title: "Hello World", CategoryID: cat.ID, Published: true}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Slug != "hello-world" || p.CategoryName != "Go Tips" {
		t.Fatalf("unexpected post %+v", p)
	}
	if _, err := svc.Create(ctx, PostInput{Title: "Hello, World!"}, ""); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("expected slug taken, got %v", err)
	}
	if _, err := svc.Create(ctx, PostInput{Title: "Orphan", CategoryID: "nope"}, ""); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected category not found, got %v", err)
	}
	draft := seedPost(t, repo, "Draft", false)

	list, err := svc.Published(ctx, "go-tips", 0, 0)
	if err != nil || len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("published list: %+v %v", list, err)
	}
	if _, err := svc.PublishedBySlug(ctx, draft.Slug); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("draft should be hidden, got %v", err)
	}
	all, err := svc.All(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("all: %d %v", len(all), err)
	}

	if err := svc.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	got, err := svc.PublishedBySlug(ctx, "hello-world")
	if err != nil || got.CategoryID != "" {
		t.Fatalf("post should survive without category: %+v %v", got, err)
	}
}

func TestLikeToggleFromSameIP(t *testing.T) {
	repo := newRepo(t)
	p := seedPost(t, repo, "Liked", true)
	svc := NewLikeService(repo, zerolog.Nop())
	ctx := context.Background()
	anon := Identity{IP: "1.2.3.4"}

	first, err := svc.Toggle(ctx, p.Slug, anon)
	if err != nil || first != (LikeState{Liked: true, Likes: 1}) {
		t.Fatalf("first toggle: %+v %v", first, err)
	}
	status, err := svc.Status(ctx, p.Slug, anon)
	if err != nil || status != first {
		t.Fatalf("status: %+v %v", status, err)
	}
	second, err := svc.Toggle(ctx, p.Slug, anon)
	if err != nil || second != (LikeState{Liked: false, Likes: 0}) {
		t.Fatalf("second toggle: %+v %v", second, err)
	}
}

func TestLikeIdentitiesAreIndependent(t *testing.T) {
	repo := newRepo(t)
	p := seedPost(t, repo, "Shared", true)
	ctx := context.Background()
	if _, err := repo.db.ExecContext(ctx, `INSERT INTO users (id, email, created_at) VALUES ('u1', 'u@x.com', 0)`); err != nil {
		t.Fatal(err)
	}
	svc := NewLikeService(repo, zerolog.Nop())

	if _, err := svc.Toggle(ctx, p.Slug, Identity{IP: "9.9.9.9"}); err != nil {
		t.Fatal(err)
	}
	got, err := svc.Toggle(ctx, p.Slug, Identity{UserID: "u1"})
	if err != nil || got != (LikeState{Liked: true, Likes: 2}) {
		t.Fatalf("user like: %+v %v", got, err)
	}
	st, err := svc.Status(ctx, p.Slug, Identity{IP: "8.8.8.8"})
	if err != nil || st.Liked || st.Likes != 2 {
		t.Fatalf("other ip status: %+v %v", st, err)
	}
	if _, err := svc.Toggle(ctx, "missing", Identity{IP: "9.9.9.9"}); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// staleLikes answers the existence check with a fixed value so the write races the real state.
type staleLikes struct {
	*Repository
	liked bool
}

func (s staleLikes) HasLike(context.Context, string, Identity) (bool, error) {
	return s.liked, nil
}

func TestLikeRacesResolveToCurrentState(t *testing.T) {
	repo := newRepo(t)
	p := seedPost(t, repo, "Racy", true)
	ctx := context.Background()
	who := Identity{IP: "5.5.5.5"}

	if _, err := NewLikeService(repo, zerolog.Nop()).Toggle(ctx, p.Slug, who); err != nil {
		t.Fatal(err)
	}

	// a second insert for the same identity hits the unique index
	got, err := NewLikeService(staleLikes{repo, false}, zerolog.Nop()).Toggle(ctx, p.Slug, who)
	if err != nil || got != (LikeState{Liked: true, Likes: 1}) {
		t.Fatalf("duplicate insert: %+v %v", got, err)
	}

	other := Identity{IP: "6.6.6.6"}
	got, err = NewLikeService(staleLikes{repo, true}, zerolog.Nop()).Toggle(ctx, p.Slug, other)
	if err != nil || got != (LikeState{Liked: false, Likes: 1}) {
		t.Fatalf("vanished like: %+v %v", got, err)
	}
}

type recordingNotifier struct {
	calls []string
}

func (r *recordingNotifier) CommentApproved(_ context.Context, name, email, title string) {
	r.calls = append(r.calls, name+"|"+email+"|"+title)
}

func TestCommentModerationAndThreads(t *testing.T) {
	repo := newRepo(t)
	p := seedPost(t, repo, "Threads", true)
	other := seedPost(t, repo, "Other", true)
	n := &recordingNotifier{}
	svc := NewCommentService(repo, n, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Create(ctx, p.Slug, NewComment{Content: "hi", AnonymousName: "Bo"}); err == nil {
		t.Fatal("expected anonymous email to be required")
	}

	root, err := svc.Create(ctx, p.Slug, NewComment{Content: "root", AnonymousName: "Bo", AnonymousEmail: "Bo@X.com"})
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	if root.Approved {
		t.Fatal("comments must start unapproved")
	}
	threads, err := svc.Threads(ctx, p.Slug)
	if err != nil || len(threads) != 0 {
		t.Fatalf("unapproved comment visible: %+v %v", threads, err)
	}

	reply, err := svc.Create(ctx, p.Slug, NewComment{Content: "reply", ParentID: root.ID, AnonymousName: "Cy", AnonymousEmail: "cy@x.com"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	// depth is not enforced: a reply to a reply is stored and shown under its parent
	nested, err := svc.Create(ctx, p.Slug, NewComment{Content: "nested", ParentID: reply.ID, AnonymousName: "Di", AnonymousEmail: "di@x.com"})
	if err != nil {
		t.Fatalf("nested reply: %v", err)
	}
	if _, err := svc.Create(ctx, other.Slug, NewComment{Content: "x", ParentID: root.ID, AnonymousName: "E", AnonymousEmail: "e@x.com"}); !errors.Is(err, ErrParentMismatch) {
		t.Fatalf("expected parent mismatch, got %v", err)
	}
	if _, err := svc.Create(ctx, p.Slug, NewComment{Content: "x", ParentID: "missing", AnonymousName: "E", AnonymousEmail: "e@x.com"}); !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("expected parent not found, got %v", err)
	}

	for _, id := range []string{reply.ID, nested.ID} {
		if _, err := svc.SetApproved(ctx, id, true); err != nil {
			t.Fatalf("approve %s: %v", id, err)
		}
	}
	threads, _ = svc.Threads(ctx, p.Slug)
	if len(threads) != 0 {
		t.Fatalf("replies must not surface without their parent: %+v", threads)
	}

	if _, err := svc.SetApproved(ctx, root.ID, true); err != nil {
		t.Fatalf("approve root: %v", err)
	}
	threads, _ = svc.Threads(ctx, p.Slug)
	if len(threads) != 1 || len(threads[0].Replies) != 1 || len(threads[0].Replies[0].Replies) != 1 {
		t.Fatalf("unexpected tree %+v", threads)
	}
	if threads[0].Replies[0].Replies[0].Content != "nested" {
		t.Fatalf("unexpected nested content %q", threads[0].Replies[0].Replies[0].Content)
	}

	// re-approving is not a false→true transition
	if _, err := svc.SetApproved(ctx, root.ID, true); err != nil {
		t.Fatal(err)
	}
	if len(n.calls) != 3 || n.calls[2] != "Bo|bo@x.com|Threads" {
		t.Fatalf("unexpected notifications %v", n.calls)
	}

	pending, err := svc.List(ctx, "pending")
	if err != nil || len(pending) != 0 {
		t.Fatalf("pending: %+v %v", pending, err)
	}
	if err := svc.Delete(ctx, root.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	all, _ := svc.List(ctx, "all")
	if len(all) != 0 {
		t.Fatalf("replies should cascade with parent, got %d", len(all))
	}
}

func TestRegisteredCommentNotifiesAccountEmail(t *testing.T) {
	repo := newRepo(t)
	p := seedPost(t, repo, "Members", true)
	ctx := context.Background()
	if _, err := repo.db.ExecContext(ctx, `INSERT INTO users (id, email, name, created_at) VALUES ('u1', 'ann@x.com', 'Ann', 0)`); err != nil {
		t.Fatal(err)
	}
	n := &recordingNotifier{}
	svc := NewCommentService(repo, n, zerolog.Nop())

	c, err := svc.Create(ctx, p.Slug, NewComment{Content: "hello", AuthorID: "u1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetApproved(ctx, c.ID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(n.calls) != 1 || n.calls[0] != "Ann|ann@x.com|Members" {
		t.Fatalf("unexpected notifications %v", n.calls)
	}
}
