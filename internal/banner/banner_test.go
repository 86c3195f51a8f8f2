package banner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"campus/internal/apperr"
	"campus/internal/media"
	"campus/internal/store/storetest"
)

type fakeUploader struct {
	opts []media.UploadOptions
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, _ []byte, opts media.UploadOptions) (*media.UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.opts = append(f.opts, opts)
	return &media.UploadResult{SecureURL: "https://img.example/" + opts.Folder + "/" + opts.PublicID, PublicID: opts.Folder + "/" + opts.PublicID}, nil
}

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func ptr[T any](v T) *T { return &v }

func TestLiveBannersRespectWindowAndOrder(t *testing.T) {
	svc := NewService(NewRepository(storetest.Open(t).Client), nil, zerolog.Nop())
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	create := func(title string, order int, f Fields) {
		t.Helper()
		f.Title, f.ImageURL, f.SortOrder = ptr(title), ptr("https://img.example/"+title), ptr(order)
		if _, err := svc.Create(ctx, f, nil); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	create("second", 2, Fields{})
	create("first", 1, Fields{StartsAt: ptr(now.Add(-time.Hour)), EndsAt: ptr(now.Add(time.Hour))})
	create("future", 0, Fields{StartsAt: ptr(now.Add(time.Hour))})
	create("ended", 0, Fields{EndsAt: ptr(now.Add(-time.Minute))})
	create("off", 0, Fields{IsActive: ptr(false)})

	live, err := svc.Live(ctx)
	if err != nil {
		t.Fatalf("live: %v", err)
	}
	if len(live) != 2 || live[0].Title != "first" || live[1].Title != "second" {
		t.Fatalf("unexpected live banners %+v", live)
	}
	for _, b := range live {
		if !b.Live(now) {
			t.Fatalf("%s should be live", b.Title)
		}
	}
	all, _ := svc.All(ctx)
	if len(all) != 5 {
		t.Fatalf("expected 5 banners, got %d", len(all))
	}
}

func TestCreateWithUpload(t *testing.T) {
	up := &fakeUploader{}
	svc := NewService(NewRepository(storetest.Open(t).Client), up, zerolog.Nop())
	ctx := context.Background()

	b, err := svc.Create(ctx, Fields{Title: ptr("Launch")}, &Image{Filename: "hero.png", Data: png})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(up.opts) != 1 || up.opts[0].Folder != uploadFolder || b.ImagePublicID != "banners/"+b.ID {
		t.Fatalf("unexpected upload %+v %+v", up.opts, b)
	}

	updated, err := svc.Update(ctx, b.ID, Fields{IsActive: ptr(false)}, nil)
	if err != nil || updated.IsActive || updated.ImageURL != b.ImageURL {
		t.Fatalf("update: %+v %v", updated, err)
	}
	if _, err := svc.Update(ctx, "missing", Fields{}, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestCreateRejections(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewRepository(storetest.Open(t).Client), &fakeUploader{err: errors.New("boom")}, zerolog.Nop())

	if _, err := svc.Create(ctx, Fields{Title: ptr("No image")}, nil); apperr.StatusOf(err) != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
	if _, err := svc.Create(ctx, Fields{Title: ptr("Text")}, &Image{Data: []byte("plain text")}); apperr.StatusOf(err) != 400 {
		t.Fatalf("expected 400 for non-image, got %v", err)
	}
	if _, err := svc.Create(ctx, Fields{Title: ptr("Up")}, &Image{Data: png}); apperr.StatusOf(err) != 502 {
		t.Fatalf("expected 502, got %v", err)
	}
}
