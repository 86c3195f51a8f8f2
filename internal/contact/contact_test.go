package contact

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"campus/internal/store/storetest"
)

func TestRingKeepsNewest(t *testing.T) {
	ctx := context.Background()
	r := NewRing(100)

	got, _ := r.Recent(ctx, 5)
	if len(got) != 0 {
		t.Fatalf("empty ring returned %d entries", len(got))
	}
	for i := 0; i < 130; i++ {
		_ = r.Record(ctx, Entry{ID: fmt.Sprint(i)})
	}

	all, _ := r.Recent(ctx, 0)
	if len(all) != 100 {
		t.Fatalf("expected 100 entries, got %d", len(all))
	}
	if all[0].ID != "129" || all[99].ID != "30" {
		t.Fatalf("unexpected order: first=%s last=%s", all[0].ID, all[99].ID)
	}
	three, _ := r.Recent(ctx, 3)
	if len(three) != 3 || three[2].ID != "127" {
		t.Fatalf("unexpected recent(3): %+v", three)
	}
}

func TestRingPartiallyFilled(t *testing.T) {
	ctx := context.Background()
	r := NewRing(4)
	for i := 0; i < 2; i++ {
		_ = r.Record(ctx, Entry{ID: fmt.Sprint(i)})
	}
	got, _ := r.Recent(ctx, 10)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "0" {
		t.Fatalf("unexpected entries %+v", got)
	}
}

type brokenLog struct{}

func (brokenLog) Record(context.Context, Entry) error {
	return errors.New("down")
}

func (brokenLog) Recent(context.Context, int) ([]Entry, error) {
	return nil, errors.New("down")
}

type countingNotifier struct{ n int }

func (c *countingNotifier) ContactReceived(context.Context, string, string, string, string) { c.n++ }

func TestSubmitSurvivesLogFailure(t *testing.T) {
	db := storetest.Open(t)
	n := &countingNotifier{}
	svc := NewService(NewRepository(db.Client), brokenLog{}, n, zerolog.Nop())
	ctx := context.Background()

	c, err := svc.Submit(ctx, Submission{Name: "Ann", Email: " Ann@X.com ", Subject: "Hi", Message: "hello"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if c.Email != "ann@x.com" || n.n != 1 {
		t.Fatalf("unexpected contact %+v notifications=%d", c, n.n)
	}
	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %+v %v", list, err)
	}

	if _, err := svc.Submit(ctx, Submission{Name: "Ann", Email: "bad", Message: "x"}); err == nil {
		t.Fatal("expected validation error")
	}
}
