package sponsor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"campus/internal/apperr"
	"campus/internal/store/storetest"
)

type memDocs struct {
	keys []string
	err  error
}

func (m *memDocs) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "https://files.example/" + key, nil
}

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) SponsorReceived(_ context.Context, company, _, _ string) {
	r.events = append(r.events, "received:"+company)
}

func (r *recordingNotifier) SponsorStatusChanged(_ context.Context, company, _, _, status string) {
	r.events = append(r.events, status+":"+company)
}

var pdf = []byte("%PDF-1.4\n%test document\n")

func newService(t *testing.T, docs *memDocs) (*Service, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	repo := NewRepository(storetest.Open(t).Client)
	if docs == nil {
		return NewService(repo, nil, n, zerolog.Nop()), n
	}
	return NewService(repo, docs, n, zerolog.Nop()), n
}

func TestApplyWithDocument(t *testing.T) {
	docs := &memDocs{}
	svc, n := newService(t, docs)
	ctx := context.Background()

	sp, err := svc.Apply(ctx, Application{CompanyName: "Acme", ContactName: "Wile", Email: "W@Acme.io"},
		&Document{Filename: "Sponsor Deck.PDF", Data: pdf})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := "sponsors/" + sp.ID + "/sponsor-deck.pdf"
	if len(docs.keys) != 1 || docs.keys[0] != want {
		t.Fatalf("unexpected keys %v", docs.keys)
	}
	if sp.DocumentURL != "https://files.example/"+want || sp.Status != StatusPending || sp.Email != "w@acme.io" {
		t.Fatalf("unexpected sponsor %+v", sp)
	}

	if _, err := svc.UpdateStatus(ctx, sp.ID, "APPROVED"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, sp.ID, "APPROVED"); err != nil {
		t.Fatalf("approve again: %v", err)
	}
	if len(n.events) != 2 || n.events[1] != "APPROVED:Acme" {
		t.Fatalf("unexpected notifications %v", n.events)
	}

	approved, err := svc.List(ctx, "APPROVED")
	if err != nil || len(approved) != 1 {
		t.Fatalf("list: %+v %v", approved, err)
	}
}

func TestApplyRejectsBadDocuments(t *testing.T) {
	ctx := context.Background()
	app := Application{CompanyName: "Acme", ContactName: "Wile", Email: "w@acme.io"}

	svc, _ := newService(t, &memDocs{})
	if _, err := svc.Apply(ctx, app, &Document{Filename: "x.exe", Data: []byte{0x4d, 0x5a, 0x90, 0x00}}); apperr.StatusOf(err) != 400 {
		t.Fatalf("expected 400 for unsupported type, got %v", err)
	}

	svc, _ = newService(t, &memDocs{err: errors.New("s3 down")})
	if _, err := svc.Apply(ctx, app, &Document{Filename: "deck.pdf", Data: pdf}); apperr.StatusOf(err) != 502 {
		t.Fatalf("expected 502 on upload failure, got %v", err)
	}

	svc, _ = newService(t, nil)
	if _, err := svc.Apply(ctx, app, &Document{Filename: "deck.pdf", Data: pdf}); apperr.StatusOf(err) != 400 {
		t.Fatalf("expected 400 without document store, got %v", err)
	}
	if _, err := svc.Apply(ctx, app, nil); err != nil {
		t.Fatalf("apply without document: %v", err)
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()
	if _, err := svc.UpdateStatus(ctx, "x", "WAITLISTED"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "x", "REJECTED"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
