package user

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campus/internal/apperr"
	"campus/internal/auth"
	"campus/internal/store"
	"campus/internal/store/storetest"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db := storetest.Open(t)
	signer := auth.Signer{Key: "k", Issuer: "campus", AccessTTL: time.Minute, RefreshTTL: time.Hour}
	return NewService(NewRepository(db.Client), signer)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Ada@Example.COM ", "Ada", "password-1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "ada@example.com" || u.Role != auth.RoleUser {
		t.Fatalf("unexpected user %+v", u)
	}

	if _, err := svc.Register(ctx, "ada@example.com", "Ada again", "password-2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, tokens, err := svc.Login(ctx, "ADA@example.com", "password-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != u.ID || tokens.AccessToken == "" {
		t.Fatalf("unexpected login result %+v", got)
	}

	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	refreshed, err := svc.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatal("expected new access token")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tests := []struct {
		email, password string
	}{
		{"not-an-email", "password-1"},
		{"a@x.com", "short"},
		{"Ann <a@x.com>", "password-1"},
	}
	for _, tt := range tests {
		_, err := svc.Register(ctx, tt.email, "n", tt.password)
		if apperr.StatusOf(err) != 400 {
			t.Fatalf("register(%q): expected 400, got %v", tt.email, err)
		}
	}
}

func TestCreateAdmin(t *testing.T) {
	svc := newService(t)
	u, err := svc.CreateAdmin(context.Background(), "root@campus.local", "Root", "password-1")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if u.Role != auth.RoleAdmin {
		t.Fatalf("role = %q", u.Role)
	}
	got, err := svc.Get(context.Background(), u.ID)
	if err != nil || got.Email != "root@campus.local" {
		t.Fatalf("get: %+v %v", got, err)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRepositoryRejectsDuplicateEmail(t *testing.T) {
	db := storetest.Open(t)
	repo := NewRepository(db.Client)
	ctx := context.Background()

	u := User{ID: "u1", Email: "dup@x.com", Role: auth.RoleUser, CreatedAt: time.Now()}
	if err := repo.Insert(ctx, u); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	u.ID = "u2"
	if err := repo.Insert(ctx, u); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("second insert err = %v, want store.ErrDuplicate", err)
	}
}

func TestConcurrentRegisterCreatesOneAccount(t *testing.T) {
	db := storetest.Open(t)
	signer := auth.Signer{Key: "k", Issuer: "campus", AccessTTL: time.Minute, RefreshTTL: time.Hour}
	svc := NewService(NewRepository(db.Client), signer)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, "dup@x.com", "Dup", "password-1")
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case !errors.Is(err, ErrEmailTaken):
			t.Fatalf("unexpected error %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("created %d accounts, want 1", created)
	}
	var rows int
	if err := db.Client.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = $1`, "dup@x.com").Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
}
