// Package user manages accounts and sign-in.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campus/internal/apperr"
	"campus/internal/auth"
	"campus/internal/normalize"
	"campus/internal/store"
)

var (
	ErrEmailTaken         = apperr.New(apperr.KindConflict, "EMAIL_TAKEN", "an account with this email already exists")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrNotFound           = apperr.New(apperr.KindNotFound, "USER_NOT_FOUND", "user not found")
)

const minPasswordLen = 8

// User is an account. PasswordHash never leaves the package in responses.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Repository persists users.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, email, name, password_hash, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var created int64
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &created); err != nil {
		return User{}, err
	}
	u.CreatedAt = store.FromMillis(created)
	return u, nil
}

// ByEmail returns the oldest account for a normalised email.
func (r *Repository) ByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 ORDER BY created_at ASC LIMIT 1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user by email: %w", err)
	}
	return &u, nil
}

// ByID returns a user by id.
func (r *Repository) ByID(ctx context.Context, id string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("user by id: %w", err)
	}
	return &u, nil
}

// Insert writes a new user. It returns store.ErrDuplicate when the email exists.
func (r *Repository) Insert(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, u.ID, u.Email, u.Name, u.PasswordHash, u.Role, store.Millis(u.CreatedAt))
	if store.IsUniqueViolation(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Service handles registration and sign-in.
type Service struct {
	repo   *Repository
	signer auth.Signer
}

func NewService(repo *Repository, signer auth.Signer) *Service {
	return &Service{repo: repo, signer: signer}
}

// Register creates a USER account.
func (s *Service) Register(ctx context.Context, email, name, password string) (User, error) {
	return s.create(ctx, email, name, password, auth.RoleUser)
}

// CreateAdmin creates an ADMIN account; used by the maintenance tool.
func (s *Service) CreateAdmin(ctx context.Context, email, name, password string) (User, error) {
	return s.create(ctx, email, name, password, auth.RoleAdmin)
}

func (s *Service) create(ctx context.Context, email, name, password, role string) (User, error) {
	email = normalize.Key(email)
	if !normalize.ValidEmail(email) {
		return User{}, apperr.Validation("a valid email is required")
	}
	if len(password) < minPasswordLen {
		return User{}, apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	existing, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if existing != nil {
		return User{}, ErrEmailTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

// Login verifies credentials and issues tokens.
func (s *Service) Login(ctx context.Context, email, password string) (User, auth.TokenPair, error) {
	u, err := s.repo.ByEmail(ctx, normalize.Key(email))
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, password) {
		return User{}, auth.TokenPair{}, ErrInvalidCredentials
	}
	tokens, err := s.signer.Issue(u.ID, u.Role, u.Email)
	if err != nil {
		return User{}, auth.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return *u, tokens, nil
}

// Refresh exchanges a refresh token for a new pair, re-reading the role from storage.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.signer.ParseRefresh(refreshToken)
	if err != nil {
		return auth.TokenPair{}, apperr.Wrap(ErrInvalidCredentials, err)
	}
	u, err := s.repo.ByID(ctx, claims.Subject)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if u == nil {
		return auth.TokenPair{}, ErrInvalidCredentials
	}
	return s.signer.Issue(u.ID, u.Role, u.Email)
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.repo.ByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, ErrNotFound
	}
	return *u, nil
}
