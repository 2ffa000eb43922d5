package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("account has been deactivated")
	ErrForbidden          = errors.New("operation not permitted for caller")
)

type User struct {
	ID           string
	ULID         string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Department   string
	IsActive     bool
	CreatedAt    time.Time
}

type CreateParams struct {
	ULID         string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Department   string
}

type Repository interface {
	// Create inserts an active user. Returns ErrEmailTaken when the email is
	// already registered (backed by a unique index).
	Create(ctx context.Context, params CreateParams) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByULID(ctx context.Context, ulid string) (*User, error)
	// ListActive returns all active users; used for audience resolution when
	// dispatching announcements.
	ListActive(ctx context.Context) ([]User, error)
	// SetActive flips the active flag. Users are never hard-deleted.
	SetActive(ctx context.Context, ulid string, active bool) error
}
