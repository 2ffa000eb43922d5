package users

import (
	"context"
	"net/mail"
	"strings"

	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 6

type Service struct {
	repo        Repository
	tokens      *auth.JWTManager
	emailDomain string
	logger      zerolog.Logger
}

func NewService(repo Repository, tokens *auth.JWTManager, emailDomain string, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		emailDomain: strings.ToLower(strings.TrimSpace(emailDomain)),
		logger:      logger.With().Str("component", "users").Logger(),
	}
}

type RegisterParams struct {
	Email      string
	Password   string
	Name       string
	Role       string
	Department string
}

// Register creates an active user account. Emails are constrained to the
// configured institutional domain.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if len(params.Password) < MinPasswordLength {
		return nil, events.ValidationError{Field: "password", Message: "must be at least 6 characters long"}
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, events.ValidationError{Field: "name", Message: "is required"}
	}
	role := strings.ToLower(strings.TrimSpace(params.Role))
	if !auth.ValidRole(role) {
		return nil, events.ValidationError{Field: "role", Message: "must be one of student, faculty, society, admin"}
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	userULID, err := ids.NewULID()
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, CreateParams{
		ULID:         userULID,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		Department:   strings.TrimSpace(params.Department),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user", user.ULID).Str("role", user.Role).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a signed token. Deactivated accounts
// are refused even with a correct password.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, events.ValidationError{Field: "email", Message: "email and password are required"}
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrNotFound {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, ErrAccountDeactivated
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ULID, user.Role, user.Name, user.Email)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info().Str("user", user.ULID).Msg("login")
	return token, user, nil
}

// Deactivate flips a user's active flag. Admin only; the record is kept.
func (s *Service) Deactivate(ctx context.Context, caller events.Actor, userULID string) error {
	if !auth.IsAdmin(caller.Role) {
		return ErrForbidden
	}
	if _, err := s.repo.GetByULID(ctx, userULID); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, userULID, false); err != nil {
		return err
	}
	s.logger.Info().Str("user", userULID).Str("by", caller.ULID).Msg("user deactivated")
	return nil
}

func (s *Service) validateEmail(email string) error {
	if email == "" {
		return events.ValidationError{Field: "email", Message: "is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return events.ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if s.emailDomain != "" && !strings.HasSuffix(email, "@"+s.emailDomain) {
		return events.ValidationError{Field: "email", Message: "must be a " + s.emailDomain + " address"}
	}
	return nil
}
