package events

import (
	"context"
	"strings"
	"time"

	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ULID  string
	Name  string
	Email string
	Role  string
}

func (a Actor) snapshot() UserSnapshot {
	return UserSnapshot{ULID: a.ULID, Name: a.Name, Email: a.Email, Role: a.Role}
}

// Notifier schedules the announcement dispatch for a freshly approved event.
// Dispatch is best-effort: enqueue failures are logged by the service and never
// roll back the approval.
type Notifier interface {
	AnnounceApproved(ctx context.Context, eventULID string) error
	// NotifyDecision tells the organizer their proposal was approved or
	// rejected.
	NotifyDecision(ctx context.Context, eventULID string) error
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger.With().Str("component", "events").Logger(),
		now:      time.Now,
	}
}

type ProposeParams struct {
	Title           string
	Description     string
	Date            string // ISO8601 date
	Time            string
	Venue           string
	TargetAudience  []string
	Department      string
	MaxParticipants *int
}

// Propose creates a new event in the pending state.
func (s *Service) Propose(ctx context.Context, organizer Actor, params ProposeParams) (*Event, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(params.Description) == "" {
		return nil, ValidationError{Field: "description", Message: "is required"}
	}
	if strings.TrimSpace(params.Time) == "" {
		return nil, ValidationError{Field: "time", Message: "is required"}
	}
	if strings.TrimSpace(params.Venue) == "" {
		return nil, ValidationError{Field: "venue", Message: "is required"}
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(params.Date))
	if err != nil {
		return nil, ValidationError{Field: "date", Message: "must be ISO8601 date"}
	}
	if DateOnly(date).Before(DateOnly(s.now())) {
		return nil, ValidationError{Field: "date", Message: "must not be in the past"}
	}

	audience, err := NormalizeAudience(params.TargetAudience)
	if err != nil {
		return nil, err
	}

	department := strings.TrimSpace(params.Department)
	if contains(audience, AudienceDepartment) && department == "" {
		return nil, ValidationError{Field: "department", Message: "is required for department-scoped events"}
	}

	if params.MaxParticipants != nil && *params.MaxParticipants <= 0 {
		return nil, ValidationError{Field: "maxParticipants", Message: "must be greater than zero"}
	}

	eventULID, err := ids.NewULID()
	if err != nil {
		return nil, err
	}

	event, err := s.repo.Create(ctx, CreateParams{
		ULID:            eventULID,
		Title:           title,
		Description:     strings.TrimSpace(params.Description),
		Date:            DateOnly(date),
		Time:            strings.TrimSpace(params.Time),
		Venue:           strings.TrimSpace(params.Venue),
		TargetAudience:  audience,
		Department:      department,
		MaxParticipants: params.MaxParticipants,
		Organizer:       organizer.snapshot(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("event", event.ULID).
		Str("organizer", organizer.ULID).
		Msg("event proposed")
	return event, nil
}

func (s *Service) ListApproved(ctx context.Context) ([]Event, error) {
	return s.repo.ListApproved(ctx)
}

func (s *Service) ListByOrganizer(ctx context.Context, organizer Actor) ([]Event, error) {
	return s.repo.ListByOrganizer(ctx, organizer.ULID)
}

func (s *Service) ListPending(ctx context.Context, caller Actor) ([]Event, error) {
	if !auth.IsAdmin(caller.Role) {
		return nil, ErrForbidden
	}
	return s.repo.ListPending(ctx)
}

func (s *Service) Get(ctx context.Context, eventULID string) (*Event, error) {
	return s.repo.GetByULID(ctx, eventULID)
}

// Approve transitions a pending event to approved and schedules the audience
// announcement. Admin only; approved is terminal.
func (s *Service) Approve(ctx context.Context, reviewer Actor, eventULID string) (*Event, error) {
	if !auth.IsAdmin(reviewer.Role) {
		return nil, ErrForbidden
	}

	event, err := s.repo.Review(ctx, ReviewParams{
		EventULID: eventULID,
		Status:    StatusApproved,
		Reviewer:  reviewer.snapshot(),
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.AnnounceApproved(ctx, event.ULID); err != nil {
			s.logger.Error().Err(err).Str("event", event.ULID).Msg("failed to schedule announcement")
		}
		if err := s.notifier.NotifyDecision(ctx, event.ULID); err != nil {
			s.logger.Error().Err(err).Str("event", event.ULID).Msg("failed to schedule decision notice")
		}
	}

	s.logger.Info().
		Str("event", event.ULID).
		Str("reviewer", reviewer.ULID).
		Msg("event approved")
	return event, nil
}

// Reject transitions a pending event to rejected with a reason. Admin only;
// rejected is terminal.
func (s *Service) Reject(ctx context.Context, reviewer Actor, eventULID, reason string) (*Event, error) {
	if !auth.IsAdmin(reviewer.Role) {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ValidationError{Field: "reason", Message: "is required"}
	}

	event, err := s.repo.Review(ctx, ReviewParams{
		EventULID:       eventULID,
		Status:          StatusRejected,
		RejectionReason: reason,
		Reviewer:        reviewer.snapshot(),
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyDecision(ctx, event.ULID); err != nil {
			s.logger.Error().Err(err).Str("event", event.ULID).Msg("failed to schedule decision notice")
		}
	}

	s.logger.Info().
		Str("event", event.ULID).
		Str("reviewer", reviewer.ULID).
		Msg("event rejected")
	return event, nil
}

// Register appends the caller to an approved event's registrant list. The
// repository enforces the guard under a per-event lock.
func (s *Service) Register(ctx context.Context, caller Actor, eventULID string) error {
	registrant := Registrant{
		UserSnapshot: caller.snapshot(),
		RegisteredAt: s.now(),
	}
	if err := s.repo.AddRegistrant(ctx, eventULID, registrant); err != nil {
		return err
	}

	s.logger.Info().
		Str("event", eventULID).
		Str("user", caller.ULID).
		Msg("registration recorded")
	return nil
}

func contains(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
