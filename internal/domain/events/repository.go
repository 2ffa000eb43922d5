package events

import (
	"context"
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// UserSnapshot is a denormalized copy of a user taken at write time. It is
// never refreshed when the source user record changes.
type UserSnapshot struct {
	ULID  string
	Name  string
	Email string
	Role  string
}

type Registrant struct {
	UserSnapshot
	RegisteredAt time.Time
}

type Event struct {
	ID              string
	ULID            string
	Title           string
	Description     string
	Date            time.Time // date component only, UTC midnight
	Time            string
	Venue           string
	TargetAudience  []string
	Department      string
	MaxParticipants *int
	Organizer       UserSnapshot
	Status          string
	RejectionReason string
	ReviewedBy      *UserSnapshot
	ReviewedAt      *time.Time
	// Registrants is loaded on detail reads; list reads populate only
	// RegistrantCount.
	Registrants     []Registrant
	RegistrantCount int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateParams struct {
	ULID            string
	Title           string
	Description     string
	Date            time.Time
	Time            string
	Venue           string
	TargetAudience  []string
	Department      string
	MaxParticipants *int
	Organizer       UserSnapshot
}

type ReviewParams struct {
	EventULID       string
	Status          string
	RejectionReason string
	Reviewer        UserSnapshot
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Event, error)
	GetByULID(ctx context.Context, ulid string) (*Event, error)
	// ListApproved returns approved events ordered by date ascending.
	ListApproved(ctx context.Context) ([]Event, error)
	// ListPending returns pending events ordered by creation time descending.
	ListPending(ctx context.Context) ([]Event, error)
	// ListByOrganizer returns the organizer's events ordered by creation time descending.
	ListByOrganizer(ctx context.Context, organizerULID string) ([]Event, error)
	// Review transitions a pending event to approved or rejected. Returns
	// ErrNotFound if the event is missing and ErrNotPending if it has already
	// left the pending state.
	Review(ctx context.Context, params ReviewParams) (*Event, error)
	// AddRegistrant appends a registrant under the registration guard. The
	// guard runs with the event row locked so that two concurrent attempts at
	// the last capacity slot cannot both succeed. Returns ErrNotFound,
	// ErrNotApproved, ErrEventPassed, ErrAlreadyRegistered or
	// ErrCapacityReached.
	AddRegistrant(ctx context.Context, eventULID string, registrant Registrant) error
}
