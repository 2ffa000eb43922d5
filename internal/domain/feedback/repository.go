package feedback

import (
	"context"
	"errors"
	"time"

	"github.com/campus-events/server/internal/domain/events"
)

var ErrAlreadySubmitted = errors.New("feedback already submitted for this event")

type Feedback struct {
	ID        string
	ULID      string
	EventULID string
	User      events.UserSnapshot
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type CreateParams struct {
	ULID      string
	EventULID string
	User      events.UserSnapshot
	Rating    int
	Comment   string
}

type Repository interface {
	// Create inserts a feedback row. The store enforces at most one row per
	// (event, user) pair and returns ErrAlreadySubmitted on violation, even
	// when two submissions race.
	Create(ctx context.Context, params CreateParams) (*Feedback, error)
	// ListByEvent returns feedback for an event, newest first.
	ListByEvent(ctx context.Context, eventULID string) ([]Feedback, error)
}
