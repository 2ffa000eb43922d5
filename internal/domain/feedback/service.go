package feedback

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	events events.Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, eventsRepo events.Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: eventsRepo,
		logger: logger.With().Str("component", "feedback").Logger(),
		now:    time.Now,
	}
}

// Submit records post-event feedback. Only a registrant may submit, only after
// the event date has passed, and only once per event.
func (s *Service) Submit(ctx context.Context, caller events.Actor, eventULID string, rating int, comment string) (*Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, events.ValidationError{Field: "rating", Message: "must be an integer between 1 and 5"}
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, events.ValidationError{Field: "comment", Message: "is required"}
	}

	event, err := s.events.GetByULID(ctx, eventULID)
	if err != nil {
		return nil, err
	}
	if err := events.CheckFeedback(event, caller.ULID, s.now()); err != nil {
		return nil, err
	}

	feedbackULID, err := ids.NewULID()
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, CreateParams{
		ULID:      feedbackULID,
		EventULID: event.ULID,
		User: events.UserSnapshot{
			ULID:  caller.ULID,
			Name:  caller.Name,
			Email: caller.Email,
			Role:  caller.Role,
		},
		Rating:  rating,
		Comment: comment,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("event", event.ULID).
		Str("user", caller.ULID).
		Int("rating", rating).
		Msg("feedback submitted")
	return created, nil
}

// Summary is the feedback listing for an event with its aggregate rating.
type Summary struct {
	Items         []Feedback
	AverageRating float64
	Total         int
}

func (s *Service) ForEvent(ctx context.Context, eventULID string) (*Summary, error) {
	event, err := s.events.GetByULID(ctx, eventULID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListByEvent(ctx, event.ULID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Items: items, Total: len(items)}
	if len(items) > 0 {
		total := 0
		for _, item := range items {
			total += item.Rating
		}
		average := float64(total) / float64(len(items))
		summary.AverageRating = math.Round(average*100) / 100
	}
	return summary, nil
}
