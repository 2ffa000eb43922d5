package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/users"
	"github.com/campus-events/server/internal/email"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// Mailer is the outbound mail surface the workers need. *email.Service
// satisfies it.
type Mailer interface {
	SendAnnouncement(ctx context.Context, to string, data email.AnnouncementData) error
	SendDecision(ctx context.Context, to string, data email.DecisionData) error
}

// AnnounceEventArgs fans the announcement for an approved event out to every
// active user in its target audience.
type AnnounceEventArgs struct {
	EventULID string `json:"event_ulid"`
}

func (AnnounceEventArgs) Kind() string { return JobKindAnnounceEvent }

func (AnnounceEventArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueEmail, MaxAttempts: AnnouncementMaxAttempts}
}

type AnnounceEventWorker struct {
	river.WorkerDefaults[AnnounceEventArgs]
	Events events.Repository
	Users  users.Repository
	Mailer Mailer
	Logger zerolog.Logger
}

func (AnnounceEventWorker) Kind() string { return JobKindAnnounceEvent }

func (w AnnounceEventWorker) Work(ctx context.Context, job *river.Job[AnnounceEventArgs]) error {
	event, err := w.Events.GetByULID(ctx, job.Args.EventULID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			w.Logger.Warn().Str("event", job.Args.EventULID).Msg("announcement target vanished, dropping job")
			return nil
		}
		return fmt.Errorf("load event: %w", err)
	}
	if event.Status != events.StatusApproved {
		w.Logger.Warn().Str("event", event.ULID).Str("status", event.Status).Msg("event no longer approved, dropping announcement")
		return nil
	}

	recipients, err := w.Users.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	data := email.AnnouncementData{
		EventTitle:  event.Title,
		Date:        event.Date.Format("Monday, 2 January 2006"),
		Time:        event.Time,
		Venue:       event.Venue,
		Description: event.Description,
		Organizer:   event.Organizer.Name,
	}

	var failed []error
	sent := 0
	for _, recipient := range recipients {
		member := events.AudienceMember{Role: recipient.Role, Department: recipient.Department}
		if !events.InAudience(event, member) {
			continue
		}
		if err := w.Mailer.SendAnnouncement(ctx, recipient.Email, data); err != nil {
			w.Logger.Error().Err(err).Str("event", event.ULID).Str("to", recipient.Email).Msg("announcement send failed")
			failed = append(failed, err)
			continue
		}
		sent++
	}

	w.Logger.Info().
		Str("event", event.ULID).
		Int("sent", sent).
		Int("failed", len(failed)).
		Msg("announcement dispatched")
	return errors.Join(failed...)
}

// NotifyOrganizerArgs sends the organizer the review decision for their event.
type NotifyOrganizerArgs struct {
	EventULID string `json:"event_ulid"`
}

func (NotifyOrganizerArgs) Kind() string { return JobKindNotifyOrganizer }

func (NotifyOrganizerArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueEmail, MaxAttempts: DecisionMaxAttempts}
}

type NotifyOrganizerWorker struct {
	river.WorkerDefaults[NotifyOrganizerArgs]
	Events events.Repository
	Mailer Mailer
	Logger zerolog.Logger
}

func (NotifyOrganizerWorker) Kind() string { return JobKindNotifyOrganizer }

func (w NotifyOrganizerWorker) Work(ctx context.Context, job *river.Job[NotifyOrganizerArgs]) error {
	event, err := w.Events.GetByULID(ctx, job.Args.EventULID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			w.Logger.Warn().Str("event", job.Args.EventULID).Msg("decision target vanished, dropping job")
			return nil
		}
		return fmt.Errorf("load event: %w", err)
	}
	if event.Status == events.StatusPending {
		w.Logger.Warn().Str("event", event.ULID).Msg("event still pending, dropping decision notice")
		return nil
	}

	data := email.DecisionData{
		EventTitle: event.Title,
		Approved:   event.Status == events.StatusApproved,
		Reason:     event.RejectionReason,
	}
	if err := w.Mailer.SendDecision(ctx, event.Organizer.Email, data); err != nil {
		return fmt.Errorf("send decision notice: %w", err)
	}
	return nil
}

// NewWorkers registers the full worker set.
func NewWorkers(eventsRepo events.Repository, usersRepo users.Repository, mailer Mailer, logger zerolog.Logger) *river.Workers {
	logger = logger.With().Str("component", "jobs").Logger()
	workers := river.NewWorkers()
	river.AddWorker[AnnounceEventArgs](workers, AnnounceEventWorker{
		Events: eventsRepo,
		Users:  usersRepo,
		Mailer: mailer,
		Logger: logger,
	})
	river.AddWorker[NotifyOrganizerArgs](workers, NotifyOrganizerWorker{
		Events: eventsRepo,
		Mailer: mailer,
		Logger: logger,
	})
	return workers
}
