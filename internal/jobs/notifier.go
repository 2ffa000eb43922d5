package jobs

import (
	"context"
	"fmt"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
)

var _ events.Notifier = (*Notifier)(nil)

// Notifier enqueues notification jobs. It satisfies the events service's
// notifier dependency.
type Notifier struct {
	client *river.Client[pgx.Tx]
}

func NewNotifier(client *river.Client[pgx.Tx]) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) AnnounceApproved(ctx context.Context, eventULID string) error {
	if _, err := n.client.Insert(ctx, AnnounceEventArgs{EventULID: eventULID}, nil); err != nil {
		return fmt.Errorf("enqueue announcement: %w", err)
	}
	return nil
}

func (n *Notifier) NotifyDecision(ctx context.Context, eventULID string) error {
	if _, err := n.client.Insert(ctx, NotifyOrganizerArgs{EventULID: eventULID}, nil); err != nil {
		return fmt.Errorf("enqueue decision notice: %w", err)
	}
	return nil
}
