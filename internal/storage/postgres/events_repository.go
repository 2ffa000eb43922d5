package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `e.id, e.ulid, e.title, e.description, e.date, e.time, e.venue,
	e.target_audience, e.department, e.max_participants,
	e.organizer_ulid, e.organizer_name, e.organizer_email, e.organizer_role,
	e.status, e.rejection_reason,
	e.reviewer_ulid, e.reviewer_name, e.reviewer_email, e.reviewer_role, e.reviewed_at,
	e.created_at, e.updated_at,
	(SELECT count(*) FROM event_registrations r WHERE r.event_id = e.id)`

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO events AS e (
	id, ulid, title, description, date, time, venue, target_audience, department,
	max_participants, organizer_ulid, organizer_name, organizer_email, organizer_role
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING `+eventColumns+`
`,
		uuid.NewString(),
		params.ULID,
		params.Title,
		params.Description,
		params.Date,
		params.Time,
		params.Venue,
		params.TargetAudience,
		nullableString(params.Department),
		params.MaxParticipants,
		params.Organizer.ULID,
		params.Organizer.Name,
		params.Organizer.Email,
		params.Organizer.Role,
	)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) GetByULID(ctx context.Context, ulid string) (*events.Event, error) {
	q := r.queryer()

	row := q.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.ulid = $1`, ulid)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	registrants, err := loadRegistrants(ctx, q, event.ID)
	if err != nil {
		return nil, err
	}
	event.Registrants = registrants
	event.RegistrantCount = len(registrants)
	return event, nil
}

func (r *EventRepository) ListApproved(ctx context.Context) ([]events.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.status = $1 ORDER BY e.date, e.created_at`, events.StatusApproved)
}

func (r *EventRepository) ListPending(ctx context.Context) ([]events.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.status = $1 ORDER BY e.created_at DESC`, events.StatusPending)
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerULID string) ([]events.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.organizer_ulid = $1 ORDER BY e.created_at DESC`, organizerULID)
}

func (r *EventRepository) list(ctx context.Context, sql string, args ...any) ([]events.Event, error) {
	rows, err := r.queryer().Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var items []events.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) Review(ctx context.Context, params events.ReviewParams) (*events.Event, error) {
	q := r.queryer()

	// Conditional update: the WHERE clause enforces the pending-only transition
	// atomically, so a racing second review sees zero rows.
	row := q.QueryRow(ctx, `
UPDATE events e SET
	status = $2,
	rejection_reason = $3,
	reviewer_ulid = $4,
	reviewer_name = $5,
	reviewer_email = $6,
	reviewer_role = $7,
	reviewed_at = now(),
	updated_at = now()
WHERE e.ulid = $1 AND e.status = $8
RETURNING `+eventColumns+`
`,
		params.EventULID,
		params.Status,
		nullableString(params.RejectionReason),
		params.Reviewer.ULID,
		params.Reviewer.Name,
		params.Reviewer.Email,
		params.Reviewer.Role,
		events.StatusPending,
	)

	event, err := scanEvent(row)
	if err == nil {
		return event, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("review event: %w", err)
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE ulid = $1)`, params.EventULID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("review event: %w", err)
	}
	if !exists {
		return nil, events.ErrNotFound
	}
	return nil, events.ErrNotPending
}

func (r *EventRepository) AddRegistrant(ctx context.Context, eventULID string, registrant events.Registrant) error {
	return r.repo.WithTx(ctx, func(ctx context.Context, txRepo *Repository) error {
		return addRegistrant(ctx, txRepo.tx, eventULID, registrant)
	})
}

// addRegistrant locks the event row, re-runs the registration guard against the
// locked state and appends the registrant. The lock serializes concurrent
// registrations for the same event; the table's primary key backstops the
// duplicate check.
func addRegistrant(ctx context.Context, tx pgx.Tx, eventULID string, registrant events.Registrant) error {
	row := tx.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.ulid = $1 FOR UPDATE OF e`, eventULID)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.ErrNotFound
		}
		return fmt.Errorf("lock event: %w", err)
	}

	registrants, err := loadRegistrants(ctx, tx, event.ID)
	if err != nil {
		return err
	}
	event.Registrants = registrants

	if err := events.CheckRegistration(event, registrant.ULID, registrant.RegisteredAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO event_registrations (event_id, user_ulid, user_name, user_email, user_role, registered_at)
VALUES ($1, $2, $3, $4, $5, $6)
`,
		event.ID,
		registrant.ULID,
		registrant.Name,
		registrant.Email,
		registrant.Role,
		registrant.RegisteredAt,
	); err != nil {
		if isUniqueViolation(err, "event_registrations_pkey") {
			return events.ErrAlreadyRegistered
		}
		return fmt.Errorf("add registrant: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE events SET updated_at = now() WHERE id = $1`, event.ID); err != nil {
		return fmt.Errorf("touch event: %w", err)
	}
	return nil
}

func loadRegistrants(ctx context.Context, q queryer, eventID string) ([]events.Registrant, error) {
	rows, err := q.Query(ctx, `
SELECT user_ulid, user_name, user_email, user_role, registered_at
FROM event_registrations
WHERE event_id = $1
ORDER BY registered_at
`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrants: %w", err)
	}
	defer rows.Close()

	var items []events.Registrant
	for rows.Next() {
		var registrant events.Registrant
		if err := rows.Scan(
			&registrant.ULID,
			&registrant.Name,
			&registrant.Email,
			&registrant.Role,
			&registrant.RegisteredAt,
		); err != nil {
			return nil, fmt.Errorf("scan registrant: %w", err)
		}
		items = append(items, registrant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrants: %w", err)
	}
	return items, nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		event           events.Event
		department      *string
		rejectionReason *string
		reviewerULID    *string
		reviewerName    *string
		reviewerEmail   *string
		reviewerRole    *string
		reviewedAt      pgtype.Timestamptz
		date            pgtype.Date
	)
	if err := row.Scan(
		&event.ID,
		&event.ULID,
		&event.Title,
		&event.Description,
		&date,
		&event.Time,
		&event.Venue,
		&event.TargetAudience,
		&department,
		&event.MaxParticipants,
		&event.Organizer.ULID,
		&event.Organizer.Name,
		&event.Organizer.Email,
		&event.Organizer.Role,
		&event.Status,
		&rejectionReason,
		&reviewerULID,
		&reviewerName,
		&reviewerEmail,
		&reviewerRole,
		&reviewedAt,
		&event.CreatedAt,
		&event.UpdatedAt,
		&event.RegistrantCount,
	); err != nil {
		return nil, err
	}

	if date.Valid {
		event.Date = events.DateOnly(date.Time)
	}
	event.Department = derefString(department)
	event.RejectionReason = derefString(rejectionReason)
	if reviewerULID != nil {
		event.ReviewedBy = &events.UserSnapshot{
			ULID:  *reviewerULID,
			Name:  derefString(reviewerName),
			Email: derefString(reviewerEmail),
			Role:  derefString(reviewerRole),
		}
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		event.ReviewedAt = &t
	}
	return &event, nil
}

func (r *EventRepository) queryer() queryer {
	if r.repo.tx != nil {
		return r.repo.tx
	}
	return r.repo.pool
}
