package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/feedback"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var _ feedback.Repository = (*FeedbackRepository)(nil)

const feedbackColumns = `f.id, f.ulid, e.ulid, f.user_ulid, f.user_name, f.user_email, f.user_role, f.rating, f.comment, f.created_at`

func (r *FeedbackRepository) Create(ctx context.Context, params feedback.CreateParams) (*feedback.Feedback, error) {
	// INSERT ... SELECT resolves the event in the same statement; zero rows
	// means the event vanished between the guard check and the write.
	row := r.queryer().QueryRow(ctx, `
WITH inserted AS (
	INSERT INTO feedback (id, ulid, event_id, user_ulid, user_name, user_email, user_role, rating, comment)
	SELECT $1, $2, e.id, $4, $5, $6, $7, $8, $9
	FROM events e
	WHERE e.ulid = $3
	RETURNING feedback.*
)
SELECT `+feedbackColumns+`
FROM inserted f
JOIN events e ON e.id = f.event_id
`,
		uuid.NewString(),
		params.ULID,
		params.EventULID,
		params.User.ULID,
		params.User.Name,
		params.User.Email,
		params.User.Role,
		params.Rating,
		params.Comment,
	)

	item, err := scanFeedback(row)
	if err != nil {
		if isUniqueViolation(err, "feedback_event_id_user_ulid_key") {
			return nil, feedback.ErrAlreadySubmitted
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("create feedback: %w", err)
	}
	return item, nil
}

func (r *FeedbackRepository) ListByEvent(ctx context.Context, eventULID string) ([]feedback.Feedback, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+feedbackColumns+`
FROM feedback f
JOIN events e ON e.id = f.event_id
WHERE e.ulid = $1
ORDER BY f.created_at DESC
`, eventULID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var items []feedback.Feedback
	for rows.Next() {
		item, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}
	return items, nil
}

func scanFeedback(row pgx.Row) (*feedback.Feedback, error) {
	var item feedback.Feedback
	if err := row.Scan(
		&item.ID,
		&item.ULID,
		&item.EventULID,
		&item.User.ULID,
		&item.User.Name,
		&item.User.Email,
		&item.User.Role,
		&item.Rating,
		&item.Comment,
		&item.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *FeedbackRepository) queryer() queryer {
	if r.repo.tx != nil {
		return r.repo.tx
	}
	return r.repo.pool
}
