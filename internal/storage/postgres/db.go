package postgres

import (
	"context"
	"fmt"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/feedback"
	"github.com/campus-events/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository bundles the per-collection repositories over a shared pool. It is
// constructed once at startup and injected into the services; there is no
// process-wide connection handle.
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{repo: r}
}

func (r *Repository) Events() events.Repository {
	return &EventRepository{repo: r}
}

func (r *Repository) Feedback() feedback.Repository {
	return &FeedbackRepository{repo: r}
}

// WithTx runs fn against a repository bound to a single transaction. A nested
// call reuses the open transaction instead of beginning another.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, *Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type UserRepository struct {
	repo *Repository
}

type EventRepository struct {
	repo *Repository
}

type FeedbackRepository struct {
	repo *Repository
}
