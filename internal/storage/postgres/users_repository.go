package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/campus-events/server/internal/domain/users"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ users.Repository = (*UserRepository)(nil)

const userColumns = `id, ulid, email, password_hash, name, role, department, is_active, created_at`

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `
INSERT INTO users (id, ulid, email, password_hash, name, role, department)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+userColumns+`
`,
		uuid.NewString(),
		params.ULID,
		params.Email,
		params.PasswordHash,
		params.Name,
		params.Role,
		nullableString(params.Department),
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByULID(ctx context.Context, ulid string) (*users.User, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE ulid = $1`, ulid)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user by ulid: %w", err)
	}
	return user, nil
}

func (r *UserRepository) ListActive(ctx context.Context) ([]users.User, error) {
	rows, err := r.queryer().Query(ctx, `SELECT `+userColumns+` FROM users WHERE is_active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	var items []users.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return items, nil
}

func (r *UserRepository) SetActive(ctx context.Context, ulid string, active bool) error {
	tag, err := r.queryer().Exec(ctx, `UPDATE users SET is_active = $2 WHERE ulid = $1`, ulid, active)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		user       users.User
		department *string
		createdAt  pgtype.Timestamptz
	)
	if err := row.Scan(
		&user.ID,
		&user.ULID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.Role,
		&department,
		&user.IsActive,
		&createdAt,
	); err != nil {
		return nil, err
	}
	user.Department = derefString(department)
	if createdAt.Valid {
		user.CreatedAt = createdAt.Time
	}
	return &user, nil
}

func (r *UserRepository) queryer() queryer {
	if r.repo.tx != nil {
		return r.repo.tx
	}
	return r.repo.pool
}
