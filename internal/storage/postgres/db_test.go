package postgres

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/campus-events/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

// stubTx satisfies pgx.Tx with scripted results so the transaction plumbing
// can be exercised without a database.
type stubTx struct {
	rowQueue  [][]any
	rowsQueue [][][]any
	queries   []string
	execs     []string
	begun     int
	committed int
}

func (t *stubTx) Begin(context.Context) (pgx.Tx, error) { t.begun++; return t, nil }
func (t *stubTx) Commit(context.Context) error          { t.committed++; return nil }
func (t *stubTx) Rollback(context.Context) error        { return nil }

func (t *stubTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Conn() *pgx.Conn { return nil }

func (t *stubTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execs = append(t.execs, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *stubTx) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	t.queries = append(t.queries, sql)
	if len(t.rowsQueue) == 0 {
		return &stubRows{}, nil
	}
	rows := t.rowsQueue[0]
	t.rowsQueue = t.rowsQueue[1:]
	return &stubRows{rows: rows}, nil
}

func (t *stubTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	t.queries = append(t.queries, sql)
	if len(t.rowQueue) == 0 {
		return stubRow{}
	}
	values := t.rowQueue[0]
	t.rowQueue = t.rowQueue[1:]
	return stubRow{values: values}
}

type stubRow struct{ values []any }

func (r stubRow) Scan(dest ...any) error {
	if r.values == nil {
		return pgx.ErrNoRows
	}
	return scanValues(dest, r.values)
}

type stubRows struct {
	rows [][]any
	pos  int
}

func (r *stubRows) Next() bool                                   { r.pos++; return r.pos <= len(r.rows) }
func (r *stubRows) Scan(dest ...any) error                       { return scanValues(dest, r.rows[r.pos-1]) }
func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func scanValues(dest []any, values []any) error {
	for i := range dest {
		target := reflect.ValueOf(dest[i]).Elem()
		if i >= len(values) || values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(values[i]))
	}
	return nil
}

const (
	stubEventULID = "01HYX3KQW7ERTV9XNBM2P8QJZ9"
	stubUserULID  = "01HYX3KQW7ERTV9XNBM2P8QJZ2"
)

// stubEventRow returns values in eventColumns order.
func stubEventRow(status string, date time.Time, maxParticipants *int) []any {
	return []any{
		"11111111-1111-1111-1111-111111111111",
		stubEventULID,
		"Intro to Go",
		"Hands-on workshop",
		pgtype.Date{Time: date, Valid: true},
		"14:00",
		"Lab 3",
		[]string{"students"},
		nil,
		maxParticipants,
		"01HYX3KQW7ERTV9XNBM2P8QJZ0",
		"Bilal Raza",
		"bilal@pucit.edu.pk",
		"society",
		status,
		nil,
		nil,
		nil,
		nil,
		nil,
		pgtype.Timestamptz{},
		time.Now(),
		time.Now(),
		0,
	}
}

func TestWithTxReusesOpenTransaction(t *testing.T) {
	tx := &stubTx{}
	repo := &Repository{tx: tx}

	var inner *Repository
	err := repo.WithTx(t.Context(), func(ctx context.Context, r *Repository) error {
		inner = r
		return r.WithTx(ctx, func(_ context.Context, nested *Repository) error {
			require.Same(t, r, nested)
			return nil
		})
	})
	require.NoError(t, err)
	require.Same(t, repo, inner)
	require.Zero(t, tx.begun)
	require.Zero(t, tx.committed)
}

func TestAddRegistrantLocksEventRow(t *testing.T) {
	max := 10
	tx := &stubTx{
		rowQueue:  [][]any{stubEventRow(events.StatusApproved, time.Now().AddDate(0, 0, 7), &max)},
		rowsQueue: [][][]any{nil},
	}
	repo := &Repository{tx: tx}

	err := repo.Events().AddRegistrant(t.Context(), stubEventULID, events.Registrant{
		UserSnapshot: events.UserSnapshot{ULID: stubUserULID, Name: "Ayesha Khan", Email: "ayesha@pucit.edu.pk", Role: "student"},
		RegisteredAt: time.Now(),
	})
	require.NoError(t, err)

	require.Contains(t, tx.queries[0], "FOR UPDATE OF e")
	require.Len(t, tx.execs, 2)
	require.Contains(t, tx.execs[0], "INSERT INTO event_registrations")
	require.Contains(t, tx.execs[1], "UPDATE events SET updated_at")
}

func TestAddRegistrantCapacityCheckedUnderLock(t *testing.T) {
	max := 1
	tx := &stubTx{
		rowQueue: [][]any{stubEventRow(events.StatusApproved, time.Now().AddDate(0, 0, 7), &max)},
		rowsQueue: [][][]any{{
			{"01HYX3KQW7ERTV9XNBM2P8QJZ3", "Someone Else", "someone@pucit.edu.pk", "student", time.Now()},
		}},
	}
	repo := &Repository{tx: tx}

	err := repo.Events().AddRegistrant(t.Context(), stubEventULID, events.Registrant{
		UserSnapshot: events.UserSnapshot{ULID: stubUserULID, Name: "Ayesha Khan", Email: "ayesha@pucit.edu.pk", Role: "student"},
		RegisteredAt: time.Now(),
	})
	require.ErrorIs(t, err, events.ErrCapacityReached)
	require.Empty(t, tx.execs)
}

func TestAddRegistrantMissingEvent(t *testing.T) {
	tx := &stubTx{rowQueue: [][]any{nil}}
	repo := &Repository{tx: tx}

	err := repo.Events().AddRegistrant(t.Context(), stubEventULID, events.Registrant{
		UserSnapshot: events.UserSnapshot{ULID: stubUserULID},
		RegisteredAt: time.Now(),
	})
	require.ErrorIs(t, err, events.ErrNotFound)
}
