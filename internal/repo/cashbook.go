package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrSessionOpen indicates a cash session is already open.
var ErrSessionOpen = errors.New("cash session already open")

// CashSession is one open/close cycle of the register drawer.
type CashSession struct {
	ID            pgtype.UUID
	OpenedAt      pgtype.Timestamptz
	ClosedAt      pgtype.Timestamptz
	OpeningFloat  float64
	CountedAmount float64
	Note          pgtype.Text
}

// CashMovement is a single drawer movement tied to a session.
type CashMovement struct {
	ID          pgtype.UUID
	SessionID   pgtype.UUID
	Kind        string
	Amount      float64
	Description pgtype.Text
	OrderID     pgtype.UUID
	CreatedAt   pgtype.Timestamptz
}

// Cashbook gives access to register sessions and movements.
type Cashbook struct {
	DB DBTX
}

// OpenSession creates a new session when none is open.
func (r Cashbook) OpenSession(ctx context.Context, s CashSession) error {
	open, err := r.CurrentSession(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err == nil && open.ID.Valid {
		return ErrSessionOpen
	}
	_, err = r.DB.Exec(ctx, `
		INSERT INTO cash_sessions (id, opened_at, opening_float, note)
		VALUES ($1, $2, $3, $4)`,
		s.ID, s.OpenedAt, s.OpeningFloat, s.Note)
	return err
}

// CurrentSession returns the session that has not been closed yet.
func (r Cashbook) CurrentSession(ctx context.Context) (CashSession, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, opened_at, closed_at, opening_float, coalesce(counted_amount, 0), note
		FROM cash_sessions WHERE closed_at IS NULL
		ORDER BY opened_at DESC LIMIT 1`)
	var s CashSession
	err := row.Scan(&s.ID, &s.OpenedAt, &s.ClosedAt, &s.OpeningFloat, &s.CountedAmount, &s.Note)
	if errors.Is(err, pgx.ErrNoRows) {
		return CashSession{}, ErrNotFound
	}
	return s, err
}

// GetSession loads a session by id.
func (r Cashbook) GetSession(ctx context.Context, id pgtype.UUID) (CashSession, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, opened_at, closed_at, opening_float, coalesce(counted_amount, 0), note
		FROM cash_sessions WHERE id = $1`, id)
	var s CashSession
	err := row.Scan(&s.ID, &s.OpenedAt, &s.ClosedAt, &s.OpeningFloat, &s.CountedAmount, &s.Note)
	if errors.Is(err, pgx.ErrNoRows) {
		return CashSession{}, ErrNotFound
	}
	return s, err
}

// CloseSession records the counted amount and closes the open session.
func (r Cashbook) CloseSession(ctx context.Context, id pgtype.UUID, closedAt time.Time, counted float64, note pgtype.Text) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE cash_sessions SET closed_at = $2, counted_amount = $3, note = coalesce($4, note)
		WHERE id = $1 AND closed_at IS NULL`, id, closedAt, counted, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertMovement records a drawer movement.
func (r Cashbook) InsertMovement(ctx context.Context, m CashMovement) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO cash_movements (id, session_id, kind, amount, description, order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		m.ID, m.SessionID, m.Kind, m.Amount, m.Description, m.OrderID)
	return err
}

// ListMovements returns a session's movements oldest first.
func (r Cashbook) ListMovements(ctx context.Context, sessionID pgtype.UUID) ([]CashMovement, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, session_id, kind, amount, description, order_id, created_at
		FROM cash_movements WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CashMovement
	for rows.Next() {
		var m CashMovement
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Kind, &m.Amount, &m.Description, &m.OrderID, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SumMovements totals a session's movements; withdrawals and expenses count
// as negative amounts at write time so a plain sum is the expected drawer.
func (r Cashbook) SumMovements(ctx context.Context, sessionID pgtype.UUID) (float64, error) {
	var total float64
	err := r.DB.QueryRow(ctx, `
		SELECT coalesce(sum(amount), 0) FROM cash_movements WHERE session_id = $1`, sessionID).Scan(&total)
	return total, err
}
