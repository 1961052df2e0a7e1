package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// LedgerEntry is a receivable (money owed to the shop) or payable (money the
// shop owes) with a due date.
type LedgerEntry struct {
	ID           pgtype.UUID
	Kind         string
	Counterparty string
	Description  pgtype.Text
	Amount       float64
	DueDate      pgtype.Timestamptz
	Status       string
	SettledAt    pgtype.Timestamptz
	OrderID      pgtype.UUID
	CreatedAt    pgtype.Timestamptz
}

// Ledger gives access to receivable/payable entries.
type Ledger struct {
	DB DBTX
}

// Insert stores a new open entry.
func (r Ledger) Insert(ctx context.Context, e LedgerEntry) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO ledger_entries (id, kind, counterparty, description, amount, due_date, status, order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		e.ID, e.Kind, e.Counterparty, e.Description, e.Amount, e.DueDate, e.Status, e.OrderID)
	return err
}

// Get loads an entry by id.
func (r Ledger) Get(ctx context.Context, id pgtype.UUID) (LedgerEntry, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, kind, counterparty, description, amount, due_date, status, settled_at, order_id, created_at
		FROM ledger_entries WHERE id = $1`, id)
	var e LedgerEntry
	err := row.Scan(&e.ID, &e.Kind, &e.Counterparty, &e.Description, &e.Amount, &e.DueDate, &e.Status, &e.SettledAt, &e.OrderID, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LedgerEntry{}, ErrNotFound
	}
	return e, err
}

// List returns entries filtered by kind and status, soonest due first.
func (r Ledger) List(ctx context.Context, kind, status string, limit, offset int32) ([]LedgerEntry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, kind, counterparty, description, amount, due_date, status, settled_at, order_id, created_at
		FROM ledger_entries
		WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR status = $2)
		ORDER BY due_date NULLS LAST, created_at
		LIMIT $3 OFFSET $4`, kind, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Counterparty, &e.Description, &e.Amount, &e.DueDate, &e.Status, &e.SettledAt, &e.OrderID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListOverdue returns open entries whose due date has passed.
func (r Ledger) ListOverdue(ctx context.Context, asOf time.Time, limit int32) ([]LedgerEntry, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, kind, counterparty, description, amount, due_date, status, settled_at, order_id, created_at
		FROM ledger_entries
		WHERE status = 'open' AND due_date IS NOT NULL AND due_date < $1
		ORDER BY due_date
		LIMIT $2`, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.Counterparty, &e.Description, &e.Amount, &e.DueDate, &e.Status, &e.SettledAt, &e.OrderID, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Settle marks an open entry as settled. Settling an already settled entry
// returns ErrNotFound so callers can distinguish the no-op.
func (r Ledger) Settle(ctx context.Context, id pgtype.UUID, settledAt time.Time) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE ledger_entries SET status = 'settled', settled_at = $2
		WHERE id = $1 AND status = 'open'`, id, settledAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByOrder removes the open receivable tied to an order; used when an
// order is replaced and its payment breakdown is recomputed.
func (r Ledger) DeleteByOrder(ctx context.Context, orderID pgtype.UUID) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM ledger_entries WHERE order_id = $1 AND status = 'open'`, orderID)
	return err
}
