// Package ledger tracks receivables and payables: who owes the shop and what
// the shop owes, with due dates and settlement.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/graficaloja/backend-pdv/internal/events"
	"github.com/graficaloja/backend-pdv/internal/obs"
	"github.com/graficaloja/backend-pdv/internal/repo"
)

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Service owns ledger entry writes and the overdue scan.
type Service struct {
	Pool   *pgxpool.Pool
	Events *events.Bus
	Logger zerolog.Logger
	Now    func() time.Time
}

// EntryPayload is the create input.
type EntryPayload struct {
	Kind         string     `json:"kind" validate:"required,oneof=receivable payable"`
	Counterparty string     `json:"counterparty" validate:"required,min=2,max=160"`
	Description  string     `json:"description" validate:"max=240"`
	Amount       float64    `json:"amount" validate:"required,gt=0"`
	DueDate      *time.Time `json:"dueDate"`
	OrderID      *string    `json:"orderId" validate:"omitempty,uuid"`
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create opens a new entry.
func (s *Service) Create(ctx context.Context, in EntryPayload) (repo.LedgerEntry, error) {
	if s == nil || s.Pool == nil {
		return repo.LedgerEntry{}, errors.New("ledger service not configured")
	}
	entry := repo.LedgerEntry{
		ID:           repo.NewID(),
		Kind:         in.Kind,
		Counterparty: in.Counterparty,
		Description:  repo.ToText(in.Description),
		Amount:       in.Amount,
		Status:       "open",
	}
	if in.DueDate != nil {
		entry.DueDate = repo.ToTimestamptz(*in.DueDate)
	}
	if in.OrderID != nil {
		id, err := repo.ToUUID(*in.OrderID)
		if err != nil {
			return repo.LedgerEntry{}, fmt.Errorf("order id: %w", ErrInvalidInput)
		}
		entry.OrderID = id
	}
	if err := (repo.Ledger{DB: s.Pool}).Insert(ctx, entry); err != nil {
		return repo.LedgerEntry{}, err
	}
	return (repo.Ledger{DB: s.Pool}).Get(ctx, entry.ID)
}

// List returns entries filtered by kind and status.
func (s *Service) List(ctx context.Context, kind, status string, limit, offset int32) ([]repo.LedgerEntry, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("ledger service not configured")
	}
	return repo.Ledger{DB: s.Pool}.List(ctx, kind, status, limit, offset)
}

// Settle closes an open entry. Settling a receivable while a cash session is
// open also records the money into the drawer; a payable records it out.
func (s *Service) Settle(ctx context.Context, rawID string) (repo.LedgerEntry, error) {
	if s == nil || s.Pool == nil {
		return repo.LedgerEntry{}, errors.New("ledger service not configured")
	}
	id, err := repo.ToUUID(rawID)
	if err != nil {
		return repo.LedgerEntry{}, fmt.Errorf("entry id: %w", ErrInvalidInput)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return repo.LedgerEntry{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	entries := repo.Ledger{DB: tx}
	now := s.now()
	if err := entries.Settle(ctx, id, now); err != nil {
		return repo.LedgerEntry{}, err
	}
	entry, err := entries.Get(ctx, id)
	if err != nil {
		return repo.LedgerEntry{}, err
	}
	if err := s.recordMovement(ctx, tx, entry); err != nil {
		return repo.LedgerEntry{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return repo.LedgerEntry{}, err
	}

	if obs.LedgerSettledTotal != nil {
		obs.LedgerSettledTotal.WithLabelValues(entry.Kind).Inc()
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicLedgerSettled, map[string]any{
			"entryId":      rawID,
			"kind":         entry.Kind,
			"amount":       entry.Amount,
			"counterparty": entry.Counterparty,
		})
	}
	return entry, nil
}

func (s *Service) recordMovement(ctx context.Context, tx pgx.Tx, entry repo.LedgerEntry) error {
	cashbook := repo.Cashbook{DB: tx}
	session, err := cashbook.CurrentSession(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	amount := entry.Amount
	kind := "receipt"
	if entry.Kind == "payable" {
		amount = -entry.Amount
		kind = "expense"
	}
	return cashbook.InsertMovement(ctx, repo.CashMovement{
		ID:          repo.NewID(),
		SessionID:   session.ID,
		Kind:        kind,
		Amount:      amount,
		Description: repo.ToText(fmt.Sprintf("%s settled: %s", entry.Kind, entry.Counterparty)),
		OrderID:     entry.OrderID,
	})
}

// ScanOverdue finds open entries past their due date, emits one event per
// entry and returns how many were found. The worker runs this daily.
func (s *Service) ScanOverdue(ctx context.Context, limit int32) (int, error) {
	if s == nil || s.Pool == nil {
		return 0, errors.New("ledger service not configured")
	}
	entries, err := repo.Ledger{DB: s.Pool}.ListOverdue(ctx, s.now(), limit)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		s.Logger.Warn().
			Str("entry_id", repo.UUIDString(entry.ID)).
			Str("kind", entry.Kind).
			Str("counterparty", entry.Counterparty).
			Float64("amount", entry.Amount).
			Time("due_date", repo.TimeValue(entry.DueDate)).
			Msg("ledger entry overdue")
		if s.Events != nil {
			_, _ = s.Events.Emit(ctx, events.TopicLedgerOverdue, map[string]any{
				"entryId":      repo.UUIDString(entry.ID),
				"kind":         entry.Kind,
				"amount":       entry.Amount,
				"counterparty": entry.Counterparty,
				"dueDate":      repo.TimeValue(entry.DueDate),
			})
		}
	}
	return len(entries), nil
}
