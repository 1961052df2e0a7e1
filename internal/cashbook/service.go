// Package cashbook manages register sessions: the drawer opens with a float,
// collects movements through the day and closes against a counted amount.
package cashbook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/graficaloja/backend-pdv/internal/events"
	"github.com/graficaloja/backend-pdv/internal/obs"
	"github.com/graficaloja/backend-pdv/internal/pricing"
	"github.com/graficaloja/backend-pdv/internal/repo"
)

// ErrSessionOpen is surfaced when opening while a session is already open.
var ErrSessionOpen = repo.ErrSessionOpen

// Service owns session lifecycle and manual drawer movements.
type Service struct {
	Pool   *pgxpool.Pool
	Events *events.Bus
	Now    func() time.Time
}

// OpenPayload starts a session.
type OpenPayload struct {
	OpeningFloat float64 `json:"openingFloat" validate:"gte=0"`
	Note         string  `json:"note" validate:"max=240"`
}

// ClosePayload ends the open session with the amount actually counted.
type ClosePayload struct {
	CountedAmount float64 `json:"countedAmount" validate:"gte=0"`
	Note          string  `json:"note" validate:"max=240"`
}

// MovementPayload is a manual deposit, withdrawal or expense.
type MovementPayload struct {
	Kind        string  `json:"kind" validate:"required,oneof=deposit withdrawal expense"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description" validate:"max=240"`
}

// Summary is the session close report: expected drawer against counted.
type Summary struct {
	Session   repo.CashSession
	Movements []repo.CashMovement
	Expected  float64
	Counted   float64
	Delta     float64
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Open starts a session; only one may be open at a time.
func (s *Service) Open(ctx context.Context, in OpenPayload) (repo.CashSession, error) {
	if s == nil || s.Pool == nil {
		return repo.CashSession{}, errors.New("cashbook service not configured")
	}
	session := repo.CashSession{
		ID:           repo.NewID(),
		OpenedAt:     repo.ToTimestamptz(s.now()),
		OpeningFloat: in.OpeningFloat,
		Note:         repo.ToText(in.Note),
	}
	cashbook := repo.Cashbook{DB: s.Pool}
	if err := cashbook.OpenSession(ctx, session); err != nil {
		return repo.CashSession{}, err
	}
	return cashbook.GetSession(ctx, session.ID)
}

// Current returns the open session with its movements.
func (s *Service) Current(ctx context.Context) (repo.CashSession, []repo.CashMovement, error) {
	if s == nil || s.Pool == nil {
		return repo.CashSession{}, nil, errors.New("cashbook service not configured")
	}
	cashbook := repo.Cashbook{DB: s.Pool}
	session, err := cashbook.CurrentSession(ctx)
	if err != nil {
		return repo.CashSession{}, nil, err
	}
	movements, err := cashbook.ListMovements(ctx, session.ID)
	if err != nil {
		return repo.CashSession{}, nil, err
	}
	return session, movements, nil
}

// AddMovement records a manual movement against the open session.
// Withdrawals and expenses are stored negative so sums stay plain.
func (s *Service) AddMovement(ctx context.Context, in MovementPayload) (repo.CashMovement, error) {
	if s == nil || s.Pool == nil {
		return repo.CashMovement{}, errors.New("cashbook service not configured")
	}
	cashbook := repo.Cashbook{DB: s.Pool}
	session, err := cashbook.CurrentSession(ctx)
	if err != nil {
		return repo.CashMovement{}, err
	}
	amount := in.Amount
	if in.Kind == "withdrawal" || in.Kind == "expense" {
		amount = -amount
	}
	movement := repo.CashMovement{
		ID:          repo.NewID(),
		SessionID:   session.ID,
		Kind:        in.Kind,
		Amount:      amount,
		Description: repo.ToText(in.Description),
	}
	if err := cashbook.InsertMovement(ctx, movement); err != nil {
		return repo.CashMovement{}, err
	}
	return movement, nil
}

// Close ends the open session and reports expected vs counted.
func (s *Service) Close(ctx context.Context, in ClosePayload) (Summary, error) {
	if s == nil || s.Pool == nil {
		return Summary{}, errors.New("cashbook service not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	cashbook := repo.Cashbook{DB: tx}
	session, err := cashbook.CurrentSession(ctx)
	if err != nil {
		return Summary{}, err
	}
	moved, err := cashbook.SumMovements(ctx, session.ID)
	if err != nil {
		return Summary{}, err
	}
	now := s.now()
	if err := cashbook.CloseSession(ctx, session.ID, now, in.CountedAmount, repo.ToText(in.Note)); err != nil {
		return Summary{}, err
	}
	movements, err := cashbook.ListMovements(ctx, session.ID)
	if err != nil {
		return Summary{}, err
	}
	closed, err := cashbook.GetSession(ctx, session.ID)
	if err != nil {
		return Summary{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Summary{}, err
	}

	expected := session.OpeningFloat + moved
	summary := Summary{
		Session:   closed,
		Movements: movements,
		Expected:  expected,
		Counted:   in.CountedAmount,
		Delta:     in.CountedAmount - expected,
	}
	if obs.CashSessionsClosed != nil {
		obs.CashSessionsClosed.Inc()
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicCashSessionClosed, map[string]any{
			"sessionId": repo.UUIDString(session.ID),
			"expected":  expected,
			"counted":   in.CountedAmount,
			"delta":     summary.Delta,
		})
	}
	return summary, nil
}

// Get loads a session (open or closed) with its movements.
func (s *Service) Get(ctx context.Context, rawID string) (repo.CashSession, []repo.CashMovement, error) {
	if s == nil || s.Pool == nil {
		return repo.CashSession{}, nil, errors.New("cashbook service not configured")
	}
	id, err := repo.ToUUID(rawID)
	if err != nil {
		return repo.CashSession{}, nil, fmt.Errorf("session id: %w", pricing.ErrInvalidInput)
	}
	cashbook := repo.Cashbook{DB: s.Pool}
	session, err := cashbook.GetSession(ctx, id)
	if err != nil {
		return repo.CashSession{}, nil, err
	}
	movements, err := cashbook.ListMovements(ctx, session.ID)
	if err != nil {
		return repo.CashSession{}, nil, err
	}
	return session, movements, nil
}
