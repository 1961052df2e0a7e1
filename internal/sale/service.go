package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/graficaloja/backend-pdv/internal/events"
	"github.com/graficaloja/backend-pdv/internal/obs"
	"github.com/graficaloja/backend-pdv/internal/pricing"
	"github.com/graficaloja/backend-pdv/internal/repo"
)

// Service finalises sales and replaces edited orders. Every write path runs
// in a single transaction; no partial order ever becomes visible.
type Service struct {
	Pool            *pgxpool.Pool
	Events          *events.Bus
	MaxInstallments int
	Now             func() time.Time
}

// Result summarises a finalised or replaced sale.
type Result struct {
	OrderID          string                `json:"orderId"`
	Status           string                `json:"status"`
	Total            float64               `json:"total"`
	AmountPaid       float64               `json:"amountPaid"`
	Remaining        float64               `json:"remaining"`
	InstallmentCount int                   `json:"installmentCount"`
	InstallmentValue float64               `json:"installmentValue"`
	Entries          []pricing.PaymentEntry `json:"entries"`
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Quote prices a sale without persisting anything; the counter calls this on
// every edit so the displayed totals always come from the engine.
func (s *Service) Quote(ctx context.Context, in FinalizeInput) (Draft, error) {
	if s == nil || s.Pool == nil {
		return Draft{}, errors.New("sale service not configured")
	}
	return BuildDraft(s.productLookup(ctx, s.Pool), in, s.MaxInstallments)
}

// Finalize snapshots the cart into an order with its payment breakdown.
func (s *Service) Finalize(ctx context.Context, in FinalizeInput) (Result, error) {
	if s == nil || s.Pool == nil {
		return Result{}, errors.New("sale service not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	draft, err := BuildDraft(s.productLookup(ctx, tx), in, s.MaxInstallments)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	orderID := repo.NewID()
	order := repo.Order{
		ID:               orderID,
		CustomerName:     repo.ToText(in.CustomerName),
		Status:           string(draft.Allocation.Status),
		Total:            draft.Total,
		AmountPaid:       draft.Allocation.AmountPaid,
		Remaining:        draft.Allocation.Remaining,
		InstallmentCount: int32(draft.Allocation.InstallmentCount),
		CreatedAt:        repo.ToTimestamptz(now),
	}
	if in.CustomerID != nil {
		order.CustomerID, err = repo.ToUUID(*in.CustomerID)
		if err != nil {
			return Result{}, fmt.Errorf("customer id: %w", pricing.ErrInvalidInput)
		}
	}
	if in.Notes != nil {
		order.Notes = repo.ToText(*in.Notes)
	}

	orders := repo.Orders{DB: tx}
	if err := orders.Insert(ctx, order); err != nil {
		return Result{}, err
	}
	if err := s.insertLines(ctx, orders, orderID, in, draft, now); err != nil {
		return Result{}, err
	}
	if err := s.settleSideEffects(ctx, tx, orderID, in, draft, now); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}

	if obs.SalesFinalizedTotal != nil {
		obs.SalesFinalizedTotal.WithLabelValues(string(draft.Allocation.Status)).Inc()
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicSaleCreated, map[string]any{
			"orderId":   repo.UUIDString(orderID),
			"total":     draft.Total,
			"status":    draft.Allocation.Status,
			"remaining": draft.Allocation.Remaining,
		})
	}
	return toResult(orderID, draft), nil
}

// Replace rewrites an existing order from the edited cart: items, totals and
// the payment breakdown are deleted and rebuilt wholesale, never diffed. The
// open receivable tied to the order is recreated from the new allocation.
func (s *Service) Replace(ctx context.Context, orderID string, in FinalizeInput) (Result, error) {
	if s == nil || s.Pool == nil {
		return Result{}, errors.New("sale service not configured")
	}
	id, err := repo.ToUUID(orderID)
	if err != nil {
		return Result{}, fmt.Errorf("order id: %w", pricing.ErrInvalidInput)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	orders := repo.Orders{DB: tx}
	existing, err := orders.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}

	draft, err := BuildDraft(s.productLookup(ctx, tx), in, s.MaxInstallments)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	updated := repo.Order{
		ID:               id,
		CustomerID:       existing.CustomerID,
		CustomerName:     existing.CustomerName,
		Status:           string(draft.Allocation.Status),
		Total:            draft.Total,
		AmountPaid:       draft.Allocation.AmountPaid,
		Remaining:        draft.Allocation.Remaining,
		InstallmentCount: int32(draft.Allocation.InstallmentCount),
		Notes:            existing.Notes,
	}
	if in.CustomerID != nil {
		updated.CustomerID, err = repo.ToUUID(*in.CustomerID)
		if err != nil {
			return Result{}, fmt.Errorf("customer id: %w", pricing.ErrInvalidInput)
		}
	}
	if in.CustomerName != "" {
		updated.CustomerName = repo.ToText(in.CustomerName)
	}
	if in.Notes != nil {
		updated.Notes = repo.ToText(*in.Notes)
	}
	if err := orders.UpdateSummary(ctx, updated); err != nil {
		return Result{}, err
	}
	if err := orders.DeleteItems(ctx, id); err != nil {
		return Result{}, err
	}
	if err := orders.DeletePayments(ctx, id); err != nil {
		return Result{}, err
	}
	if err := (repo.Ledger{DB: tx}).DeleteByOrder(ctx, id); err != nil {
		return Result{}, err
	}
	if err := s.insertLines(ctx, orders, id, in, draft, now); err != nil {
		return Result{}, err
	}
	if err := s.insertReceivable(ctx, tx, id, in, draft, now); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, err
	}

	if obs.SalesReplacedTotal != nil {
		obs.SalesReplacedTotal.Inc()
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicSaleReplaced, map[string]any{
			"orderId": orderID,
			"total":   draft.Total,
			"status":  draft.Allocation.Status,
		})
	}
	return toResult(id, draft), nil
}

// Cancel marks an order cancelled and closes out its open receivable.
func (s *Service) Cancel(ctx context.Context, orderID string) error {
	if s == nil || s.Pool == nil {
		return errors.New("sale service not configured")
	}
	id, err := repo.ToUUID(orderID)
	if err != nil {
		return fmt.Errorf("order id: %w", pricing.ErrInvalidInput)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	orders := repo.Orders{DB: tx}
	order, err := orders.Get(ctx, id)
	if err != nil {
		return err
	}
	order.Status = "cancelled"
	if err := orders.UpdateSummary(ctx, order); err != nil {
		return err
	}
	if err := (repo.Ledger{DB: tx}).DeleteByOrder(ctx, id); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicSaleCancelled, map[string]any{"orderId": orderID})
	}
	return nil
}

func (s *Service) insertLines(ctx context.Context, orders repo.Orders, orderID pgtype.UUID, in FinalizeInput, draft Draft, now time.Time) error {
	for i, line := range draft.Items {
		productID, err := repo.ToUUID(line.ProductRef)
		if err != nil {
			return fmt.Errorf("item %d product id: %w", i, pricing.ErrInvalidInput)
		}
		if err := orders.InsertItem(ctx, repo.OrderItem{
			ID:             repo.NewID(),
			OrderID:        orderID,
			ProductID:      productID,
			Name:           line.Name,
			Mode:           string(line.Mode),
			UnitPrice:      line.UnitPrice,
			Quantity:       int32(line.Quantity),
			Total:          line.Total,
			VariationLabel: repo.ToText(line.VariationLabel),
			FinishingLabel: repo.ToText(line.FinishingLabel),
			Note:           repo.ToText(line.Note),
			Width:          line.Width,
			Height:         line.Height,
			Position:       int32(i),
		}); err != nil {
			return err
		}
	}
	for i, entry := range draft.Allocation.Entries {
		payment := repo.Payment{
			ID:       repo.NewID(),
			OrderID:  orderID,
			Amount:   entry.Amount,
			Pending:  entry.Pending,
			Method:   repo.ToText(in.Method),
			Position: int32(i),
		}
		if !entry.Pending {
			payment.PaidAt = repo.ToTimestamptz(now)
		}
		if err := orders.InsertPayment(ctx, payment); err != nil {
			return err
		}
	}
	return nil
}

// settleSideEffects opens the receivable for the unpaid remainder and records
// the drawer movement for the amount handed over.
func (s *Service) settleSideEffects(ctx context.Context, tx pgx.Tx, orderID pgtype.UUID, in FinalizeInput, draft Draft, now time.Time) error {
	if err := s.insertReceivable(ctx, tx, orderID, in, draft, now); err != nil {
		return err
	}
	if draft.Allocation.AmountPaid <= 0 {
		return nil
	}
	cashbook := repo.Cashbook{DB: tx}
	session, err := cashbook.CurrentSession(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return cashbook.InsertMovement(ctx, repo.CashMovement{
		ID:          repo.NewID(),
		SessionID:   session.ID,
		Kind:        "sale",
		Amount:      draft.Allocation.AmountPaid,
		Description: repo.ToText("sale " + repo.UUIDString(orderID)),
		OrderID:     orderID,
	})
}

func (s *Service) insertReceivable(ctx context.Context, tx pgx.Tx, orderID pgtype.UUID, in FinalizeInput, draft Draft, now time.Time) error {
	if draft.Allocation.Remaining <= 0 {
		return nil
	}
	counterparty := in.CustomerName
	if counterparty == "" {
		counterparty = "counter sale"
	}
	entry := repo.LedgerEntry{
		ID:           repo.NewID(),
		Kind:         "receivable",
		Counterparty: counterparty,
		Description:  repo.ToText(fmt.Sprintf("order %s balance", repo.UUIDString(orderID))),
		Amount:       draft.Allocation.Remaining,
		Status:       "open",
		OrderID:      orderID,
	}
	if in.DueDate != nil {
		entry.DueDate = repo.ToTimestamptz(*in.DueDate)
	}
	return (repo.Ledger{DB: tx}).Insert(ctx, entry)
}

// productLookup adapts the catalog rows to the pricing engine's product shape.
func (s *Service) productLookup(ctx context.Context, db repo.DBTX) ProductLookup {
	products := repo.Products{DB: db}
	return func(id string) (CatalogProduct, error) {
		pid, err := repo.ToUUID(id)
		if err != nil {
			return CatalogProduct{}, fmt.Errorf("product id %q: %w", id, pricing.ErrInvalidInput)
		}
		p, err := products.Get(ctx, pid)
		if err != nil {
			return CatalogProduct{}, err
		}
		if !p.Active {
			return CatalogProduct{}, fmt.Errorf("product %q is inactive: %w", p.Name, pricing.ErrInvalidInput)
		}
		variations, err := products.ListVariations(ctx, pid)
		if err != nil {
			return CatalogProduct{}, err
		}
		out := CatalogProduct{
			Product: pricing.Product{
				Ref:       repo.UUIDString(p.ID),
				Name:      p.Name,
				BasePrice: p.BasePrice,
			},
			Mode: pricing.Mode(p.Mode),
		}
		for _, v := range variations {
			out.Variations = append(out.Variations, pricing.Variation{Label: v.Label, UnitPrice: v.UnitPrice})
		}
		return out, nil
	}
}

func toResult(id pgtype.UUID, draft Draft) Result {
	return Result{
		OrderID:          repo.UUIDString(id),
		Status:           string(draft.Allocation.Status),
		Total:            draft.Total,
		AmountPaid:       draft.Allocation.AmountPaid,
		Remaining:        draft.Allocation.Remaining,
		InstallmentCount: draft.Allocation.InstallmentCount,
		InstallmentValue: draft.Allocation.InstallmentValue,
		Entries:          draft.Allocation.Entries,
	}
}
