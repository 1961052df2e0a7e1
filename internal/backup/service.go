// Package backup moves the whole shop dataset in and out as one JSON
// document. Import is best-effort: records matching the dedup heuristics are
// skipped, everything else is inserted, and a bad record never aborts the run.
package backup

import (
	"context"
	"encoding/json"
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

// ErrInvalidDocument is returned when the uploaded payload is not a backup.
var ErrInvalidDocument = errors.New("invalid backup document")

// DocumentVersion is written on export and checked on import.
const DocumentVersion = 1

// Document is the complete backup payload.
type Document struct {
	Version    int        `json:"version"`
	ExportedAt time.Time  `json:"exportedAt"`
	Customers  []Party    `json:"customers"`
	Suppliers  []Party    `json:"suppliers"`
	Products   []Product  `json:"products"`
	Orders     []Order    `json:"orders"`
	Ledger     []Entry    `json:"ledgerEntries"`
}

// Party is a customer or supplier record.
type Party struct {
	Name     string `json:"name"`
	Document string `json:"document,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Product is a catalog record with its price table.
type Product struct {
	Name       string      `json:"name"`
	Mode       string      `json:"mode"`
	BasePrice  float64     `json:"basePrice"`
	Unit       string      `json:"unit,omitempty"`
	Active     bool        `json:"active"`
	Variations []Variation `json:"variations,omitempty"`
}

// Variation is one price table row.
type Variation struct {
	Label     string  `json:"label"`
	UnitPrice float64 `json:"unitPrice"`
}

// Order is a finalised sale snapshot.
type Order struct {
	CustomerName     string    `json:"customerName,omitempty"`
	Status           string    `json:"status"`
	Total            float64   `json:"total"`
	AmountPaid       float64   `json:"amountPaid"`
	Remaining        float64   `json:"remaining"`
	InstallmentCount int32     `json:"installmentCount"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	Items            []Item    `json:"items"`
	Payments         []Payment `json:"payments"`
}

// Item is one order line.
type Item struct {
	Name           string  `json:"name"`
	Mode           string  `json:"mode"`
	UnitPrice      float64 `json:"unitPrice"`
	Quantity       int32   `json:"quantity"`
	Total          float64 `json:"total"`
	VariationLabel string  `json:"variationLabel,omitempty"`
	FinishingLabel string  `json:"finishingLabel,omitempty"`
	Note           string  `json:"note,omitempty"`
	Width          float64 `json:"width,omitempty"`
	Height         float64 `json:"height,omitempty"`
}

// Payment is one payment entry.
type Payment struct {
	Amount  float64    `json:"amount"`
	Pending bool       `json:"pending"`
	Method  string     `json:"method,omitempty"`
	PaidAt  *time.Time `json:"paidAt,omitempty"`
}

// Entry is a receivable/payable record.
type Entry struct {
	Kind         string     `json:"kind"`
	Counterparty string     `json:"counterparty"`
	Description  string     `json:"description,omitempty"`
	Amount       float64    `json:"amount"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	Status       string     `json:"status"`
	SettledAt    *time.Time `json:"settledAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Count is the per-collection import outcome.
type Count struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Report summarises an import run.
type Report struct {
	Customers Count `json:"customers"`
	Suppliers Count `json:"suppliers"`
	Products  Count `json:"products"`
	Orders    Count `json:"orders"`
	Ledger    Count `json:"ledgerEntries"`
}

// Service runs export and import against the database.
type Service struct {
	Pool   *pgxpool.Pool
	Events *events.Bus
	Logger zerolog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ParseDocument validates raw bytes into a Document. A zero maxBytes skips
// the size guard.
func ParseDocument(data []byte, maxBytes int64) (Document, error) {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Document{}, fmt.Errorf("payload of %d bytes exceeds limit: %w", len(data), ErrInvalidDocument)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse: %v: %w", err, ErrInvalidDocument)
	}
	if doc.Version != DocumentVersion {
		return Document{}, fmt.Errorf("unsupported version %d: %w", doc.Version, ErrInvalidDocument)
	}
	return doc, nil
}

// Export assembles the full dataset.
func (s *Service) Export(ctx context.Context) (Document, error) {
	if s == nil || s.Pool == nil {
		return Document{}, errors.New("backup service not configured")
	}
	doc := Document{Version: DocumentVersion, ExportedAt: s.now()}

	customers := repo.Customers{DB: s.Pool}
	for offset := int32(0); ; offset += exportPage {
		rows, err := customers.List(ctx, "", exportPage, offset)
		if err != nil {
			return Document{}, err
		}
		for _, c := range rows {
			doc.Customers = append(doc.Customers, Party{
				Name:     c.Name,
				Document: repo.TextString(c.Document),
				Phone:    repo.TextString(c.Phone),
				Email:    repo.TextString(c.Email),
				Address:  repo.TextString(c.Address),
				Notes:    repo.TextString(c.Notes),
			})
		}
		if int32(len(rows)) < exportPage {
			break
		}
	}

	suppliers := repo.Suppliers{DB: s.Pool}
	for offset := int32(0); ; offset += exportPage {
		rows, err := suppliers.List(ctx, "", exportPage, offset)
		if err != nil {
			return Document{}, err
		}
		for _, sup := range rows {
			doc.Suppliers = append(doc.Suppliers, Party{
				Name:     sup.Name,
				Document: repo.TextString(sup.Document),
				Phone:    repo.TextString(sup.Phone),
				Email:    repo.TextString(sup.Email),
				Address:  repo.TextString(sup.Address),
				Notes:    repo.TextString(sup.Notes),
			})
		}
		if int32(len(rows)) < exportPage {
			break
		}
	}

	products := repo.Products{DB: s.Pool}
	for offset := int32(0); ; offset += exportPage {
		rows, err := products.List(ctx, false, "", exportPage, offset)
		if err != nil {
			return Document{}, err
		}
		for _, p := range rows {
			record := Product{
				Name:      p.Name,
				Mode:      p.Mode,
				BasePrice: p.BasePrice,
				Unit:      repo.TextString(p.Unit),
				Active:    p.Active,
			}
			variations, err := products.ListVariations(ctx, p.ID)
			if err != nil {
				return Document{}, err
			}
			for _, v := range variations {
				record.Variations = append(record.Variations, Variation{Label: v.Label, UnitPrice: v.UnitPrice})
			}
			doc.Products = append(doc.Products, record)
		}
		if int32(len(rows)) < exportPage {
			break
		}
	}

	orders := repo.Orders{DB: s.Pool}
	for offset := int32(0); ; offset += exportPage {
		rows, err := orders.List(ctx, "", exportPage, offset)
		if err != nil {
			return Document{}, err
		}
		for _, o := range rows {
			record, err := s.exportOrder(ctx, orders, o)
			if err != nil {
				return Document{}, err
			}
			doc.Orders = append(doc.Orders, record)
		}
		if int32(len(rows)) < exportPage {
			break
		}
	}

	ledger := repo.Ledger{DB: s.Pool}
	for offset := int32(0); ; offset += exportPage {
		rows, err := ledger.List(ctx, "", "", exportPage, offset)
		if err != nil {
			return Document{}, err
		}
		for _, e := range rows {
			record := Entry{
				Kind:         e.Kind,
				Counterparty: e.Counterparty,
				Description:  repo.TextString(e.Description),
				Amount:       e.Amount,
				Status:       e.Status,
				CreatedAt:    repo.TimeValue(e.CreatedAt),
			}
			if e.DueDate.Valid {
				due := e.DueDate.Time
				record.DueDate = &due
			}
			if e.SettledAt.Valid {
				settled := e.SettledAt.Time
				record.SettledAt = &settled
			}
			doc.Ledger = append(doc.Ledger, record)
		}
		if int32(len(rows)) < exportPage {
			break
		}
	}
	return doc, nil
}

const exportPage int32 = 500

func (s *Service) exportOrder(ctx context.Context, orders repo.Orders, o repo.Order) (Order, error) {
	record := Order{
		CustomerName:     repo.TextString(o.CustomerName),
		Status:           o.Status,
		Total:            o.Total,
		AmountPaid:       o.AmountPaid,
		Remaining:        o.Remaining,
		InstallmentCount: o.InstallmentCount,
		Notes:            repo.TextString(o.Notes),
		CreatedAt:        repo.TimeValue(o.CreatedAt),
	}
	items, err := orders.ListItems(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	for _, it := range items {
		record.Items = append(record.Items, Item{
			Name:           it.Name,
			Mode:           it.Mode,
			UnitPrice:      it.UnitPrice,
			Quantity:       it.Quantity,
			Total:          it.Total,
			VariationLabel: repo.TextString(it.VariationLabel),
			FinishingLabel: repo.TextString(it.FinishingLabel),
			Note:           repo.TextString(it.Note),
			Width:          it.Width,
			Height:         it.Height,
		})
	}
	payments, err := orders.ListPayments(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	for _, p := range payments {
		entry := Payment{Amount: p.Amount, Pending: p.Pending, Method: repo.TextString(p.Method)}
		if p.PaidAt.Valid {
			paid := p.PaidAt.Time
			entry.PaidAt = &paid
		}
		record.Payments = append(record.Payments, entry)
	}
	return record, nil
}

// Import inserts the document's records, skipping likely duplicates. The
// dedup keys are heuristic: (name, document) for parties, name for products
// and (created minute, total, customer name) for orders. False positives and
// negatives are accepted; a failing record is counted and logged, never fatal.
func (s *Service) Import(ctx context.Context, doc Document) (Report, error) {
	if s == nil || s.Pool == nil {
		return Report{}, errors.New("backup service not configured")
	}
	var report Report

	customers := repo.Customers{DB: s.Pool}
	for _, c := range doc.Customers {
		if c.Name == "" {
			report.Customers.Failed++
			continue
		}
		exists, err := customers.ExistsByNameDocument(ctx, c.Name, c.Document)
		if err != nil {
			return report, err
		}
		if exists {
			s.count("customers", "skipped", &report.Customers.Skipped)
			continue
		}
		err = customers.Insert(ctx, repo.Customer{
			ID:       repo.NewID(),
			Name:     c.Name,
			Document: repo.ToText(c.Document),
			Phone:    repo.ToText(c.Phone),
			Email:    repo.ToText(c.Email),
			Address:  repo.ToText(c.Address),
			Notes:    repo.ToText(c.Notes),
		})
		s.tally("customers", err, &report.Customers)
	}

	suppliers := repo.Suppliers{DB: s.Pool}
	for _, sup := range doc.Suppliers {
		if sup.Name == "" {
			report.Suppliers.Failed++
			continue
		}
		exists, err := suppliers.ExistsByNameDocument(ctx, sup.Name, sup.Document)
		if err != nil {
			return report, err
		}
		if exists {
			s.count("suppliers", "skipped", &report.Suppliers.Skipped)
			continue
		}
		err = suppliers.Insert(ctx, repo.Supplier{
			ID:       repo.NewID(),
			Name:     sup.Name,
			Document: repo.ToText(sup.Document),
			Phone:    repo.ToText(sup.Phone),
			Email:    repo.ToText(sup.Email),
			Address:  repo.ToText(sup.Address),
			Notes:    repo.ToText(sup.Notes),
		})
		s.tally("suppliers", err, &report.Suppliers)
	}

	products := repo.Products{DB: s.Pool}
	for _, p := range doc.Products {
		if p.Name == "" {
			report.Products.Failed++
			continue
		}
		exists, err := products.ExistsByName(ctx, p.Name)
		if err != nil {
			return report, err
		}
		if exists {
			s.count("products", "skipped", &report.Products.Skipped)
			continue
		}
		err = s.importProduct(ctx, p)
		s.tally("products", err, &report.Products)
	}

	orders := repo.Orders{DB: s.Pool}
	for _, o := range doc.Orders {
		exists, err := orders.ExistsSimilar(ctx, o.CreatedAt, o.Total, o.CustomerName)
		if err != nil {
			return report, err
		}
		if exists {
			s.count("orders", "skipped", &report.Orders.Skipped)
			continue
		}
		err = s.importOrder(ctx, o)
		s.tally("orders", err, &report.Orders)
	}

	ledger := repo.Ledger{DB: s.Pool}
	for _, e := range doc.Ledger {
		if e.Kind != "receivable" && e.Kind != "payable" {
			report.Ledger.Failed++
			continue
		}
		entry := repo.LedgerEntry{
			ID:           repo.NewID(),
			Kind:         e.Kind,
			Counterparty: e.Counterparty,
			Description:  repo.ToText(e.Description),
			Amount:       e.Amount,
			Status:       e.Status,
		}
		if entry.Status == "" {
			entry.Status = "open"
		}
		if e.DueDate != nil {
			entry.DueDate = repo.ToTimestamptz(*e.DueDate)
		}
		err := ledger.Insert(ctx, entry)
		s.tally("ledger", err, &report.Ledger)
	}

	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicBackupImported, report)
	}
	return report, nil
}

func (s *Service) importProduct(ctx context.Context, p Product) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	products := repo.Products{DB: tx}
	id := repo.NewID()
	mode := p.Mode
	if mode == "" {
		mode = "quantity"
	}
	if err := products.Insert(ctx, repo.Product{
		ID:        id,
		Name:      p.Name,
		Mode:      mode,
		BasePrice: p.BasePrice,
		Unit:      repo.ToText(p.Unit),
		Active:    p.Active,
	}); err != nil {
		return err
	}
	for i, v := range p.Variations {
		if err := products.InsertVariation(ctx, repo.ProductVariation{
			ID:        repo.NewID(),
			ProductID: id,
			Label:     v.Label,
			UnitPrice: v.UnitPrice,
			Position:  int32(i),
		}); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Service) importOrder(ctx context.Context, o Order) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	orders := repo.Orders{DB: tx}
	id := repo.NewID()
	status := o.Status
	if status == "" {
		status = "paid"
	}
	if err := orders.Insert(ctx, repo.Order{
		ID:               id,
		CustomerName:     repo.ToText(o.CustomerName),
		Status:           status,
		Total:            o.Total,
		AmountPaid:       o.AmountPaid,
		Remaining:        o.Remaining,
		InstallmentCount: o.InstallmentCount,
		Notes:            repo.ToText(o.Notes),
		CreatedAt:        repo.ToTimestamptz(o.CreatedAt),
	}); err != nil {
		return err
	}
	for i, it := range o.Items {
		if err := orders.InsertItem(ctx, repo.OrderItem{
			ID:             repo.NewID(),
			OrderID:        id,
			Name:           it.Name,
			Mode:           it.Mode,
			UnitPrice:      it.UnitPrice,
			Quantity:       it.Quantity,
			Total:          it.Total,
			VariationLabel: repo.ToText(it.VariationLabel),
			FinishingLabel: repo.ToText(it.FinishingLabel),
			Note:           repo.ToText(it.Note),
			Width:          it.Width,
			Height:         it.Height,
			Position:       int32(i),
		}); err != nil {
			return err
		}
	}
	for i, p := range o.Payments {
		payment := repo.Payment{
			ID:       repo.NewID(),
			OrderID:  id,
			Amount:   p.Amount,
			Pending:  p.Pending,
			Method:   repo.ToText(p.Method),
			Position: int32(i),
		}
		if p.PaidAt != nil {
			payment.PaidAt = repo.ToTimestamptz(*p.PaidAt)
		}
		if err := orders.InsertPayment(ctx, payment); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *Service) tally(collection string, err error, count *Count) {
	if err != nil {
		count.Failed++
		s.Logger.Warn().Err(err).Str("collection", collection).Msg("backup record import failed")
		if obs.BackupImportRecords != nil {
			obs.BackupImportRecords.WithLabelValues(collection, "failed").Inc()
		}
		return
	}
	count.Imported++
	if obs.BackupImportRecords != nil {
		obs.BackupImportRecords.WithLabelValues(collection, "imported").Inc()
	}
}

func (s *Service) count(collection, result string, field *int) {
	*field++
	if obs.BackupImportRecords != nil {
		obs.BackupImportRecords.WithLabelValues(collection, result).Inc()
	}
}
