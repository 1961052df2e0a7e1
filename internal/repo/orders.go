package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Order is a finalised sale with its payment summary.
type Order struct {
	ID               pgtype.UUID
	CustomerID       pgtype.UUID
	CustomerName     pgtype.Text
	Status           string
	Total            float64
	AmountPaid       float64
	Remaining        float64
	InstallmentCount int32
	Notes            pgtype.Text
	CreatedAt        pgtype.Timestamptz
	UpdatedAt        pgtype.Timestamptz
}

// OrderItem is a snapshot of a cart line at finalisation time.
type OrderItem struct {
	ID             pgtype.UUID
	OrderID        pgtype.UUID
	ProductID      pgtype.UUID
	Name           string
	Mode           string
	UnitPrice      float64
	Quantity       int32
	Total          float64
	VariationLabel pgtype.Text
	FinishingLabel pgtype.Text
	Note           pgtype.Text
	Width          float64
	Height         float64
	Position       int32
}

// Payment is one entry of an order's payment breakdown.
type Payment struct {
	ID       pgtype.UUID
	OrderID  pgtype.UUID
	Amount   float64
	Pending  bool
	Method   pgtype.Text
	PaidAt   pgtype.Timestamptz
	Position int32
}

// Orders gives access to the orders aggregate.
type Orders struct {
	DB DBTX
}

// Insert stores the order header.
func (r Orders) Insert(ctx context.Context, o Order) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO orders (id, customer_id, customer_name, status, total, amount_paid, remaining, installment_count, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		o.ID, o.CustomerID, o.CustomerName, o.Status, o.Total, o.AmountPaid, o.Remaining, o.InstallmentCount, o.Notes, o.CreatedAt)
	return err
}

// UpdateSummary rewrites the mutable header fields of an existing order.
func (r Orders) UpdateSummary(ctx context.Context, o Order) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET customer_id = $2, customer_name = $3, status = $4, total = $5,
		    amount_paid = $6, remaining = $7, installment_count = $8, notes = $9, updated_at = now()
		WHERE id = $1`,
		o.ID, o.CustomerID, o.CustomerName, o.Status, o.Total, o.AmountPaid, o.Remaining, o.InstallmentCount, o.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads an order header by id.
func (r Orders) Get(ctx context.Context, id pgtype.UUID) (Order, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, customer_id, customer_name, status, total, amount_paid, remaining, installment_count, notes, created_at, updated_at
		FROM orders WHERE id = $1`, id)
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.Status, &o.Total, &o.AmountPaid, &o.Remaining, &o.InstallmentCount, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// List returns orders newest first, optionally filtered by payment status.
func (r Orders) List(ctx context.Context, status string, limit, offset int32) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, customer_id, customer_name, status, total, amount_paid, remaining, installment_count, notes, created_at, updated_at
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.Status, &o.Total, &o.AmountPaid, &o.Remaining, &o.InstallmentCount, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Count returns the number of orders matching the status filter.
func (r Orders) Count(ctx context.Context, status string) (int64, error) {
	var total int64
	err := r.DB.QueryRow(ctx, `SELECT count(*) FROM orders WHERE ($1 = '' OR status = $1)`, status).Scan(&total)
	return total, err
}

// InsertItem stores one order item row.
func (r Orders) InsertItem(ctx context.Context, it OrderItem) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO order_items (id, order_id, product_id, name, mode, unit_price, qty, total, variation_label, finishing_label, note, width, height, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		it.ID, it.OrderID, it.ProductID, it.Name, it.Mode, it.UnitPrice, it.Quantity, it.Total, it.VariationLabel, it.FinishingLabel, it.Note, it.Width, it.Height, it.Position)
	return err
}

// ListItems returns the items of an order in their original order.
func (r Orders) ListItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, product_id, name, mode, unit_price, qty, total, variation_label, finishing_label, note, width, height, position
		FROM order_items WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Mode, &it.UnitPrice, &it.Quantity, &it.Total, &it.VariationLabel, &it.FinishingLabel, &it.Note, &it.Width, &it.Height, &it.Position); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// DeleteItems removes all items of an order; used by the replace flow.
func (r Orders) DeleteItems(ctx context.Context, orderID pgtype.UUID) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

// InsertPayment stores one payment entry.
func (r Orders) InsertPayment(ctx context.Context, p Payment) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO order_payments (id, order_id, amount, pending, method, paid_at, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.OrderID, p.Amount, p.Pending, p.Method, p.PaidAt, p.Position)
	return err
}

// ListPayments returns an order's payment entries in sequence.
func (r Orders) ListPayments(ctx context.Context, orderID pgtype.UUID) ([]Payment, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, amount, pending, method, paid_at, position
		FROM order_payments WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.Pending, &p.Method, &p.PaidAt, &p.Position); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePayments removes all payment entries of an order; used by the replace flow.
func (r Orders) DeletePayments(ctx context.Context, orderID pgtype.UUID) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM order_payments WHERE order_id = $1`, orderID)
	return err
}

// ExistsSimilar reports whether an order with the same creation minute, total
// and customer name already exists. Backs the approximate dedup check used
// when importing a backup file.
func (r Orders) ExistsSimilar(ctx context.Context, createdAt time.Time, total float64, customerName string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE date_trunc('minute', created_at) = date_trunc('minute', $1::timestamptz)
			  AND total = $2
			  AND coalesce(customer_name, '') = $3
		)`, createdAt, total, customerName).Scan(&exists)
	return exists, err
}
