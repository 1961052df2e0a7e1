package repo

import (
	"context"
	"time"
)

// SalesDay is one day of aggregated sales.
type SalesDay struct {
	Day        time.Time
	OrderCount int64
	Total      float64
	Paid       float64
}

// TopProduct is one row of the best sellers report.
type TopProduct struct {
	Name     string
	Quantity int64
	Total    float64
}

// MoneyPosition summarizes what has come in against what is still owed.
type MoneyPosition struct {
	Received    float64
	Outstanding float64
	Payables    float64
}

// Reports runs read-only aggregate queries for the reporting endpoints.
type Reports struct {
	DB DBTX
}

// SalesByDay aggregates non-cancelled orders per day within [from, to).
func (r Reports) SalesByDay(ctx context.Context, from, to time.Time) ([]SalesDay, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
		       count(*),
		       coalesce(sum(total), 0),
		       coalesce(sum(amount_paid), 0)
		FROM orders
		WHERE status <> 'cancelled' AND created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalesDay
	for rows.Next() {
		var d SalesDay
		if err := rows.Scan(&d.Day, &d.OrderCount, &d.Total, &d.Paid); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TopProducts ranks items sold within [from, to) by revenue.
func (r Reports) TopProducts(ctx context.Context, from, to time.Time, limit int32) ([]TopProduct, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT i.name, sum(i.qty), sum(i.total)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.status <> 'cancelled' AND o.created_at >= $1 AND o.created_at < $2
		GROUP BY i.name
		ORDER BY sum(i.total) DESC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TopProduct
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.Name, &p.Quantity, &p.Total); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Position sums received money against open receivables and payables.
func (r Reports) Position(ctx context.Context, from, to time.Time) (MoneyPosition, error) {
	var p MoneyPosition
	err := r.DB.QueryRow(ctx, `
		SELECT
			coalesce((SELECT sum(amount_paid) FROM orders
				WHERE status <> 'cancelled' AND created_at >= $1 AND created_at < $2), 0),
			coalesce((SELECT sum(amount) FROM ledger_entries
				WHERE kind = 'receivable' AND status = 'open'), 0),
			coalesce((SELECT sum(amount) FROM ledger_entries
				WHERE kind = 'payable' AND status = 'open'), 0)`,
		from, to).Scan(&p.Received, &p.Outstanding, &p.Payables)
	return p, err
}
