// Package printdoc renders printable HTML documents from finalised data:
// customer receipts, production order slips and cash session summaries.
// Monetary values are formatted to two decimals here and nowhere earlier.
package printdoc

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
	"time"

	"github.com/graficaloja/backend-pdv/internal/obs"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer holds the parsed document templates.
type Renderer struct {
	ShopName string
	Currency string
	tmpl     *template.Template
}

// ReceiptLine is one printed item row.
type ReceiptLine struct {
	Name        string
	Description string
	Quantity    int
	UnitPrice   float64
	Total       float64
}

// ReceiptPayment is one printed payment row.
type ReceiptPayment struct {
	Amount  float64
	Pending bool
	Method  string
	PaidAt  time.Time
}

// ReceiptData feeds the customer receipt and the order slip.
type ReceiptData struct {
	OrderID      string
	CustomerName string
	CreatedAt    time.Time
	Lines        []ReceiptLine
	Payments     []ReceiptPayment
	Total        float64
	AmountPaid   float64
	Remaining    float64
	Installments int
	Notes        string
}

// CashSummaryMovement is one printed drawer movement.
type CashSummaryMovement struct {
	Kind        string
	Description string
	Amount      float64
	CreatedAt   time.Time
}

// CashSummaryData feeds the session close report.
type CashSummaryData struct {
	SessionID    string
	OpenedAt     time.Time
	ClosedAt     time.Time
	OpeningFloat float64
	Movements    []CashSummaryMovement
	Expected     float64
	Counted      float64
	Delta        float64
}

// NewRenderer parses the embedded templates.
func NewRenderer(shopName, currency string) (*Renderer, error) {
	r := &Renderer{ShopName: shopName, Currency: currency}
	tmpl, err := template.New("printdoc").Funcs(template.FuncMap{
		"money":    r.money,
		"datetime": formatDateTime,
		"date":     formatDate,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("printdoc: parse templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Receipt writes the customer receipt.
func (r *Renderer) Receipt(w io.Writer, data ReceiptData) error {
	return r.render(w, "receipt.tmpl", "receipt", data)
}

// OrderSlip writes the production order slip for the workshop.
func (r *Renderer) OrderSlip(w io.Writer, data ReceiptData) error {
	return r.render(w, "order_slip.tmpl", "order_slip", data)
}

// CashSummary writes the session close report.
func (r *Renderer) CashSummary(w io.Writer, data CashSummaryData) error {
	return r.render(w, "cash_summary.tmpl", "cash_summary", data)
}

func (r *Renderer) render(w io.Writer, name, kind string, data any) error {
	if r == nil || r.tmpl == nil {
		return fmt.Errorf("printdoc: renderer not configured")
	}
	payload := struct {
		ShopName string
		Data     any
	}{ShopName: r.ShopName, Data: data}
	if err := r.tmpl.ExecuteTemplate(w, name, payload); err != nil {
		return fmt.Errorf("printdoc: render %s: %w", kind, err)
	}
	if obs.DocumentsRendered != nil {
		obs.DocumentsRendered.WithLabelValues(kind).Inc()
	}
	return nil
}

// money renders a float as a pt-BR currency string, e.g. "R$ 1.234,50".
func (r *Renderer) money(v float64) string {
	return r.Currency + " " + FormatAmount(v)
}

// FormatAmount formats a float to two decimals with comma as the decimal
// separator and dots grouping thousands.
func FormatAmount(v float64) string {
	negative := math.Signbit(v) && v != 0
	cents := int64(math.Round(math.Abs(v) * 100))
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var grouped strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(d)
	}
	out := fmt.Sprintf("%s,%02d", grouped.String(), frac)
	if negative {
		return "-" + out
	}
	return out
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006 15:04")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}
