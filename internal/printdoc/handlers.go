package printdoc

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/graficaloja/backend-pdv/internal/common"
	"github.com/graficaloja/backend-pdv/internal/repo"
)

// Handler renders printable documents straight from storage.
type Handler struct {
	Renderer *Renderer
	Orders   repo.Orders
	Cashbook repo.Cashbook
}

// Receipt renders the customer receipt for an order.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	h.renderOrder(w, r, h.Renderer.Receipt)
}

// OrderSlip renders the production slip for the workshop.
func (h *Handler) OrderSlip(w http.ResponseWriter, r *http.Request) {
	h.renderOrder(w, r, h.Renderer.OrderSlip)
}

func (h *Handler) renderOrder(w http.ResponseWriter, r *http.Request, render func(w io.Writer, data ReceiptData) error) {
	id, err := repo.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	data, err := h.loadReceiptData(r, id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render(w, data); err != nil {
		common.RenderError(w, err)
	}
}

// CashSummary renders the close report for a cash session.
func (h *Handler) CashSummary(w http.ResponseWriter, r *http.Request) {
	id, err := repo.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid session id", nil)
		return
	}
	session, err := h.Cashbook.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	movements, err := h.Cashbook.ListMovements(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	data := CashSummaryData{
		SessionID:    repo.UUIDString(session.ID),
		OpenedAt:     repo.TimeValue(session.OpenedAt),
		ClosedAt:     repo.TimeValue(session.ClosedAt),
		OpeningFloat: session.OpeningFloat,
		Counted:      session.CountedAmount,
	}
	expected := session.OpeningFloat
	for _, m := range movements {
		expected += m.Amount
		data.Movements = append(data.Movements, CashSummaryMovement{
			Kind:        m.Kind,
			Description: repo.TextString(m.Description),
			Amount:      m.Amount,
			CreatedAt:   repo.TimeValue(m.CreatedAt),
		})
	}
	data.Expected = expected
	data.Delta = session.CountedAmount - expected

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Renderer.CashSummary(w, data); err != nil {
		common.RenderError(w, err)
	}
}

func (h *Handler) loadReceiptData(r *http.Request, id pgtype.UUID) (ReceiptData, error) {
	order, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		return ReceiptData{}, err
	}
	items, err := h.Orders.ListItems(r.Context(), id)
	if err != nil {
		return ReceiptData{}, err
	}
	payments, err := h.Orders.ListPayments(r.Context(), id)
	if err != nil {
		return ReceiptData{}, err
	}
	data := ReceiptData{
		OrderID:      repo.UUIDString(order.ID),
		CustomerName: repo.TextString(order.CustomerName),
		CreatedAt:    repo.TimeValue(order.CreatedAt),
		Total:        order.Total,
		AmountPaid:   order.AmountPaid,
		Remaining:    order.Remaining,
		Installments: int(order.InstallmentCount),
		Notes:        repo.TextString(order.Notes),
	}
	for _, it := range items {
		data.Lines = append(data.Lines, ReceiptLine{
			Name:        it.Name,
			Description: lineDescription(it),
			Quantity:    int(it.Quantity),
			UnitPrice:   it.UnitPrice,
			Total:       it.Total,
		})
	}
	for _, p := range payments {
		data.Payments = append(data.Payments, ReceiptPayment{
			Amount:  p.Amount,
			Pending: p.Pending,
			Method:  repo.TextString(p.Method),
			PaidAt:  repo.TimeValue(p.PaidAt),
		})
	}
	return data, nil
}

// lineDescription condenses variation, finishing and dimensions for print.
func lineDescription(it repo.OrderItem) string {
	var parts []string
	if it.VariationLabel.Valid {
		parts = append(parts, it.VariationLabel.String)
	}
	if it.FinishingLabel.Valid {
		parts = append(parts, it.FinishingLabel.String)
	}
	if it.Mode == "area" {
		parts = append(parts, fmt.Sprintf("%gx%gm", it.Width, it.Height))
	}
	if it.Note.Valid {
		parts = append(parts, it.Note.String)
	}
	return strings.Join(parts, ", ")
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "document source not found", nil)
		return
	}
	common.RenderError(w, err)
}
