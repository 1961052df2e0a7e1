// Package order exposes the read side of finalised sales.
package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/graficaloja/backend-pdv/internal/common"
	"github.com/graficaloja/backend-pdv/internal/repo"
)

type Handler struct {
	Orders repo.Orders
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	offset := int32((page - 1) * perPage)
	status := r.URL.Query().Get("status")

	total, err := h.Orders.Count(r.Context(), status)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Orders.List(r.Context(), status, int32(perPage), offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	response := make([]map[string]any, 0, len(orders))
	for _, ord := range orders {
		response = append(response, headerJSON(ord))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": response,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := repo.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	ord, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	items, err := h.Orders.ListItems(r.Context(), id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	payments, err := h.Orders.ListPayments(r.Context(), id)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order payments", nil)
		return
	}

	responseItems := make([]map[string]any, 0, len(items))
	for _, it := range items {
		entry := map[string]any{
			"id":        repo.UUIDString(it.ID),
			"productId": repo.UUIDString(it.ProductID),
			"name":      it.Name,
			"mode":      it.Mode,
			"unitPrice": it.UnitPrice,
			"quantity":  it.Quantity,
			"total":     it.Total,
		}
		if it.VariationLabel.Valid {
			entry["variationLabel"] = it.VariationLabel.String
		}
		if it.FinishingLabel.Valid {
			entry["finishingLabel"] = it.FinishingLabel.String
		}
		if it.Note.Valid {
			entry["note"] = it.Note.String
		}
		if it.Mode == "area" {
			entry["width"] = it.Width
			entry["height"] = it.Height
		}
		responseItems = append(responseItems, entry)
	}

	responsePayments := make([]map[string]any, 0, len(payments))
	for _, p := range payments {
		entry := map[string]any{
			"id":      repo.UUIDString(p.ID),
			"amount":  p.Amount,
			"pending": p.Pending,
		}
		if p.Method.Valid {
			entry["method"] = p.Method.String
		}
		if p.PaidAt.Valid {
			entry["paidAt"] = p.PaidAt.Time
		}
		responsePayments = append(responsePayments, entry)
	}

	body := headerJSON(ord)
	body["items"] = responseItems
	body["payments"] = responsePayments
	common.JSON(w, http.StatusOK, map[string]any{"data": body})
}

func headerJSON(ord repo.Order) map[string]any {
	entry := map[string]any{
		"id":               repo.UUIDString(ord.ID),
		"status":           ord.Status,
		"total":            ord.Total,
		"amountPaid":       ord.AmountPaid,
		"remaining":        ord.Remaining,
		"installmentCount": ord.InstallmentCount,
		"createdAt":        repo.TimeValue(ord.CreatedAt),
		"updatedAt":        repo.TimeValue(ord.UpdatedAt),
	}
	if ord.CustomerID.Valid {
		entry["customerId"] = repo.UUIDString(ord.CustomerID)
	}
	if ord.CustomerName.Valid {
		entry["customerName"] = ord.CustomerName.String
	}
	if ord.Notes.Valid {
		entry["notes"] = ord.Notes.String
	}
	return entry
}
