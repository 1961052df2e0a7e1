package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/graficaloja/backend-pdv/internal/common"
	"github.com/graficaloja/backend-pdv/internal/repo"
)

// Handler exposes the receivable/payable endpoints.
type Handler struct {
	Svc *Service
}

// EntryDTO is the public ledger entry payload.
type EntryDTO struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Counterparty string     `json:"counterparty"`
	Description  string     `json:"description,omitempty"`
	Amount       float64    `json:"amount"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	Status       string     `json:"status"`
	SettledAt    *time.Time `json:"settledAt,omitempty"`
	OrderID      string     `json:"orderId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "ledger service not configured", nil)
		return
	}
	var in EntryPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := common.ValidateStruct(in); err != nil {
		common.RenderError(w, err)
		return
	}
	entry, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toDTO(entry)})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	if perPage > 200 {
		perPage = 200
	}
	entries, err := h.Svc.List(r.Context(),
		r.URL.Query().Get("kind"),
		r.URL.Query().Get("status"),
		int32(perPage), int32((page-1)*perPage))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]EntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toDTO(e))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage},
	})
}

func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Svc.Settle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toDTO(entry)})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, repo.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "open entry not found", nil)
	default:
		common.RenderError(w, err)
	}
}

func toDTO(e repo.LedgerEntry) EntryDTO {
	dto := EntryDTO{
		ID:           repo.UUIDString(e.ID),
		Kind:         e.Kind,
		Counterparty: e.Counterparty,
		Description:  repo.TextString(e.Description),
		Amount:       e.Amount,
		Status:       e.Status,
		OrderID:      repo.UUIDString(e.OrderID),
		CreatedAt:    repo.TimeValue(e.CreatedAt),
	}
	if e.DueDate.Valid {
		due := e.DueDate.Time
		dto.DueDate = &due
	}
	if e.SettledAt.Valid {
		settled := e.SettledAt.Time
		dto.SettledAt = &settled
	}
	return dto
}
