package cashbook

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/graficaloja/backend-pdv/internal/common"
	"github.com/graficaloja/backend-pdv/internal/pricing"
	"github.com/graficaloja/backend-pdv/internal/repo"
)

// Handler exposes the cash register endpoints.
type Handler struct {
	Svc *Service
}

// SessionDTO is the public session payload.
type SessionDTO struct {
	ID            string        `json:"id"`
	OpenedAt      time.Time     `json:"openedAt"`
	ClosedAt      *time.Time    `json:"closedAt,omitempty"`
	OpeningFloat  float64       `json:"openingFloat"`
	CountedAmount float64       `json:"countedAmount"`
	Note          string        `json:"note,omitempty"`
	Movements     []MovementDTO `json:"movements,omitempty"`
}

// MovementDTO is one drawer movement.
type MovementDTO struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	OrderID     string    `json:"orderId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var in OpenPayload
	if !decode(w, r, &in) {
		return
	}
	session, err := h.Svc.Open(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toSessionDTO(session, nil)})
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	session, movements, err := h.Svc.Current(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toSessionDTO(session, movements)})
}

func (h *Handler) AddMovement(w http.ResponseWriter, r *http.Request) {
	var in MovementPayload
	if !decode(w, r, &in) {
		return
	}
	movement, err := h.Svc.AddMovement(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toMovementDTO(movement)})
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	var in ClosePayload
	if !decode(w, r, &in) {
		return
	}
	summary, err := h.Svc.Close(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
		"session":  toSessionDTO(summary.Session, summary.Movements),
		"expected": summary.Expected,
		"counted":  summary.Counted,
		"delta":    summary.Delta,
	}})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	session, movements, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toSessionDTO(session, movements)})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if err := common.ValidateStruct(dst); err != nil {
		common.RenderError(w, err)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionOpen):
		common.JSONError(w, http.StatusConflict, "SESSION_OPEN", "a cash session is already open", nil)
	case errors.Is(err, repo.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cash session not found", nil)
	case errors.Is(err, pricing.ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	default:
		common.RenderError(w, err)
	}
}

func toSessionDTO(s repo.CashSession, movements []repo.CashMovement) SessionDTO {
	dto := SessionDTO{
		ID:            repo.UUIDString(s.ID),
		OpenedAt:      repo.TimeValue(s.OpenedAt),
		OpeningFloat:  s.OpeningFloat,
		CountedAmount: s.CountedAmount,
		Note:          repo.TextString(s.Note),
	}
	if s.ClosedAt.Valid {
		closed := s.ClosedAt.Time
		dto.ClosedAt = &closed
	}
	for _, m := range movements {
		dto.Movements = append(dto.Movements, toMovementDTO(m))
	}
	return dto
}

func toMovementDTO(m repo.CashMovement) MovementDTO {
	return MovementDTO{
		ID:          repo.UUIDString(m.ID),
		Kind:        m.Kind,
		Amount:      m.Amount,
		Description: repo.TextString(m.Description),
		OrderID:     repo.UUIDString(m.OrderID),
		CreatedAt:   repo.TimeValue(m.CreatedAt),
	}
}
