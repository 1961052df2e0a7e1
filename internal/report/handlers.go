package report

import (
	"net/http"
	"time"

	"github.com/graficaloja/backend-pdv/internal/common"
)

// Handler exposes the reporting endpoints.
type Handler struct {
	Svc *Service
}

func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}
	rows, err := h.Svc.Sales(r.Context(), from, to)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}
	limit := int32(common.AtoiDefault(r.URL.Query().Get("limit"), 10))
	rows, err := h.Svc.TopProducts(r.Context(), from, to, limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

func (h *Handler) Position(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseWindow(w, r)
	if !ok {
		return
	}
	position, err := h.Svc.Position(r.Context(), from, to)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": position})
}

func parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "from must be YYYY-MM-DD", nil)
			return from, to, false
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "to must be YYYY-MM-DD", nil)
			return from, to, false
		}
		to = parsed
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "to must not precede from", nil)
		return from, to, false
	}
	return from, to, true
}
