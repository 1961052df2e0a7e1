// Package customer is the client registry behind sales and receivables.
package customer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/graficaloja/backend-pdv/internal/common"
	"github.com/graficaloja/backend-pdv/internal/repo"
)

// Payload is the create/update input.
type Payload struct {
	Name     string `json:"name" validate:"required,min=2,max=160"`
	Document string `json:"document" validate:"max=32"`
	Phone    string `json:"phone" validate:"max=32"`
	Email    string `json:"email" validate:"omitempty,email"`
	Address  string `json:"address" validate:"max=240"`
	Notes    string `json:"notes" validate:"max=500"`
}

// DTO is the public customer payload.
type DTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"document,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Handler exposes the customer registry endpoints.
type Handler struct {
	Customers repo.Customers
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decode(w, r)
	if !ok {
		return
	}
	row := toRow(repo.NewID(), in)
	if err := h.Customers.Insert(r.Context(), row); err != nil {
		common.RenderError(w, err)
		return
	}
	got, err := h.Customers.Get(r.Context(), row.ID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toDTO(got)})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := repo.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid customer id", nil)
		return
	}
	in, ok := decode(w, r)
	if !ok {
		return
	}
	if err := h.Customers.Update(r.Context(), toRow(id, in)); err != nil {
		writeError(w, err)
		return
	}
	got, err := h.Customers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toDTO(got)})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := repo.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid customer id", nil)
		return
	}
	got, err := h.Customers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toDTO(got)})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	if perPage > 200 {
		perPage = 200
	}
	search := r.URL.Query().Get("q")
	total, err := h.Customers.Count(r.Context(), search)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	rows, err := h.Customers.List(r.Context(), search, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	out := make([]DTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, toDTO(c))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := repo.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid customer id", nil)
		return
	}
	if err := h.Customers.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"status": "deleted"}})
}

func decode(w http.ResponseWriter, r *http.Request) (Payload, bool) {
	var in Payload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return Payload{}, false
	}
	if err := common.ValidateStruct(in); err != nil {
		common.RenderError(w, err)
		return Payload{}, false
	}
	return in, true
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, repo.ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "customer not found", nil)
		return
	}
	common.RenderError(w, err)
}

func toRow(id pgtype.UUID, in Payload) repo.Customer {
	return repo.Customer{
		ID:       id,
		Name:     in.Name,
		Document: repo.ToText(in.Document),
		Phone:    repo.ToText(in.Phone),
		Email:    repo.ToText(in.Email),
		Address:  repo.ToText(in.Address),
		Notes:    repo.ToText(in.Notes),
	}
}

func toDTO(c repo.Customer) DTO {
	return DTO{
		ID:        repo.UUIDString(c.ID),
		Name:      c.Name,
		Document:  repo.TextString(c.Document),
		Phone:     repo.TextString(c.Phone),
		Email:     repo.TextString(c.Email),
		Address:   repo.TextString(c.Address),
		Notes:     repo.TextString(c.Notes),
		CreatedAt: repo.TimeValue(c.CreatedAt),
		UpdatedAt: repo.TimeValue(c.UpdatedAt),
	}
}
