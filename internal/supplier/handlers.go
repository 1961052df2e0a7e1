// Package supplier is the registry of material and service providers.
package supplier

import (
	"encoding/json"
	"errors"
	"net/http"
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

// DTO is the public supplier payload.
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

// Handler exposes the supplier registry endpoints.
type Handler struct {
	Suppliers repo.Suppliers
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decode(w, r)
	if !ok {
		return
	}
	row := toRow(repo.NewID(), in)
	if err := h.Suppliers.Insert(r.Context(), row); err != nil {
		common.RenderError(w, err)
		return
	}
	got, err := h.Suppliers.Get(r.Context(), row.ID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toDTO(got)})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := repo.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid supplier id", nil)
		return
	}
	in, ok := decode(w, r)
	if !ok {
		return
	}
	if err := h.Suppliers.Update(r.Context(), toRow(id, in)); err != nil {
		writeError(w, err)
		return
	}
	got, err := h.Suppliers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toDTO(got)})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := repo.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid supplier id", nil)
		return
	}
	got, err := h.Suppliers.Get(r.Context(), id)
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
	rows, err := h.Suppliers.List(r.Context(), r.URL.Query().Get("q"), int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	out := make([]DTO, 0, len(rows))
	for _, s := range rows {
		out = append(out, toDTO(s))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage},
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := repo.ToUUID(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid supplier id", nil)
		return
	}
	if err := h.Suppliers.Delete(r.Context(), id); err != nil {
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
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "supplier not found", nil)
		return
	}
	common.RenderError(w, err)
}

func toRow(id pgtype.UUID, in Payload) repo.Supplier {
	return repo.Supplier{
		ID:       id,
		Name:     in.Name,
		Document: repo.ToText(in.Document),
		Phone:    repo.ToText(in.Phone),
		Email:    repo.ToText(in.Email),
		Address:  repo.ToText(in.Address),
		Notes:    repo.ToText(in.Notes),
	}
}

func toDTO(s repo.Supplier) DTO {
	return DTO{
		ID:        repo.UUIDString(s.ID),
		Name:      s.Name,
		Document:  repo.TextString(s.Document),
		Phone:     repo.TextString(s.Phone),
		Email:     repo.TextString(s.Email),
		Address:   repo.TextString(s.Address),
		Notes:     repo.TextString(s.Notes),
		CreatedAt: repo.TimeValue(s.CreatedAt),
		UpdatedAt: repo.TimeValue(s.UpdatedAt),
	}
}
