package backup

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/graficaloja/backend-pdv/internal/common"
	"github.com/graficaloja/backend-pdv/internal/jobs"
)

// Handler exposes the export download and the import upload. Uploads are
// parked in Redis and processed by the worker so a large restore never ties
// up a request.
type Handler struct {
	Svc        *Service
	R          *redis.Client
	Queue      *asynq.Client
	MaxBytes   int64
	PayloadTTL time.Duration
}

// Export streams the full dataset as a JSON attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "backup service not configured", nil)
		return
	}
	doc, err := h.Svc.Export(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	filename := fmt.Sprintf("backup-%s.json", doc.ExportedAt.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	common.JSON(w, http.StatusOK, doc)
}

// Import validates the upload, stores it and enqueues the worker job. With
// no queue configured the import runs inline, which keeps dev setups simple.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "backup service not configured", nil)
		return
	}
	limit := h.MaxBytes
	if limit <= 0 {
		limit = 16 << 20
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "failed to read payload", nil)
		return
	}
	doc, err := ParseDocument(body, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	if h.Queue == nil || h.R == nil {
		report, err := h.Svc.Import(r.Context(), doc)
		if err != nil {
			common.RenderError(w, err)
			return
		}
		common.JSON(w, http.StatusOK, map[string]any{"data": report})
		return
	}

	ttl := h.PayloadTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	key := "backup:payload:" + uuid.NewString()
	if err := h.R.Set(r.Context(), key, body, ttl).Err(); err != nil {
		common.RenderError(w, err)
		return
	}
	task, err := jobs.NewBackupImportTask(key)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	info, err := h.Queue.EnqueueContext(r.Context(), task)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]string{
		"jobId":  info.ID,
		"status": "queued",
	}})
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrInvalidDocument) {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	common.RenderError(w, err)
}
