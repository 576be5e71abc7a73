package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-metrics/internal/api/middleware"
	"github.com/dvloznov/finance-metrics/internal/jobs"
	"github.com/dvloznov/finance-metrics/internal/report"
)

// DatasetHandler handles dataset status and reload endpoints.
type DatasetHandler struct {
	svc           *report.Service
	publisher     jobs.Publisher
	store         jobs.JobStore
	defaultSource string
	log           zerolog.Logger
}

// NewDatasetHandler creates a new dataset handler. defaultSource is reloaded
// when a request names no source.
func NewDatasetHandler(svc *report.Service, publisher jobs.Publisher, store jobs.JobStore, defaultSource string, log zerolog.Logger) *DatasetHandler {
	return &DatasetHandler{
		svc:           svc,
		publisher:     publisher,
		store:         store,
		defaultSource: defaultSource,
		log:           log,
	}
}

// Status handles GET /api/dataset
func (h *DatasetHandler) Status(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Info()
	if err != nil {
		writeServiceError(w, h.log, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, info)
}

// Reload handles POST /api/dataset/reload
func (h *DatasetHandler) Reload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source string `json:"source"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = h.defaultSource
	}
	if source == "" {
		middleware.WriteError(w, http.StatusBadRequest, "source is required")
		return
	}

	job := &jobs.ReloadDatasetJob{
		Source:    source,
		CreatedAt: time.Now(),
	}
	if err := h.publisher.PublishReload(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("source", source).Msg("Failed to enqueue reload")
		status := http.StatusInternalServerError
		if errors.Is(err, jobs.ErrQueueClosed) {
			status = http.StatusServiceUnavailable
		}
		middleware.WriteError(w, status, "Failed to enqueue reload")
		return
	}

	jobID := job.JobID
	h.log.Info().Str("job_id", jobID).Str("source", source).Msg("Reload enqueued")

	// The queued job may already be running; answer with the stored copy.
	saved, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
			"job_id": jobID,
			"source": source,
		})
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, saved)
}
