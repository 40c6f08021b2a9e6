package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/slidegate/review-engine/internal/objectstore"
	"github.com/slidegate/review-engine/internal/observability"
	"github.com/slidegate/review-engine/internal/review"
	"github.com/slidegate/review-engine/internal/status"
)

// ResultHandler serves finished review reports.
type ResultHandler struct {
	logger   *observability.Logger
	objects  objectstore.Store
	statuses status.Store
	bucket   string
}

// NewResultHandler creates a result handler reading artifacts from the given bucket.
func NewResultHandler(logger *observability.Logger, objects objectstore.Store, statuses status.Store, bucket string) *ResultHandler {
	return &ResultHandler{logger: logger, objects: objects, statuses: statuses, bucket: bucket}
}

// ResultResponseDTO merges the persisted report artifact with the job's
// current status record.
type ResultResponseDTO struct {
	JobKey      string         `json:"s3_key"`
	Status      string         `json:"status"`
	LastUpdated string         `json:"last_updated,omitempty"`
	Report      *review.Report `json:"report"`
}

// Result handles GET /api/v1/review-result?s3_key=…
func (h *ResultHandler) Result(w http.ResponseWriter, r *http.Request) {
	jobKey := r.URL.Query().Get("s3_key")
	if jobKey == "" {
		writeError(w, http.StatusBadRequest, "missing required s3_key parameter")
		return
	}

	raw, err := h.objects.FetchBytes(r.Context(), h.bucket, review.ReportKey(jobKey))
	if errors.Is(err, objectstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no review result found for the given key")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("job_key", jobKey).Msg("report fetch failed")
		writeError(w, http.StatusInternalServerError, "failed to fetch review result")
		return
	}

	var report review.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		h.logger.Error().Err(err).Str("job_key", jobKey).Msg("stored report is not valid JSON")
		writeError(w, http.StatusInternalServerError, "stored review result is corrupted")
		return
	}

	resp := ResultResponseDTO{JobKey: jobKey, Report: &report}
	if rec, err := h.statuses.Get(r.Context(), jobKey); err == nil {
		resp.Status = rec.Status
		resp.LastUpdated = rec.LastUpdated
	} else if !errors.Is(err, status.ErrNotFound) {
		h.logger.Warn().Err(err).Str("job_key", jobKey).Msg("status lookup failed while serving result")
	}

	writeJSON(w, http.StatusOK, resp)
}
