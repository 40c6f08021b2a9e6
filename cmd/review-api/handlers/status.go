package handlers

import (
	"errors"
	"net/http"

	"github.com/slidegate/review-engine/internal/observability"
	"github.com/slidegate/review-engine/internal/status"
)

// StatusHandler serves job status queries.
type StatusHandler struct {
	logger   *observability.Logger
	statuses status.Store
}

// NewStatusHandler creates a status handler.
func NewStatusHandler(logger *observability.Logger, statuses status.Store) *StatusHandler {
	return &StatusHandler{logger: logger, statuses: statuses}
}

// Status handles GET /api/v1/status?s3_key=…
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobKey := r.URL.Query().Get("s3_key")
	if jobKey == "" {
		writeError(w, http.StatusBadRequest, "missing required s3_key parameter")
		return
	}

	rec, err := h.statuses.Get(r.Context(), jobKey)
	if errors.Is(err, status.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no status found for the given key")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("job_key", jobKey).Msg("status lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to look up status")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
