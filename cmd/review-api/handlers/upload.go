package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/slidegate/review-engine/internal/ingest"
	"github.com/slidegate/review-engine/internal/observability"
)

// Uploader accepts one decoded upload.
type Uploader interface {
	HandleUpload(ctx context.Context, req ingest.UploadRequest) (ingest.UploadResult, error)
}

// UploadHandler handles file upload requests.
type UploadHandler struct {
	logger   *observability.Logger
	uploader Uploader
	maxBytes int64
}

// NewUploadHandler creates an upload handler. maxBytes caps the request
// body size; zero disables the cap.
func NewUploadHandler(logger *observability.Logger, uploader Uploader, maxBytes int64) *UploadHandler {
	return &UploadHandler{logger: logger, uploader: uploader, maxBytes: maxBytes}
}

// UploadRequestDTO is the API request for an upload. File carries the
// base64-encoded content.
type UploadRequestDTO struct {
	File     string `json:"file"`
	FileName string `json:"fileName"`
	Prompt   string `json:"prompt,omitempty"`
}

// UploadResponseDTO is the API response for an accepted upload.
type UploadResponseDTO struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	S3Key   string `json:"s3_key"`
}

// Upload handles POST /api/v1/upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	var dto UploadRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dto.File == "" || dto.FileName == "" {
		writeError(w, http.StatusBadRequest, "file and fileName are required")
		return
	}

	data, err := base64.StdEncoding.DecodeString(dto.File)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is not valid base64")
		return
	}

	result, err := h.uploader.HandleUpload(r.Context(), ingest.UploadRequest{
		FileName:     dto.FileName,
		Data:         data,
		CustomPrompt: dto.Prompt,
	})
	if errors.Is(err, ingest.ErrUnsupportedFileType) {
		writeError(w, http.StatusBadRequest, "unsupported file type")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("file_name", dto.FileName).Msg("upload processing failed")
		writeError(w, http.StatusInternalServerError, "failed to process upload")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponseDTO{
		Status:  "success",
		Message: "file accepted for processing",
		S3Key:   result.JobKey,
	})
}
