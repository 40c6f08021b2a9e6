// Package ingest implements the upload stage: it stores the raw file,
// derives the content descriptor (rasterizing slide decks through the
// external rendering service), and enqueues the review job.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slidegate/review-engine/internal/objectstore"
	"github.com/slidegate/review-engine/internal/observability"
	"github.com/slidegate/review-engine/internal/queue"
	"github.com/slidegate/review-engine/internal/review"
	"github.com/slidegate/review-engine/internal/status"
)

// ErrUnsupportedFileType indicates the uploaded file is neither a slide deck
// nor a supported image.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// DescriptorSuffix is the storage suffix of the content descriptor,
// relative to the job key.
const DescriptorSuffix = "content_info.json"

// Rasterizer converts a slide deck into stored per-slide images.
type Rasterizer interface {
	Rasterize(ctx context.Context, bucket, jobKey string, deck []byte) (*review.ContentDescriptor, error)
}

// Service owns the RECEIVED → PROCESSING → WAITING_REVIEW stretch of the
// job lifecycle.
type Service struct {
	log        *observability.Logger
	objects    objectstore.Store
	statuses   status.Store
	rasterizer Rasterizer
	jobs       queue.Queue
	bucket     string
}

// NewService creates the upload-stage service.
func NewService(log *observability.Logger, objects objectstore.Store, statuses status.Store, rasterizer Rasterizer, jobs queue.Queue, bucket string) *Service {
	return &Service{
		log:        log.WithComponent("ingest"),
		objects:    objects,
		statuses:   statuses,
		rasterizer: rasterizer,
		jobs:       jobs,
		bucket:     bucket,
	}
}

// UploadRequest is one decoded upload.
type UploadRequest struct {
	FileName     string
	Data         []byte
	CustomPrompt string
}

// UploadResult reports the job key assigned to an accepted upload.
type UploadResult struct {
	JobKey string
}

// HandleUpload validates the file type, stores the content, writes the
// descriptor, and enqueues the review job. Processing failures after
// acceptance flip the job's status to ERROR before returning.
func (s *Service) HandleUpload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	fileName := strings.ToLower(req.FileName)

	isDeck := strings.HasSuffix(fileName, ".ppt") || strings.HasSuffix(fileName, ".pptx")
	isImage := strings.HasSuffix(fileName, ".jpg") || strings.HasSuffix(fileName, ".jpeg") || strings.HasSuffix(fileName, ".png")
	if !isDeck && !isImage {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFileType, req.FileName)
	}

	jobKey := newJobKey(fileName)
	log := s.log.WithJob(jobKey)
	log.Info().Str("file_name", req.FileName).Int("size", len(req.Data)).Msg("upload accepted")

	s.writeStatus(ctx, log, jobKey, status.StateReceived, "")

	descriptor, err := s.process(ctx, log, jobKey, isDeck, req)
	if err != nil {
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		s.writeStatus(ctx, log, jobKey, status.StateError, string(payload))
		return UploadResult{}, err
	}

	descriptorKey := jobKey + "/" + DescriptorSuffix
	data, err := json.Marshal(descriptor)
	if err == nil {
		err = s.objects.PutObject(ctx, s.bucket, descriptorKey, data, "application/json")
	}
	if err != nil {
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		s.writeStatus(ctx, log, jobKey, status.StateError, string(payload))
		return UploadResult{}, fmt.Errorf("store content descriptor: %w", err)
	}

	s.writeStatus(ctx, log, jobKey, status.StateWaitingReview, "")

	job := review.Job{
		JobKey:        jobKey,
		Bucket:        s.bucket,
		DescriptorKey: descriptorKey,
		CustomPrompt:  req.CustomPrompt,
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		payload, _ := json.Marshal(map[string]string{"error": err.Error()})
		s.writeStatus(ctx, log, jobKey, status.StateError, string(payload))
		return UploadResult{}, fmt.Errorf("enqueue review job: %w", err)
	}

	log.Info().Msg("review job enqueued")
	return UploadResult{JobKey: jobKey}, nil
}

// process stores the raw content and derives the descriptor.
func (s *Service) process(ctx context.Context, log *observability.Logger, jobKey string, isDeck bool, req UploadRequest) (*review.ContentDescriptor, error) {
	if isDeck {
		if err := s.objects.PutObject(ctx, s.bucket, jobKey+"/original", req.Data, "application/octet-stream"); err != nil {
			return nil, fmt.Errorf("store original deck: %w", err)
		}

		s.writeStatus(ctx, log, jobKey, status.StateProcessing, "")

		descriptor, err := s.rasterizer.Rasterize(ctx, s.bucket, jobKey, req.Data)
		if err != nil {
			return nil, fmt.Errorf("rasterize deck: %w", err)
		}
		log.Info().Int("slides", descriptor.ImageCount).Msg("deck rasterized")
		return descriptor, nil
	}

	contentType := "image/png"
	if strings.HasSuffix(strings.ToLower(req.FileName), ".jpg") || strings.HasSuffix(strings.ToLower(req.FileName), ".jpeg") {
		contentType = "image/jpeg"
	}

	if err := s.objects.PutObject(ctx, s.bucket, jobKey, req.Data, contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	return &review.ContentDescriptor{
		SourceFile:       jobKey,
		ContentType:      contentType,
		FileSize:         int64(len(req.Data)),
		UploadTime:       time.Now().Format(time.RFC3339),
		ProcessingMethod: review.MethodDirectImage,
	}, nil
}

// newJobKey builds the job's storage-style identifier:
// {unix time}_{random hex}_{lowercased file name}.
func newJobKey(lowerName string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d_%s_%s", time.Now().Unix(), suffix, lowerName)
}

func (s *Service) writeStatus(ctx context.Context, log *observability.Logger, jobKey, state, results string) {
	if err := s.statuses.Put(ctx, status.NewRecord(jobKey, state, results)); err != nil {
		log.Error().Err(err).Str("state", state).Msg("failed to write status record")
	}
}
