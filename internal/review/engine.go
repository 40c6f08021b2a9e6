package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/slidegate/review-engine/internal/objectstore"
	"github.com/slidegate/review-engine/internal/observability"
	"github.com/slidegate/review-engine/internal/status"
)

// ModelInvoker submits a prompt (plus image bytes for image content) to the
// generative model and returns the raw completion text.
type ModelInvoker interface {
	Invoke(ctx context.Context, d ContentDescriptor, prompt string) (string, error)
}

// Result is the structured response of one review invocation. The engine
// never lets an error escape; failures come back as an error-status Result.
type Result struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Type    string  `json:"type,omitempty"`
	Results *Report `json:"results,omitempty"`
}

// Engine sequences prompt construction, model invocation, and
// classification for one job, and owns the REVIEWING → COMPLETED/ERROR
// status transitions.
type Engine struct {
	log        *observability.Logger
	objects    objectstore.Store
	statuses   status.Store
	model      ModelInvoker
	classifier Classifier
	prompts    PromptBuilder
	bucket     string
}

// EngineConfig wires the engine's collaborators. Bucket is the default
// storage namespace used when a job does not name one.
type EngineConfig struct {
	Objects    objectstore.Store
	Statuses   status.Store
	Model      ModelInvoker
	Classifier Classifier
	Prompts    PromptBuilder
	Bucket     string
}

// NewEngine creates a review engine. Nil classifier/prompt builder fall back
// to the defaults.
func NewEngine(log *observability.Logger, cfg EngineConfig) *Engine {
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = NewKeywordClassifier()
	}
	prompts := cfg.Prompts
	if prompts == nil {
		prompts = NewTemplatePromptBuilder()
	}
	return &Engine{
		log:        log.WithComponent("review-engine"),
		objects:    cfg.Objects,
		statuses:   cfg.Statuses,
		model:      cfg.Model,
		classifier: classifier,
		prompts:    prompts,
		bucket:     cfg.Bucket,
	}
}

// Review drives the full pipeline for one job. Every failure is converted
// into an error Result and mirrored into the status record; a failed status
// write is logged and otherwise ignored.
func (e *Engine) Review(ctx context.Context, job Job) Result {
	log := e.log.WithJob(job.JobKey)

	bucket := job.Bucket
	if bucket == "" {
		bucket = e.bucket
	}

	e.writeStatus(ctx, log, job.JobKey, status.StateReviewing, "")

	descriptor, err := e.fetchDescriptor(ctx, bucket, job.DescriptorKey)
	if err != nil {
		return e.fail(ctx, log, job.JobKey, &PipelineError{Kind: FailureDescriptorFetch, Err: err})
	}

	log.Info().
		Str("source_file", descriptor.SourceFile).
		Str("content_type", descriptor.ContentType).
		Str("processing_method", string(descriptor.ProcessingMethod)).
		Msg("starting content review")

	prompt := e.prompts.BuildPrompt(descriptor, job.CustomPrompt)

	completion, err := e.model.Invoke(ctx, descriptor, prompt)
	if err != nil {
		var pe *PipelineError
		if !errors.As(err, &pe) {
			pe = &PipelineError{Kind: FailureInvocation, Err: err}
		}
		return e.fail(ctx, log, job.JobKey, pe)
	}

	report := e.classifier.Classify(completion)

	serialized, err := json.Marshal(report)
	if err != nil {
		// The report is built from plain strings; this should not happen.
		return e.fail(ctx, log, job.JobKey, &PipelineError{Kind: FailureInvocation, Err: err})
	}

	// Artifact persistence is best effort: status visibility is prioritized
	// over artifact durability.
	artifactKey := ReportKey(job.JobKey)
	if err := e.objects.PutObject(ctx, bucket, artifactKey, serialized, "application/json"); err != nil {
		log.Error().Err(err).Str("key", artifactKey).Msg("failed to persist review report artifact")
	}

	e.writeStatus(ctx, log, job.JobKey, status.StateCompleted, string(serialized))

	log.Info().Str("overall", report.Overall.Status).Msg("content review completed")
	return Result{Status: "success", Results: report}
}

func (e *Engine) fetchDescriptor(ctx context.Context, bucket, key string) (ContentDescriptor, error) {
	if key == "" {
		return ContentDescriptor{}, fmt.Errorf("missing content descriptor key")
	}
	data, err := e.objects.FetchBytes(ctx, bucket, key)
	if err != nil {
		return ContentDescriptor{}, fmt.Errorf("fetch descriptor %s: %w", key, err)
	}
	var d ContentDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return ContentDescriptor{}, fmt.Errorf("decode descriptor %s: %w", key, err)
	}
	return d, nil
}

// fail records the failure in the status store and returns the structured
// error response.
func (e *Engine) fail(ctx context.Context, log *observability.Logger, jobKey string, pe *PipelineError) Result {
	log.Error().Err(pe.Err).Str("kind", string(pe.Kind)).Msg("review failed")

	payload, _ := json.Marshal(map[string]string{
		"error": pe.Error(),
		"type":  string(pe.Kind),
	})
	e.writeStatus(ctx, log, jobKey, status.StateError, string(payload))

	return Result{
		Status:  "error",
		Message: pe.Error(),
		Type:    string(pe.Kind),
	}
}

// writeStatus updates the job's status record. Write failures are logged
// only; there is no retry queue for status writes.
func (e *Engine) writeStatus(ctx context.Context, log *observability.Logger, jobKey, state, results string) {
	if err := e.statuses.Put(ctx, status.NewRecord(jobKey, state, results)); err != nil {
		log.Error().Err(err).Str("state", state).Msg("failed to write status record")
	}
}
