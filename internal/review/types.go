// Package review implements the compliance-review pipeline: prompt
// construction, model invocation sequencing, and classification of the
// model's free-text answer into a fixed-schema report.
package review

import (
	"fmt"
	"strings"
)

// ProcessingMethod tags how a job's content was produced.
type ProcessingMethod string

const (
	// MethodDirectImage marks content uploaded as a standalone image.
	MethodDirectImage ProcessingMethod = "direct_image"
	// MethodRasterizedDeck marks content derived from a slide deck page.
	MethodRasterizedDeck ProcessingMethod = "rasterized_deck"
)

// ContentDescriptor describes one unit of reviewable content. It is produced
// by the ingest stage, serialized to object storage as content_info.json, and
// consumed read-only by the review engine.
type ContentDescriptor struct {
	SourceFile       string           `json:"source_file"`
	ContentType      string           `json:"content_type,omitempty"`
	ProcessingMethod ProcessingMethod `json:"processing_method,omitempty"`
	FileSize         int64            `json:"file_size,omitempty"`
	UploadTime       string           `json:"upload_time,omitempty"`

	// Fields set for rasterized decks.
	Format     string   `json:"format,omitempty"`
	ImageCount int      `json:"image_count,omitempty"`
	Images     []string `json:"images,omitempty"`
	Width      int      `json:"width,omitempty"`
	Height     int      `json:"height,omitempty"`
	Timestamp  string   `json:"timestamp,omitempty"`
}

// IsImage reports whether the descriptor points at image content that must
// carry retrievable image bytes.
func (d ContentDescriptor) IsImage() bool {
	return strings.HasPrefix(d.ContentType, "image/") || d.ProcessingMethod == MethodDirectImage
}

// Overall verdict tokens. Category and sub-check statuses use the localized
// tokens below instead.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

// Localized pass/fail tokens used inside detailed_review.
const (
	TokenPass = "通过"
	TokenFail = "不通过"
)

// Category keys of the detailed review. The schema always contains all four.
const (
	CategoryPersonalInfo      = "personal_info"
	CategoryContentCompliance = "content_compliance"
	CategoryReferenceStandard = "reference_standard"
	CategoryQualityStandard   = "quality_standard"
)

// CheckResult is the verdict of a single sub-check.
type CheckResult struct {
	Status  string `json:"status"`
	Details string `json:"details"`
}

// CategoryResult is the verdict of one review category and its four
// sub-checks.
type CategoryResult struct {
	Status  string                 `json:"status"`
	Issues  []string               `json:"issues"`
	Details map[string]CheckResult `json:"details"`
}

// OverallResult carries the report-level verdict.
type OverallResult struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

// Report is the structured review verdict. Its shape is fixed regardless of
// input: every category and sub-check key is always present.
type Report struct {
	Overall         OverallResult             `json:"overall_result"`
	DetailedReview  map[string]CategoryResult `json:"detailed_review"`
	KeyFindings     []string                  `json:"key_findings"`
	Recommendations []string                  `json:"recommendations"`
}

// Job is the handoff payload from the ingest stage to the review engine.
type Job struct {
	JobKey        string `json:"s3_key"`
	Bucket        string `json:"bucket,omitempty"`
	DescriptorKey string `json:"content_key"`
	// CustomPrompt is accepted at the boundary and carried through the queue
	// so a per-upload prompt can be wired into prompt construction without
	// another payload change. The default builder does not consume it yet.
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

// FailureKind discriminates the fatal failure sites of the pipeline.
type FailureKind string

const (
	FailureDescriptorFetch FailureKind = "descriptor_fetch_error"
	FailureImageFetch      FailureKind = "image_fetch_error"
	FailureInvocation      FailureKind = "model_invocation_error"
)

// PipelineError tags an underlying error with the failure site it occurred
// at, so the status record and the response carry a machine-readable kind.
type PipelineError struct {
	Kind FailureKind
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// ReportSuffix is the object-storage suffix the serialized report is written
// under, relative to the job key.
const ReportSuffix = "review_result.json"

// ReportKey returns the artifact location for a job's review report.
func ReportKey(jobKey string) string {
	return jobKey + "/" + ReportSuffix
}
