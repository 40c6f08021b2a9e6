// Package queue hands review jobs from the ingest stage to the review
// worker. Delivery is best-effort at-least-once; the pipeline performs no
// deduplication.
package queue

import (
	"context"

	"github.com/slidegate/review-engine/internal/review"
)

// Queue transports review jobs between processes.
type Queue interface {
	// Enqueue submits a job for review.
	Enqueue(ctx context.Context, job review.Job) error
	// Dequeue blocks up to the backend's poll interval and returns the next
	// job. ok is false when no job arrived within the interval.
	Dequeue(ctx context.Context) (job review.Job, ok bool, err error)
}
