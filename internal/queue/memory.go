package queue

import (
	"context"
	"time"

	"github.com/slidegate/review-engine/internal/review"
)

// MemoryQueue is a channel-backed Queue for tests and single-process
// deployments where the API and the worker share a binary.
type MemoryQueue struct {
	jobs        chan review.Job
	pollTimeout time.Duration
}

// NewMemoryQueue creates an in-memory queue with the given buffer size.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 64
	}
	return &MemoryQueue{
		jobs:        make(chan review.Job, size),
		pollTimeout: time.Second,
	}
}

// Enqueue submits a job, blocking while the buffer is full.
func (q *MemoryQueue) Enqueue(ctx context.Context, job review.Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue returns the next job, or ok=false after the poll timeout.
func (q *MemoryQueue) Dequeue(ctx context.Context) (review.Job, bool, error) {
	select {
	case job := <-q.jobs:
		return job, true, nil
	case <-time.After(q.pollTimeout):
		return review.Job{}, false, nil
	case <-ctx.Done():
		return review.Job{}, false, ctx.Err()
	}
}
