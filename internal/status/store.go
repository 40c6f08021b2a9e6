// Package status tracks the coarse lifecycle of review jobs as key-value
// records. A record is overwritten in place at each transition; the design
// assumes one writer per key, last write wins.
package status

import (
	"context"
	"errors"
	"time"
)

// Lifecycle states. COMPLETED and ERROR are terminal.
const (
	StateReceived      = "RECEIVED"
	StateProcessing    = "PROCESSING"
	StateWaitingReview = "WAITING_REVIEW"
	StateReviewing     = "REVIEWING"
	StateCompleted     = "COMPLETED"
	StateError         = "ERROR"
)

// ErrNotFound indicates no record exists for the queried job key.
var ErrNotFound = errors.New("status record not found")

// Record is the durable lifecycle entry for one job.
type Record struct {
	JobKey      string `json:"s3_key"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`
	LastUpdated string `json:"last_updated"`
	// Results holds the serialized review report or error payload, when
	// the state carries one.
	Results string `json:"results,omitempty"`
}

// NewRecord stamps a fresh record for the given job and state.
func NewRecord(jobKey, state, results string) Record {
	now := time.Now()
	return Record{
		JobKey:      jobKey,
		Status:      state,
		Timestamp:   now.Unix(),
		LastUpdated: now.Format(time.RFC3339),
		Results:     results,
	}
}

// Store persists job status records.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, jobKey string) (Record, error)
}
