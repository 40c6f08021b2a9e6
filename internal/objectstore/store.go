// Package objectstore abstracts the durable byte storage used for uploaded
// files, derived slide images, descriptors, and review-report artifacts.
package objectstore

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Store is the minimal capability surface the pipeline needs from object
// storage.
type Store interface {
	FetchBytes(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
}
