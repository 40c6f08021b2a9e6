package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore is a filesystem-backed Store for development and tests. Objects
// live under root/bucket/key; the content type is not persisted.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem store rooted at the given directory.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// FetchBytes reads an object, returning ErrNotFound when it does not exist.
func (s *FSStore) FetchBytes(_ context.Context, bucket, key string) ([]byte, error) {
	path, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// PutObject writes an object, creating parent directories as needed.
func (s *FSStore) PutObject(_ context.Context, bucket, key string, body []byte, _ string) error {
	path, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

// path maps bucket/key onto the filesystem, rejecting keys that would
// escape the store root.
func (s *FSStore) path(bucket, key string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(s.root, bucket, key))
	if !strings.HasPrefix(cleaned, filepath.Clean(s.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return cleaned, nil
}
