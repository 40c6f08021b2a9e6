package status

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory status store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Put overwrites the record for its job key.
func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.JobKey] = rec
	return nil
}

// Get returns the record for the job key, or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, jobKey string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[jobKey]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}
