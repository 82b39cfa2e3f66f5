package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) GetByKey(_ context.Context, key string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) GetAll(_ context.Context) (map[string]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*Record, len(s.records))
	for k, rec := range s.records {
		cp := *rec
		out[k] = &cp
	}
	return out, nil
}

func (s *MemoryStore) SetByKey(_ context.Context, key string, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	s.records[key] = &cp
	return nil
}
