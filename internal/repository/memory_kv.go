package repository

import (
	"context"
	"sync"
)

// MemoryKVStore keeps blobs in process memory. State is lost on exit.
type MemoryKVStore struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemoryKVStore creates an empty MemoryKVStore
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{m: make(map[string]string)}
}

func (s *MemoryKVStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemoryKVStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}
