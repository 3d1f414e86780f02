package secrets

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and local development.
// It implements the same interface as the hardened store so policy logic
// can be exercised without a network backend.
type MemoryStore struct {
	mu        sync.RWMutex
	data      map[string]map[string]string
	healthErr error
	getErr    error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]string),
	}
}

// Name identifies the store in logs
func (s *MemoryStore) Name() string {
	return "memory"
}

// Get retrieves the value stored under path/key
func (s *MemoryStore) Get(ctx context.Context, path, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.getErr != nil {
		return "", s.getErr
	}

	value, ok := s.data[path][key]
	if !ok {
		return "", ErrNotFound
	}

	return value, nil
}

// Put stores a value under path/key
func (s *MemoryStore) Put(ctx context.Context, path, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[path] == nil {
		s.data[path] = make(map[string]string)
	}

	s.data[path][key] = value
	return nil
}

// Delete removes the value under path/key
func (s *MemoryStore) Delete(ctx context.Context, path, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data[path], key)
	return nil
}

// List returns the keys stored under path
func (s *MemoryStore) List(ctx context.Context, path string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data[path]))
	for k := range s.data[path] {
		keys = append(keys, k)
	}

	return keys, nil
}

// Health returns the configured health error, nil by default
func (s *MemoryStore) Health(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.healthErr
}

// SetHealthErr makes Health fail; used by tests to simulate outages
func (s *MemoryStore) SetHealthErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.healthErr = err
}

// SetGetErr makes Get fail; used by tests to simulate transport errors
func (s *MemoryStore) SetGetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getErr = err
}
