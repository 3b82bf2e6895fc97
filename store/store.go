// Package store provides the key-value storage the service persists through:
// the saved API key, tone/model preferences, and analysis cache entries.
//
// Store is the injected collaborator interface; MemoryStore backs tests and
// ephemeral deployments, SQLiteStore survives restarts.
package store

import "sync"

// Store is the minimal key-value contract the core depends on.
// Implementations must be safe for concurrent use. Set is an idempotent
// upsert: concurrent writers for the same key are last-write-wins.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set upserts the value for key.
	Set(key, value string) error
}

// MemoryStore is a mutex-guarded in-memory Store.
//
// Example:
//
//	s := store.NewMemoryStore()
//	_ = s.Set("preference.tone", "professional")
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for key and whether it was present. Never errors.
func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	value, ok := s.values[key]
	s.mu.RUnlock()
	return value, ok, nil
}

// Set upserts the value for key. Never errors.
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored keys. Useful in tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
