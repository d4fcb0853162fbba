package ratelimit

import (
	"context"
	"sync"
	"time"
)

// UpdateFunc transforms a window's timestamp list. It returns the new
// list and whether it should be written back.
type UpdateFunc func(stamps []int64) (newStamps []int64, write bool)

// Store persists rate-limit windows. Update must apply fn atomically
// per key so two concurrent requests cannot both be admitted into the
// last remaining slot.
type Store interface {
	// Update atomically reads the window for key, applies fn, and
	// writes the result back when fn asks for it. The resulting
	// timestamp list is returned either way.
	Update(ctx context.Context, key string, fn UpdateFunc) ([]int64, error)

	// Get returns the stored window without modifying it.
	Get(ctx context.Context, key string) ([]int64, error)

	// StaleKeys returns keys whose windows have not been written for
	// at least maxAge.
	StaleKeys(ctx context.Context, maxAge time.Duration) ([]string, error)

	// Delete removes a window.
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	stamps  []int64
	touched time.Time
}

// MemoryStore is an in-process Store backed by a mutex-guarded map.
// Suitable for tests and single-process deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Update applies fn to the window under the store lock.
func (s *MemoryStore) Update(ctx context.Context, key string, fn UpdateFunc) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	stamps, write := fn(append([]int64(nil), entry.stamps...))
	if write {
		s.entries[key] = memoryEntry{stamps: stamps, touched: s.now()}
	}
	return stamps, nil
}

// Get returns a copy of the stored window.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return append([]int64(nil), entry.stamps...), nil
}

// StaleKeys returns keys untouched for at least maxAge.
func (s *MemoryStore) StaleKeys(ctx context.Context, maxAge time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	var keys []string
	for key, entry := range s.entries {
		if entry.touched.Before(cutoff) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Delete removes a window.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
