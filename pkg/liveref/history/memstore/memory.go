package memstore

import (
	"context"
	"sync"

	"github.com/cognicore/liveref/pkg/liveref/history"
)

// Store is an in-memory implementation of history.Store.
type Store struct {
	mu      sync.RWMutex
	max     int
	entries []history.Entry // oldest first
}

// New creates a new in-memory store holding at most maxEntries entries.
func New(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = history.DefaultMaxEntries
	}
	return &Store{max: maxEntries}
}

// Close implements history.Store.
func (s *Store) Close() error { return nil }

// Add appends an entry, dropping the oldest beyond the cap. Entries without
// an ID get a fresh one; re-adding an existing ID is a no-op.
func (s *Store) Add(ctx context.Context, e history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = history.NewID()
	}
	for _, have := range s.entries {
		if have.ID == e.ID {
			return nil
		}
	}
	s.entries = append(s.entries, copyEntry(e))
	if over := len(s.entries) - s.max; over > 0 {
		s.entries = append([]history.Entry(nil), s.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]history.Entry, 0, limit)
	for i := n - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, copyEntry(s.entries[i]))
	}
	return out, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

func copyEntry(e history.Entry) history.Entry {
	e.Keywords = append([]string(nil), e.Keywords...)
	return e
}
