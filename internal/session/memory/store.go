package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/davidbz/quotekit/internal/domain"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Store keeps session blobs in process memory.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewStore creates an empty in-memory session store.
func NewStore() *Store {
	return &Store{
		mu:      sync.Mutex{},
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithClock replaces the time source used for expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Load returns a copy of the stored blob.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", key, domain.ErrSessionNotFound)
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, fmt.Errorf("session %s expired: %w", key, domain.ErrSessionNotFound)
	}

	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

// Save stores a copy of data. A zero ttl never expires.
// Expired entries of other sessions are dropped on every save.
func (s *Store) Save(_ context.Context, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	e := entry{data: make([]byte, len(data)), expiresAt: time.Time{}}
	copy(e.data, data)
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	s.entries[key] = e

	return nil
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *Store) sweep(now time.Time) {
	for key, e := range s.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Delete removes a key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
