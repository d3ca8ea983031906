package store

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrNotFound is returned when no fresh entry exists for a key.
	ErrNotFound = errors.New("no cached entry for key")
)

// Entry is a single cached value with its bookkeeping timestamps.
type Entry[V any] struct {
	Value     V
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its TTL at now.
func (e Entry[V]) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// MemoryStore is a concurrency-safe in-memory TTL map. Entries are replaced
// whole under the write lock, so readers never observe a partial write.
type MemoryStore[V any] struct {
	mu sync.RWMutex

	// key: caller-defined key (e.g. "london:live"), value: entry
	data map[string]Entry[V]

	ttl time.Duration
	now func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemoryStore creates a store whose entries live for ttl.
// If ttl is <= 0, entries never expire on their own.
func NewMemoryStore[V any](ttl time.Duration) *MemoryStore[V] {
	return &MemoryStore[V]{
		data: make(map[string]Entry[V]),
		ttl:  ttl,
		now:  time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *MemoryStore[V]) WithClock(now func() time.Time) *MemoryStore[V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// TTL returns the configured time-to-live.
func (s *MemoryStore[V]) TTL() time.Duration {
	return s.ttl
}

// Set stores value under key, replacing any previous entry.
func (s *MemoryStore[V]) Set(key string, value V) Entry[V] {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expires := now.Add(s.ttl)
	if s.ttl <= 0 {
		expires = time.Unix(1<<62, 0)
	}
	e := Entry[V]{Value: value, StoredAt: now, ExpiresAt: expires}
	s.data[key] = e
	return e
}

// Get returns the fresh value for key, or ErrNotFound if it is missing or expired.
func (s *MemoryStore[V]) Get(key string) (V, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	now := s.now()
	s.mu.RUnlock()

	if !ok || e.Expired(now) {
		s.misses.Add(1)
		var zero V
		return zero, ErrNotFound
	}
	s.hits.Add(1)
	return e.Value, nil
}

// Peek returns the entry for key even if it has expired. It does not count
// towards hit/miss statistics.
func (s *MemoryStore[V]) Peek(key string) (Entry[V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	return e, ok
}

// Clear drops every entry and returns how many were removed.
func (s *MemoryStore[V]) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.data)
	s.data = make(map[string]Entry[V])
	return n
}

// PurgeExpired removes entries past their TTL and returns how many were removed.
func (s *MemoryStore[V]) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.data {
		if e.Expired(now) {
			delete(s.data, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Stats returns usage counters.
func (s *MemoryStore[V]) Stats() Stats {
	return Stats{
		Entries: s.Len(),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
}
