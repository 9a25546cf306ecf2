// Package marketcache is a passive in-process store for the most recent
// validated dataset per (source, symbol, range) key. It does not schedule
// fetches and has no expiry; invalidate-then-refetch is the caller's
// policy. Entries do not survive a restart.
package marketcache

import (
	"sync"
	"time"

	"github.com/jaychengg/antig/internal/observ"
	"github.com/jaychengg/antig/internal/schema"
)

// Key identifies one cached dataset.
type Key struct {
	Source string
	Symbol string
	Range  string
}

// Entry is a validated dataset plus its fetch metadata. Payload is owned
// by the store; treat it as read-only.
type Entry struct {
	Key       Key
	Payload   []schema.CanonicalBar
	FetchedAt time.Time
	Validated bool
}

// Store holds entries behind a single RWMutex: readers of different keys
// proceed concurrently, writes serialize, so an invalidate-then-refetch
// for one key cannot race a read of a stale entry for that key.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		entries: make(map[Key]Entry),
		now:     time.Now,
	}
}

// Get returns the entry for key, if present.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if ok {
		observ.IncCounter("marketcache_hits_total", map[string]string{"source": key.Source})
	} else {
		observ.IncCounter("marketcache_misses_total", map[string]string{"source": key.Source})
	}
	return e, ok
}

// Put stores a validated payload for key, overwriting any prior entry.
// The payload is copied so later mutation by the caller cannot corrupt
// the cached dataset.
func (s *Store) Put(key Key, payload []schema.CanonicalBar) {
	owned := make([]schema.CanonicalBar, len(payload))
	copy(owned, payload)

	s.mu.Lock()
	s.entries[key] = Entry{
		Key:       key,
		Payload:   owned,
		FetchedAt: s.now(),
		Validated: true,
	}
	s.mu.Unlock()

	observ.IncCounter("marketcache_puts_total", map[string]string{"source": key.Source})
}

// Invalidate removes the entry for key and reports whether one existed.
// A subsequent Get returns absent until Put is called again.
func (s *Store) Invalidate(key Key) bool {
	s.mu.Lock()
	_, existed := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()

	if existed {
		observ.IncCounter("marketcache_invalidations_total", map[string]string{"source": key.Source})
	}
	return existed
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
