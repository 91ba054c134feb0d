package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Export is a rendered workbook waiting to be downloaded.
type Export struct {
	Filename  string
	Data      []byte
	ExpiresAt time.Time
}

// Store keeps exports in memory until they expire.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	exports map[string]Export
	now     func() time.Time
}

// NewStore creates a store whose entries live for ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		exports: make(map[string]Export),
		now:     time.Now,
	}
}

// Put stores an export and returns its id. Expired entries are swept.
func (s *Store) Put(filename string, data []byte) (string, Export) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	id := uuid.NewString()
	e := Export{Filename: filename, Data: data, ExpiresAt: s.now().Add(s.ttl)}
	s.exports[id] = e
	return id, e
}

// Get returns the export for id unless it is unknown or expired.
func (s *Store) Get(id string) (Export, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.exports[id]
	if !ok {
		return Export{}, false
	}
	if !s.now().Before(e.ExpiresAt) {
		delete(s.exports, id)
		return Export{}, false
	}
	return e, true
}

// Len returns the number of stored exports, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exports)
}

func (s *Store) sweepLocked() {
	now := s.now()
	for id, e := range s.exports {
		if !now.Before(e.ExpiresAt) {
			delete(s.exports, id)
		}
	}
}
