package memory

import (
	"context"
	"sync"
	"time"

	"rentals/internal/app/middleware"
)

// IdempotencyStore keeps command results in process memory. With a TTL,
// records older than it are treated as absent and pruned on the next Save.
type IdempotencyStore struct {
	TTL time.Duration
	Now func() time.Time

	mu    sync.RWMutex
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	if !ok || s.expired(rec) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

// Save keeps the first live record under a key.
func (s *IdempotencyStore) Save(_ context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, old := range s.items {
		if s.expired(old) {
			delete(s.items, k)
		}
	}
	if _, exists := s.items[rec.Key]; !exists {
		s.items[rec.Key] = rec
	}
	return nil
}

func (s *IdempotencyStore) expired(rec middleware.IdempotencyRecord) bool {
	if s.TTL <= 0 {
		return false
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().Sub(rec.OccurredAt) > s.TTL
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
