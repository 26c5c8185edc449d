package cache

import (
	"context"
	"sync"
	"time"

	"github.com/clinic/backend/internal/domain/shared"
)

const janitorInterval = 5 * time.Minute

// InMemoryIdempotencyStore implements IdempotencyStore with a local map.
// Suitable for single-instance deployments and tests; state is not shared
// across processes, so a retried commit can slip through when running
// multiple instances.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	deadlines map[string]time.Time
	stop      chan struct{}
	done      sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts a janitor
// goroutine that evicts expired keys. Call Close to stop it.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		deadlines: make(map[string]time.Time),
		stop:      make(chan struct{}),
	}

	store.done.Add(1)
	go store.janitor()

	return store
}

// MarkProcessed records a key with a TTL. Returns true if the key was newly
// marked, false if a live entry already exists.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if deadline, exists := s.deadlines[key]; exists && now.Before(deadline) {
		return false, nil
	}

	s.deadlines[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed checks whether a key has a live entry. Expired entries count
// as not processed even before the janitor removes them.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deadline, exists := s.deadlines[key]
	return exists && time.Now().Before(deadline), nil
}

// Close stops the janitor. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.done.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) janitor() {
	defer s.done.Done()

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *InMemoryIdempotencyStore) evictExpired() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, deadline := range s.deadlines {
		if now.After(deadline) {
			delete(s.deadlines, key)
		}
	}
}

// Size reports the number of entries including expired ones awaiting
// eviction. Used by tests.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deadlines)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
