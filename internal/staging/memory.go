package staging

import (
	"context"
	"sync"
	"time"

	"github.com/thriftease/marketplace/internal/domain/checkout"
)

var _ checkout.StagingStore = (*MemoryStore)(nil)

type memoryEntry struct {
	staged    *checkout.StagedOrder
	expiresAt time.Time
}

// MemoryStore is an in-process StagingStore with the same TTL semantics as
// the Redis store. It serves single-instance deployments and tests; entries
// are evicted lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore with the given snapshot TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores a copy of the snapshot, overwriting any prior one for the user.
func (s *MemoryStore) Put(_ context.Context, staged *checkout.StagedOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[staged.UserID] = memoryEntry{
		staged:    cloneStaged(staged),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

// Get returns a copy of the user's snapshot, or checkout.ErrNoStagedOrder
// when absent or expired. The copy keeps callers from sharing mutable state
// with the store, matching the Redis store's marshal round trip.
func (s *MemoryStore) Get(_ context.Context, userID string) (*checkout.StagedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return nil, checkout.ErrNoStagedOrder
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, userID)
		return nil, checkout.ErrNoStagedOrder
	}
	return cloneStaged(e.staged), nil
}

// Take removes and returns the user's snapshot under the store lock, so of
// two racing confirmations exactly one gets it.
func (s *MemoryStore) Take(_ context.Context, userID string) (*checkout.StagedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return nil, checkout.ErrNoStagedOrder
	}
	delete(s.entries, userID)
	if s.now().After(e.expiresAt) {
		return nil, checkout.ErrNoStagedOrder
	}
	return e.staged, nil
}

// Delete discards the user's snapshot.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
	return nil
}

func cloneStaged(staged *checkout.StagedOrder) *checkout.StagedOrder {
	c := *staged
	c.Lines = append([]checkout.StagedLine(nil), staged.Lines...)
	return &c
}
