package tokenstore

import (
	"context"
	"sync"
	"time"

	"github.com/example/mes/internal/ports/secondary"
)

type memoryEntry struct {
	userID    int64
	expiresAt time.Time
}

// MemoryStore implements secondary.RefreshTokenStore in process memory.
// It is used when no redis server is configured; tokens do not survive a
// restart and are not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

var _ secondary.RefreshTokenStore = (*MemoryStore)(nil)

func (s *MemoryStore) Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	s.entries[jti] = memoryEntry{userID: userID, expiresAt: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(ctx context.Context, jti string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[jti]
	if !ok {
		return 0, secondary.ErrTokenNotFound
	}
	delete(s.entries, jti)
	if !s.now().Before(entry.expiresAt) {
		return 0, secondary.ErrTokenNotFound
	}
	return entry.userID, nil
}

func (s *MemoryStore) Revoke(ctx context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, jti)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// sweep drops expired entries. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	for jti, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, jti)
		}
	}
}
