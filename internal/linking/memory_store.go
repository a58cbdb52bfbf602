package linking

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	chatID    string
	captured  bool
	createdAt time.Time
}

// MemoryStore keeps link tokens in memory. It backs tests and single-node
// development runs; production uses GormStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an in-memory link token store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Put(_ context.Context, token, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		entry = memoryEntry{createdAt: time.Now().UTC()}
	}
	entry.chatID = chatID
	entry.captured = true
	s.entries[token] = entry
	return nil
}

func (s *MemoryStore) TakeIfCaptured(_ context.Context, token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok || !entry.captured {
		return "", false, nil
	}
	delete(s.entries, token)
	return entry.chatID, true, nil
}

func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for token, entry := range s.entries {
		if entry.createdAt.Before(cutoff) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed, nil
}

// CreatedAt reports the recorded creation time of a token, for tests
func (s *MemoryStore) CreatedAt(token string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[token]
	return entry.createdAt, ok
}
