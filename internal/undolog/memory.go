package undolog

import (
	"context"
	"sync"

	"tidy/internal/apperr"
)

// MemoryStore is an in-memory Store keyed by user, useful for testing.
// It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Compile-time check that MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Save(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Files = append([]MoveRecord(nil), entry.Files...)
	s.entries[entry.User] = entry
	return nil
}

func (s *MemoryStore) Load(_ context.Context, user string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[user]
	if !ok {
		return nil, apperr.New(apperr.NoUndoAvailable, "load undo entry", "", nil)
	}
	e.Files = append([]MoveRecord(nil), e.Files...)
	return &e, nil
}

func (s *MemoryStore) Delete(_ context.Context, user string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, user)
	return nil
}
