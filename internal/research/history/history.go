// Package history tracks completed research runs. The latest entry is fed
// back into adapter prompts as the prior-run reference.
package history

import (
	"context"
	"sync"

	"github.com/vietddude/ara/internal/core/domain"
)

// Store records and retrieves run summaries. Latest returns (nil, nil)
// when no runs exist yet.
type Store interface {
	Record(ctx context.Context, entry domain.RunHistoryEntry) error
	Latest(ctx context.Context) (*domain.RunHistoryEntry, error)
	Recent(ctx context.Context, limit int) ([]domain.RunHistoryEntry, error)
}

// MemoryStore keeps run history in process, newest first.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []domain.RunHistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(_ context.Context, entry domain.RunHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]domain.RunHistoryEntry{entry}, s.entries...)
	return nil
}

func (s *MemoryStore) Latest(_ context.Context) (*domain.RunHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return nil, nil
	}
	entry := s.entries[0]
	return &entry, nil
}

func (s *MemoryStore) Recent(_ context.Context, limit int) ([]domain.RunHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]domain.RunHistoryEntry, limit)
	copy(out, s.entries[:limit])
	return out, nil
}
