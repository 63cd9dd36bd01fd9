package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"shelterhub/internal/audit/models"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries []*models.Entry
	nextID  int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, entry *models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID
	s.nextID++
	stored := *entry
	s.entries = append(s.entries, &stored)
	return nil
}

// ListRecent orders by timestamp then id, newest first, like the Postgres store.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]*models.Entry, error) {
	s.mu.RLock()
	out := make([]*models.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		cp := *e
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *models.Entry) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Snapshot captures the current log and returns a func that restores it.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.RLock()
	n, next := len(s.entries), s.nextID
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.entries = s.entries[:n]
		s.nextID = next
	}
}
