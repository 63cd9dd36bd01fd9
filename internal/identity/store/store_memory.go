package store

import (
	"context"
	"strings"
	"sync"

	"shelterhub/pkg/platform/sentinel"
)

// InMemoryStore is a read-mostly identity store seeded at startup.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Identity
	byEmail map[string]*Identity
}

func NewInMemoryStore(seed ...Identity) *InMemoryStore {
	s := &InMemoryStore{
		byID:    make(map[string]*Identity),
		byEmail: make(map[string]*Identity),
	}
	for _, ident := range seed {
		s.Add(ident)
	}
	return s
}

// Add registers or replaces an identity.
func (s *InMemoryStore) Add(ident Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := ident
	s.byID[ident.ID] = &stored
	s.byEmail[strings.ToLower(ident.Email)] = &stored
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *ident
	return &out, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *ident
	return &out, nil
}
