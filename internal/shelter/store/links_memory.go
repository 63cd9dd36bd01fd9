package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

type link struct {
	photoID   string
	createdAt time.Time
}

// InMemoryLinkStore is the shelter to photo association table.
type InMemoryLinkStore struct {
	mu    sync.RWMutex
	links map[int64][]link
}

func NewInMemoryLinkStore() *InMemoryLinkStore {
	return &InMemoryLinkStore{links: make(map[int64][]link)}
}

// Attach adds links that do not exist yet; existing pairs are left untouched.
func (s *InMemoryLinkStore) Attach(_ context.Context, shelterID int64, photoIDs []string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[shelterID] = appendMissing(s.links[shelterID], photoIDs, now)
	return nil
}

// Replace swaps the shelter's links for photoIDs.
func (s *InMemoryLinkStore) Replace(_ context.Context, shelterID int64, photoIDs []string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := appendMissing(nil, photoIDs, now)
	if len(next) == 0 {
		delete(s.links, shelterID)
		return nil
	}
	s.links[shelterID] = next
	return nil
}

func (s *InMemoryLinkStore) ListByShelter(_ context.Context, shelterID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return photoIDs(s.links[shelterID]), nil
}

func (s *InMemoryLinkStore) ListByShelters(_ context.Context, shelterIDs []int64) (map[int64][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64][]string, len(shelterIDs))
	for _, id := range shelterIDs {
		if links, ok := s.links[id]; ok {
			out[id] = photoIDs(links)
		}
	}
	return out, nil
}

func (s *InMemoryLinkStore) DeleteByShelter(_ context.Context, shelterIDs ...int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range shelterIDs {
		delete(s.links, id)
	}
	return nil
}

func (s *InMemoryLinkStore) Snapshot() func() {
	s.mu.RLock()
	links := make(map[int64][]link, len(s.links))
	for id, l := range s.links {
		links[id] = slices.Clone(l)
	}
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.links = links
	}
}

func appendMissing(existing []link, ids []string, now time.Time) []link {
	for _, id := range ids {
		if slices.ContainsFunc(existing, func(l link) bool { return l.photoID == id }) {
			continue
		}
		existing = append(existing, link{photoID: id, createdAt: now})
	}
	return existing
}

func photoIDs(links []link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.photoID
	}
	return out
}
