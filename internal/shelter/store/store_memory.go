package store

import (
	"context"
	"sync"

	"shelterhub/internal/shelter/models"
	"shelterhub/pkg/platform/sentinel"
)

// InMemoryStore keeps shelters in insertion order. Row locking is left to
// the transaction runner that serialises writers.
type InMemoryStore struct {
	mu       sync.RWMutex
	shelters map[int64]*models.Shelter
	order    []int64
	nextID   int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		shelters: make(map[int64]*models.Shelter),
		nextID:   1,
	}
}

func (s *InMemoryStore) Insert(_ context.Context, shelter *models.Shelter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	shelter.ID = s.nextID
	s.nextID++
	s.shelters[shelter.ID] = stored(shelter)
	s.order = append(s.order, shelter.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Shelter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shelter, ok := s.shelters[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return shelter.Clone(), nil
}

func (s *InMemoryStore) FindForUpdate(ctx context.Context, id int64) (*models.Shelter, error) {
	return s.FindByID(ctx, id)
}

// FindManyForUpdate returns the shelters that exist among ids, ordered by id.
func (s *InMemoryStore) FindManyForUpdate(_ context.Context, ids []int64) ([]*models.Shelter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []*models.Shelter
	for _, id := range s.order {
		if _, ok := want[id]; ok {
			out = append(out, s.shelters[id].Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Shelter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Shelter, 0, len(s.order))
	for _, id := range s.order {
		if shelter := s.shelters[id]; filter.Matches(shelter) {
			out = append(out, shelter.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) Save(_ context.Context, shelter *models.Shelter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shelters[shelter.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.shelters[shelter.ID] = stored(shelter)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shelters[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.shelters, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Snapshot captures the table and returns a func that restores it.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.RLock()
	shelters := make(map[int64]*models.Shelter, len(s.shelters))
	for id, shelter := range s.shelters {
		shelters[id] = shelter
	}
	order := append([]int64(nil), s.order...)
	next := s.nextID
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.shelters = shelters
		s.order = order
		s.nextID = next
	}
}

// stored copies shelter without its photo list, which lives in the link table.
func stored(shelter *models.Shelter) *models.Shelter {
	cp := shelter.Clone()
	cp.PhotoIDs = nil
	return cp
}
