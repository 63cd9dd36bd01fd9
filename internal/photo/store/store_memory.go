package store

import (
	"context"
	"slices"
	"sync"

	"shelterhub/internal/photo/models"
	"shelterhub/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	photos map[string]*models.Photo
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{photos: make(map[string]*models.Photo)}
}

func (s *InMemoryStore) Put(_ context.Context, photo *models.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *photo
	cp.Data = slices.Clone(photo.Data)
	s.photos[photo.ID] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*models.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	photo, ok := s.photos[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *photo
	return &cp, nil
}

func (s *InMemoryStore) Snapshot() func() {
	s.mu.RLock()
	photos := make(map[string]*models.Photo, len(s.photos))
	for id, p := range s.photos {
		photos[id] = p
	}
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.photos = photos
	}
}
