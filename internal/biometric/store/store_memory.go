package store

import (
	"context"
	"sync"
	"time"

	"veridoc/internal/biometric/models"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

// InMemoryStore keeps templates in enrollment order, mirroring the postgres
// store's serial-id ordering.
type InMemoryStore struct {
	mu        sync.RWMutex
	templates map[domain.Key]int // key → index into order
	order     []models.Template
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{templates: make(map[domain.Key]int)}
}

func (s *InMemoryStore) Upsert(_ context.Context, template models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = time.Now().UTC()
	}
	if idx, ok := s.templates[template.Key]; ok {
		// Replacement keeps the original slot so scan order is stable.
		s.order[idx] = template
		return nil
	}
	s.templates[template.Key] = len(s.order)
	s.order = append(s.order, template)
	return nil
}

func (s *InMemoryStore) FindByKey(_ context.Context, key domain.Key) (models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.templates[key]; ok {
		return s.order[idx], nil
	}
	return models.Template{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Exists(_ context.Context, key domain.Key) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.templates[key]
	return ok, nil
}

func (s *InMemoryStore) All(_ context.Context) ([]models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Template{}, s.order...), nil
}
