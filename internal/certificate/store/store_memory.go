package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"veridoc/internal/certificate/models"
	"veridoc/pkg/platform/sentinel"
)

// InMemoryStore keeps certificates in a map keyed by identifier.
type InMemoryStore struct {
	mu     sync.RWMutex
	certs  map[string]models.Certificate
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{certs: make(map[string]models.Certificate), nextID: 1}
}

func (s *InMemoryStore) Upsert(_ context.Context, cert models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.certs[cert.Identifier]; ok {
		cert.ID = existing.ID
	} else {
		cert.ID = s.nextID
		s.nextID++
	}
	cert.CreatedAt = time.Now().UTC()
	s.certs[cert.Identifier] = cert
	return nil
}

func (s *InMemoryStore) FindByIdentifier(_ context.Context, identifier string) (models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, ok := s.certs[identifier]
	if !ok {
		return models.Certificate{}, sentinel.ErrNotFound
	}
	return cert, nil
}

func (s *InMemoryStore) Delete(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.certs, identifier)
	return nil
}

func (s *InMemoryStore) Search(_ context.Context, keyword, orgScope string) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(keyword)
	var out []models.Certificate
	for _, cert := range s.certs {
		if orgScope != "" && cert.OrgCode != orgScope {
			continue
		}
		if !strings.Contains(strings.ToLower(cert.Identifier), needle) &&
			!strings.Contains(strings.ToLower(cert.PersonID), needle) &&
			!strings.Contains(strings.ToLower(cert.OrgCode), needle) &&
			!strings.Contains(strings.ToLower(cert.Text), needle) {
			continue
		}
		out = append(out, cert)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > searchLimit {
		out = out[:searchLimit]
	}
	return out, nil
}
