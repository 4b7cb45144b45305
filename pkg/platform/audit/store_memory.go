package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps events in memory for tests and redis-less development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// BySubject returns all recorded events for a subject, oldest first.
func (s *InMemoryStore) BySubject(_ context.Context, subject string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every recorded event, oldest first.
func (s *InMemoryStore) All(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...), nil
}
