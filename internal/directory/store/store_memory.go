package store

import (
	"context"
	"sync"
	"time"

	"veridoc/internal/directory/models"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts in maps keyed by username. Used in tests and
// when no database is configured.
type InMemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	nextID   int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[string]models.Account), nextID: 1}
}

func (s *InMemoryStore) CreateAccount(_ context.Context, account models.Account) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Username]; ok {
		return false, nil
	}
	account.ID = s.nextID
	s.nextID++
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	s.accounts[account.Username] = account
	return true, nil
}

func (s *InMemoryStore) FindAccount(_ context.Context, username string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[username]
	if !ok {
		return models.Account{}, sentinel.ErrNotFound
	}
	return account, nil
}

func (s *InMemoryStore) UpdatePasswordHash(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[username]
	if !ok {
		return sentinel.ErrNotFound
	}
	account.PasswordHash = passwordHash
	s.accounts[username] = account
	return nil
}

func (s *InMemoryStore) UpdatePublicKey(_ context.Context, key domain.Key, publicKey []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for username, account := range s.accounts {
		if account.Key() == key {
			account.PublicKey = publicKey
			s.accounts[username] = account
			return nil
		}
	}
	return nil
}

func (s *InMemoryStore) StaffExists(_ context.Context, personID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.Role == domain.RoleStaff && account.PersonID == personID {
			return true, nil
		}
	}
	return false, nil
}
