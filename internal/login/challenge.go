package login

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"veridoc/internal/platform/redis"
	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

// Challenge is the persisted snapshot of one in-flight login. It carries the
// machine state plus the account facts the later factors need. Challenges
// expire with a TTL; an expired challenge reads as not found.
type Challenge struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	OrgCode   string      `json:"org_code"`
	PersonID  string      `json:"person_id"`
	FaceKey   domain.Key  `json:"face_key,omitempty"`
	State     State       `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
}

// Machine rebuilds the state machine at the challenge's current state.
func (c Challenge) Machine() Machine {
	return Machine{State: c.State}
}

// ChallengeStore persists in-flight login challenges.
type ChallengeStore interface {
	Save(ctx context.Context, challenge Challenge, ttl time.Duration) error
	// Find returns sentinel.ErrNotFound for unknown or expired challenges.
	Find(ctx context.Context, id string) (Challenge, error)
	Delete(ctx context.Context, id string) error
}

const challengeKeyPrefix = "login:challenge:"

// RedisChallengeStore keeps challenges as JSON values under a TTL.
type RedisChallengeStore struct {
	client *redis.Client
}

func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

func (s *RedisChallengeStore) Save(ctx context.Context, challenge Challenge, ttl time.Duration) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	if err := s.client.Set(ctx, challengeKeyPrefix+challenge.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}

func (s *RedisChallengeStore) Find(ctx context.Context, id string) (Challenge, error) {
	payload, err := s.client.Get(ctx, challengeKeyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Challenge{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Challenge{}, fmt.Errorf("find challenge: %w", err)
	}
	var challenge Challenge
	if err := json.Unmarshal(payload, &challenge); err != nil {
		return Challenge{}, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return challenge, nil
}

func (s *RedisChallengeStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, challengeKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}

// MemoryChallengeStore is the in-process fallback used in tests and when
// Redis is not configured.
type MemoryChallengeStore struct {
	mu      sync.Mutex
	entries map[string]memoryChallenge
	now     func() time.Time
}

type memoryChallenge struct {
	challenge Challenge
	expiresAt time.Time
}

func NewMemoryChallengeStore() *MemoryChallengeStore {
	return &MemoryChallengeStore{
		entries: make(map[string]memoryChallenge),
		now:     time.Now,
	}
}

func (s *MemoryChallengeStore) Save(_ context.Context, challenge Challenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[challenge.ID] = memoryChallenge{
		challenge: challenge,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryChallengeStore) Find(_ context.Context, id string) (Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return Challenge{}, sentinel.ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, id)
		return Challenge{}, sentinel.ErrNotFound
	}
	return entry.challenge, nil
}

func (s *MemoryChallengeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}
