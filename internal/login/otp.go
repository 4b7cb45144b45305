package login

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"veridoc/internal/platform/redis"
	"veridoc/pkg/platform/sentinel"
)

// GenerateOTP returns a code of length decimal digits from crypto/rand.
// Leading zeros are kept.
func GenerateOTP(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// OTPSender delivers a one-time code to the account's contact address.
type OTPSender interface {
	Send(ctx context.Context, email, code string) error
}

// LogSender writes codes to the log. Stands in for a mail gateway in
// development.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, email, code string) error {
	s.logger.InfoContext(ctx, "one-time code issued", "email", email, "code", code)
	return nil
}

// OTPStore holds one hashed code per challenge. Consume removes the code so
// each one can be checked at most once.
type OTPStore interface {
	Save(ctx context.Context, challengeID, codeHash string, ttl time.Duration) error
	// Consume returns sentinel.ErrNotFound when no live code exists.
	Consume(ctx context.Context, challengeID string) (string, error)
}

const otpKeyPrefix = "login:otp:"

// RedisOTPStore keeps hashed codes under a TTL; Consume uses GETDEL.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func (s *RedisOTPStore) Save(ctx context.Context, challengeID, codeHash string, ttl time.Duration) error {
	if err := s.client.Set(ctx, otpKeyPrefix+challengeID, codeHash, ttl).Err(); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Consume(ctx context.Context, challengeID string) (string, error) {
	hash, err := s.client.GetDel(ctx, otpKeyPrefix+challengeID).Result()
	if errors.Is(err, goredis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume otp: %w", err)
	}
	return hash, nil
}

// MemoryOTPStore is the in-process fallback.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]memoryOTP
	now     func() time.Time
}

type memoryOTP struct {
	hash      string
	expiresAt time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{
		entries: make(map[string]memoryOTP),
		now:     time.Now,
	}
}

func (s *MemoryOTPStore) Save(_ context.Context, challengeID, codeHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[challengeID] = memoryOTP{hash: codeHash, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryOTPStore) Consume(_ context.Context, challengeID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[challengeID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	delete(s.entries, challengeID)
	if s.now().After(entry.expiresAt) {
		return "", sentinel.ErrNotFound
	}
	return entry.hash, nil
}
