package signature

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"veridoc/pkg/domain"
	"veridoc/pkg/platform/sentinel"
)

// Keystore holds PEM-encoded private keys addressed by identifier. Only
// GenerateKeyPair writes for a given identifier; Sign only reads, so
// concurrent signing needs no locking beyond what the store provides.
type Keystore interface {
	Put(ctx context.Context, key domain.Key, privatePEM []byte) error
	Get(ctx context.Context, key domain.Key) ([]byte, error)
}

// FileKeystore stores one PEM file per identifier under dir, matching the
// single-file-per-identity layout certificates reference.
type FileKeystore struct {
	dir string
}

func NewFileKeystore(dir string) (*FileKeystore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &FileKeystore{dir: dir}, nil
}

func (s *FileKeystore) path(key domain.Key) string {
	return filepath.Join(s.dir, key.String()+"_private.pem")
}

// Put writes via temp-file rename so a concurrent Get never observes a
// partially written key.
func (s *FileKeystore) Put(_ context.Context, key domain.Key, privatePEM []byte) error {
	tmp, err := os.CreateTemp(s.dir, key.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp key file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod key file: %w", err)
	}
	if _, err := tmp.Write(privatePEM); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close key file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("store key file: %w", err)
	}
	return nil
}

func (s *FileKeystore) Get(_ context.Context, key domain.Key) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return data, nil
}

// MemoryKeystore keeps keys in memory for tests.
type MemoryKeystore struct {
	mu   sync.RWMutex
	keys map[domain.Key][]byte
}

func NewMemoryKeystore() *MemoryKeystore {
	return &MemoryKeystore{keys: make(map[domain.Key][]byte)}
}

func (s *MemoryKeystore) Put(_ context.Context, key domain.Key, privatePEM []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = append([]byte(nil), privatePEM...)
	return nil
}

func (s *MemoryKeystore) Get(_ context.Context, key domain.Key) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pem, ok := s.keys[key]; ok {
		return append([]byte(nil), pem...), nil
	}
	return nil, sentinel.ErrNotFound
}
