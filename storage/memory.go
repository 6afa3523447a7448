package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is the ephemeral [Manager]. It is safe for concurrent use; the check and
// insert in MarkTokenUsed happen under one lock. A done context fails both methods with
// [ErrStorageUnavailable] wrapping the context error.
type MemoryStore struct {
	mu   sync.RWMutex
	used map[string]struct{}
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{used: make(map[string]struct{})}
}

// IsTokenUsed implements [Manager].
func (s *MemoryStore) IsTokenUsed(ctx context.Context, hash string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	s.mu.RLock()
	_, used := s.used[hash]
	s.mu.RUnlock()

	if used {
		return "", ErrTokenAlreadyUsed
	}
	return hash, nil
}

// MarkTokenUsed implements [Manager].
func (s *MemoryStore) MarkTokenUsed(ctx context.Context, hash string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, used := s.used[hash]; used {
		return ErrTokenAlreadyUsed
	}
	s.used[hash] = struct{}{}
	return nil
}

// Len returns the number of recorded hashes.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.used)
}
