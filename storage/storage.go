package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTokenAlreadyUsed is returned when a hash has already been recorded as consumed.
	ErrTokenAlreadyUsed = errors.New("Token Already Used")
	// ErrStorageUnavailable wraps backend failures (network, timeouts, script errors).
	ErrStorageUnavailable = errors.New("token storage unavailable")
)

// UsedTokenTTL is how long the persistent variant retains a used-token marker.
const UsedTokenTTL = 730 * 24 * time.Hour

// Manager records consumed refresh-token hashes.
//
// IsTokenUsed returns the hash unchanged when it has not been consumed and
// ErrTokenAlreadyUsed when it has. MarkTokenUsed performs the same check and records the
// hash in one atomic step; marking an already-consumed hash fails with
// ErrTokenAlreadyUsed rather than succeeding silently.
type Manager interface {
	IsTokenUsed(ctx context.Context, hash string) (string, error)
	MarkTokenUsed(ctx context.Context, hash string) error
}
