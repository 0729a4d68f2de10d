package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in the backend
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored entry could not be decoded
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Backend is the raw storage beneath a Store. Implementations make every
// individual Load, Save and Remove atomic; ordering across keys is not
// guaranteed.
type Backend interface {
	// Load returns the entry stored under key, or ErrCacheMiss.
	Load(ctx context.Context, key string) (*Entry, error)

	// Save upserts the entry. ttl is a hint for backends that can expire
	// keys natively; expiry is still enforced by the Store on read.
	Save(ctx context.Context, entry *Entry, ttl time.Duration) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases resources owned by the backend.
	Close() error
}

// VoteBackend stores vote count sets keyed by (billID, voteID).
type VoteBackend interface {
	// LoadVotes returns the option set, or ErrCacheMiss when none is stored.
	LoadVotes(ctx context.Context, billID, voteID string) ([]VoteCount, error)

	// ReplaceVotes swaps the whole option set atomically. An empty set
	// deletes the key.
	ReplaceVotes(ctx context.Context, billID, voteID string, counts []VoteCount) error
}

// Clock supplies the current time to a Store.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
