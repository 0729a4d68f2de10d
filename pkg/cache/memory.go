package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize bounds the number of entries a MemoryBackend keeps.
const DefaultMemorySize = 10000

// MemoryBackend keeps entries in a bounded in-process LRU. Least recently
// used keys are dropped when the bound is reached; that is indistinguishable
// from a miss for callers.
type MemoryBackend struct {
	entries *lru.Cache[string, Entry]

	mu    sync.RWMutex
	votes map[string][]VoteCount
}

var (
	_ Backend     = (*MemoryBackend)(nil)
	_ VoteBackend = (*MemoryBackend)(nil)
)

// NewMemoryBackend creates a backend holding at most size entries. A
// non-positive size selects DefaultMemorySize.
func NewMemoryBackend(size int) (*MemoryBackend, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	entries, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &MemoryBackend{
		entries: entries,
		votes:   make(map[string][]VoteCount),
	}, nil
}

// Load returns a copy of the stored entry.
func (b *MemoryBackend) Load(_ context.Context, key string) (*Entry, error) {
	entry, ok := b.entries.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	entry.Payload = copyBytes(entry.Payload)
	return &entry, nil
}

// Save stores a copy of entry. ttl is ignored; the Store checks expiry.
func (b *MemoryBackend) Save(_ context.Context, entry *Entry, _ time.Duration) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	stored := *entry
	stored.Payload = copyBytes(entry.Payload)
	b.entries.Add(stored.Key, stored)
	return nil
}

// Remove deletes key.
func (b *MemoryBackend) Remove(_ context.Context, key string) error {
	b.entries.Remove(key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (b *MemoryBackend) Len() int {
	return b.entries.Len()
}

// Close drops everything.
func (b *MemoryBackend) Close() error {
	b.entries.Purge()
	b.mu.Lock()
	b.votes = make(map[string][]VoteCount)
	b.mu.Unlock()
	return nil
}

// LoadVotes returns a copy of the option set.
func (b *MemoryBackend) LoadVotes(_ context.Context, billID, voteID string) ([]VoteCount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts, ok := b.votes[voteKey(billID, voteID)]
	if !ok {
		return nil, ErrCacheMiss
	}
	out := make([]VoteCount, len(counts))
	copy(out, counts)
	return out, nil
}

// ReplaceVotes swaps the option set under the write lock.
func (b *MemoryBackend) ReplaceVotes(_ context.Context, billID, voteID string, counts []VoteCount) error {
	key := voteKey(billID, voteID)

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(counts) == 0 {
		delete(b.votes, key)
		return nil
	}
	stored := make([]VoteCount, len(counts))
	copy(stored, counts)
	sortVoteCounts(stored)
	b.votes[key] = stored
	return nil
}
