// Package ratelimit tracks upstream throttling. When OpenStates answers 429
// the Retry-After window is recorded and requests are refused locally until
// it passes, so a throttled key is not hammered further.
package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key for shared rate limit state.
const RedisKeyState = "legis:rate_limit:state"

// Window bounds.
const (
	// DefaultRetryAfter applies when a 429 carries no usable Retry-After.
	DefaultRetryAfter = 60 * time.Second

	// MaxRetryAfter caps a single window.
	MaxRetryAfter = 15 * time.Minute
)

// State is the current throttling window. It is shared across instances
// when Redis is configured.
type State struct {
	// BlockedUntil is the end of the current window. Zero means not blocked.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastUpdate is when the last 429 was recorded.
	LastUpdate time.Time `json:"last_update"`

	// Hits counts 429 responses since the process or Redis key started.
	Hits int `json:"hits"`
}

// Blocked reports whether now falls inside the window.
func (s *State) Blocked(now time.Time) bool {
	return now.Before(s.BlockedUntil)
}

// TimeUntilReset returns the remaining window, or 0 when not blocked.
func (s *State) TimeUntilReset(now time.Time) time.Duration {
	d := s.BlockedUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// StateStore persists State.
type StateStore interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// MemoryStateStore keeps State in process.
type MemoryStateStore struct {
	mu    sync.Mutex
	state State
}

// NewMemoryStateStore creates an empty in-process store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

func (m *MemoryStateStore) Load(_ context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.state
	return &s, nil
}

func (m *MemoryStateStore) Save(_ context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = *state
	return nil
}

// RedisStateStore shares State through one Redis key.
type RedisStateStore struct {
	redis *redis.Client
}

// NewRedisStateStore creates a Redis-backed store.
func NewRedisStateStore(redisClient *redis.Client) *RedisStateStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStateStore{redis: redisClient}
}

// Load returns a zero State when nothing is stored.
func (r *RedisStateStore) Load(ctx context.Context) (*State, error) {
	data, err := r.redis.Get(ctx, RedisKeyState).Bytes()
	if errors.Is(err, redis.Nil) {
		return &State{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse rate limit state: %w", err)
	}
	return &s, nil
}

// Save stores state with an expiry at the end of its window.
func (r *RedisStateStore) Save(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal rate limit state: %w", err)
	}

	ttl := time.Until(state.BlockedUntil)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.redis.Set(ctx, RedisKeyState, data, ttl).Err(); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}
