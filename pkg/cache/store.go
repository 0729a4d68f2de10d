package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store is a TTL cache for one namespace.
type Store struct {
	backend   Backend
	namespace Namespace
	ttl       time.Duration
	clock     Clock
	logger    zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger used for fail-open diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store over backend. A non-positive ttl selects the
// namespace default.
func NewStore(backend Backend, namespace Namespace, ttl time.Duration, opts ...Option) *Store {
	if backend == nil {
		panic("cache backend cannot be nil")
	}
	if ttl <= 0 {
		ttl = namespace.DefaultTTL()
	}

	s := &Store{
		backend:   backend,
		namespace: namespace,
		ttl:       ttl,
		clock:     SystemClock{},
		logger:    log.With().Str("component", "cache").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("namespace", string(namespace)).Logger()

	return s
}

// Namespace returns the namespace this store serves.
func (s *Store) Namespace() Namespace {
	return s.namespace
}

// TTL returns the configured time-to-live.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the payload stored for id if it is no older than the TTL.
// Expired and undecodable entries are deleted and reported absent. Backend
// errors are logged and reported absent.
func (s *Store) Get(ctx context.Context, id string) ([]byte, bool) {
	ns := string(s.namespace)
	key := s.key(id)

	entry, err := s.backend.Load(ctx, key)
	if err != nil {
		switch {
		case errors.Is(err, ErrCacheMiss):
			s.logger.Debug().Str("key", key).Msg("Cache miss")
		case errors.Is(err, ErrInvalidEntry):
			CacheErrors.WithLabelValues(ns, "get").Inc()
			s.logger.Warn().Err(err).Str("key", key).Msg("Dropping undecodable cache entry")
			s.remove(ctx, key)
		default:
			CacheErrors.WithLabelValues(ns, "get").Inc()
			s.logger.Warn().Err(err).Str("key", key).Msg("Cache get error, treating as miss")
		}
		CacheMisses.WithLabelValues(ns).Inc()
		return nil, false
	}

	now := s.clock.Now()
	if entry.Expired(now, s.ttl) {
		s.logger.Debug().
			Str("key", key).
			Dur("age", entry.Age(now)).
			Dur("ttl", s.ttl).
			Msg("Cache entry expired")
		s.remove(ctx, key)
		CacheExpired.WithLabelValues(ns).Inc()
		CacheMisses.WithLabelValues(ns).Inc()
		return nil, false
	}

	CacheHits.WithLabelValues(ns).Inc()
	s.logger.Debug().Str("key", key).Dur("age", entry.Age(now)).Msg("Cache hit")

	return entry.Payload, true
}

// Put upserts payload for id with the current time. Failures are logged,
// never returned.
func (s *Store) Put(ctx context.Context, id string, payload []byte) {
	key := s.key(id)
	entry := &Entry{
		Key:       key,
		Payload:   copyBytes(payload),
		WrittenAt: s.clock.Now(),
	}

	if err := s.backend.Save(ctx, entry, s.ttl); err != nil {
		CacheErrors.WithLabelValues(string(s.namespace), "put").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache payload")
		return
	}

	CachePayloadBytes.WithLabelValues(string(s.namespace)).Observe(float64(len(payload)))
	s.logger.Debug().Str("key", key).Int("bytes", len(payload)).Msg("Cached payload")
}

// Delete removes id. Deleting an absent id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) {
	s.remove(ctx, s.key(id))
}

func (s *Store) remove(ctx context.Context, key string) {
	if err := s.backend.Remove(ctx, key); err != nil {
		CacheErrors.WithLabelValues(string(s.namespace), "delete").Inc()
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to delete cache entry")
	}
}

func (s *Store) key(id string) string {
	return Key{Namespace: s.namespace, ID: id}.String()
}
