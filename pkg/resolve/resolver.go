// Package resolve implements cache-first lookup over an ordered chain of
// fallback sources.
//
// Resolve checks the cache, then tries each source in order. The first
// non-empty value is written back to the cache (unless its source is
// Uncached) and returned. When every source fails, Resolve returns a
// *NotFoundError carrying each failure.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/legisloom/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SourceCache is the Result.Source of a cache hit.
const SourceCache = "cache"

// Result is a resolved value and where it came from.
type Result[T any] struct {
	Value  T
	Source string
	Cached bool
}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	chain   string
	logger  zerolog.Logger
	timeout time.Duration
}

// WithChain names the chain in logs and metrics. Defaults to the store's
// namespace.
func WithChain(name string) Option {
	return func(o *options) { o.chain = name }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSourceTimeout bounds each source fetch. Zero means no bound beyond
// the caller's context.
func WithSourceTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// Resolver resolves ids through a cache and a fallback chain.
type Resolver[T any] struct {
	store   *cache.Store
	codec   Codec[T]
	sources []Source[T]
	opts    options
}

// New creates a resolver. A nil store disables caching.
func New[T any](store *cache.Store, codec Codec[T], sources []Source[T], opts ...Option) *Resolver[T] {
	if codec == nil {
		panic("resolve codec cannot be nil")
	}

	o := options{logger: log.Logger}
	if store != nil {
		o.chain = string(store.Namespace())
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.chain == "" {
		o.chain = "default"
	}
	o.logger = o.logger.With().Str("chain", o.chain).Logger()

	return &Resolver[T]{
		store:   store,
		codec:   codec,
		sources: append([]Source[T](nil), sources...),
		opts:    o,
	}
}

// Sources returns the source names in chain order.
func (r *Resolver[T]) Sources() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// Resolve returns the value for id. It fails with ErrEmptyID, with the
// caller's context error, or with a *NotFoundError.
func (r *Resolver[T]) Resolve(ctx context.Context, id string) (Result[T], error) {
	var zero Result[T]

	id = strings.TrimSpace(id)
	if id == "" {
		return zero, ErrEmptyID
	}

	logger := r.opts.logger.With().Str("id", id).Logger()

	if v, ok := r.fromCache(ctx, id, logger); ok {
		return Result[T]{Value: v, Source: SourceCache, Cached: true}, nil
	}

	attempts := make([]Attempt, 0, len(r.sources))
	for _, src := range r.sources {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("resolve %q: %w", id, err)
		}

		v, err := r.fetch(ctx, src, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, fmt.Errorf("resolve %q: %w", id, ctxErr)
			}
			ResolveTotal.WithLabelValues(r.opts.chain, src.Name(), OutcomeError).Inc()
			logger.Warn().Err(err).Str("source", src.Name()).Msg("Source failed, trying next")
			attempts = append(attempts, Attempt{Source: src.Name(), Err: err})
			continue
		}

		if r.codec.Empty(v) {
			ResolveTotal.WithLabelValues(r.opts.chain, src.Name(), OutcomeEmpty).Inc()
			logger.Warn().Str("source", src.Name()).Msg("Source returned empty result, trying next")
			attempts = append(attempts, Attempt{Source: src.Name(), Err: ErrEmptyResult})
			continue
		}

		ResolveTotal.WithLabelValues(r.opts.chain, src.Name(), OutcomeSuccess).Inc()
		if cacheable(src) {
			r.toCache(ctx, id, v, logger)
		}
		logger.Debug().Str("source", src.Name()).Msg("Resolved")
		return Result[T]{Value: v, Source: src.Name()}, nil
	}

	ResolveNotFound.WithLabelValues(r.opts.chain).Inc()
	logger.Error().Int("attempts", len(attempts)).Msg("All sources exhausted")
	return zero, &NotFoundError{ID: id, Attempts: attempts}
}

// Invalidate drops the cached value for id.
func (r *Resolver[T]) Invalidate(ctx context.Context, id string) {
	if r.store != nil {
		r.store.Delete(ctx, strings.TrimSpace(id))
	}
}

func (r *Resolver[T]) fetch(ctx context.Context, src Source[T], id string) (T, error) {
	if r.opts.timeout <= 0 {
		return src.Fetch(ctx, id)
	}
	fctx, cancel := context.WithTimeout(ctx, r.opts.timeout)
	defer cancel()
	return src.Fetch(fctx, id)
}

func (r *Resolver[T]) fromCache(ctx context.Context, id string, logger zerolog.Logger) (T, bool) {
	var zero T
	if r.store == nil {
		return zero, false
	}

	payload, ok := r.store.Get(ctx, id)
	if !ok {
		return zero, false
	}

	v, err := r.codec.Decode(payload)
	if err != nil {
		logger.Warn().Err(err).Msg("Cached value undecodable, dropping")
		r.store.Delete(ctx, id)
		return zero, false
	}
	if r.codec.Empty(v) {
		r.store.Delete(ctx, id)
		return zero, false
	}

	ResolveTotal.WithLabelValues(r.opts.chain, SourceCache, OutcomeHit).Inc()
	return v, true
}

func (r *Resolver[T]) toCache(ctx context.Context, id string, v T, logger zerolog.Logger) {
	if r.store == nil {
		return
	}
	payload, err := r.codec.Encode(v)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to encode value for cache")
		return
	}
	r.store.Put(ctx, id, payload)
}
