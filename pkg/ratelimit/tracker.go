package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	rateLimitHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "legis_rate_limit_hits_total",
		Help: "Total number of 429 responses received from upstream",
	})

	rateLimitBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "legis_rate_limit_blocks_total",
		Help: "Total number of requests refused locally during a rate limit window",
	})

	rateLimitWindowSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "legis_rate_limit_window_seconds",
		Help: "Length of the most recent rate limit window in seconds",
	})
)

// Tracker records 429 windows and gates requests.
type Tracker struct {
	store  StateStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewTracker creates a tracker over store. A nil store keeps state in
// process.
func NewTracker(store StateStore, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStateStore()
	}
	return &Tracker{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// NewRedisTracker creates a tracker sharing state through Redis.
func NewRedisTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return NewTracker(NewRedisStateStore(redisClient), logger)
}

// GetState returns the current state.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	return t.store.Load(ctx)
}

// UpdateFromResponse records a window when status is 429. Other statuses
// leave the state unchanged. It returns the window length recorded.
func (t *Tracker) UpdateFromResponse(ctx context.Context, status int, headers http.Header) (time.Duration, error) {
	if status != http.StatusTooManyRequests {
		return 0, nil
	}

	now := t.now()
	wait, ok := ParseRetryAfter(headers.Get("Retry-After"), now)
	if !ok {
		wait = DefaultRetryAfter
	}

	state, err := t.store.Load(ctx)
	if err != nil {
		return wait, fmt.Errorf("load rate limit state: %w", err)
	}

	until := now.Add(wait)
	if until.After(state.BlockedUntil) {
		state.BlockedUntil = until
	}
	state.LastUpdate = now
	state.Hits++

	if err := t.store.Save(ctx, state); err != nil {
		return wait, fmt.Errorf("save rate limit state: %w", err)
	}

	rateLimitHitsTotal.Inc()
	rateLimitWindowSeconds.Set(wait.Seconds())

	t.logger.Warn().
		Dur("retry_after", wait).
		Time("blocked_until", state.BlockedUntil).
		Int("hits", state.Hits).
		Msg("Upstream rate limit reached - requests will be refused until the window passes")

	return wait, nil
}

// ShouldAllowRequest reports whether a request may go out now. When it may
// not, the remaining window is returned.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, time.Duration, error) {
	state, err := t.store.Load(ctx)
	if err != nil {
		return true, 0, fmt.Errorf("get rate limit state: %w", err)
	}

	now := t.now()
	if !state.Blocked(now) {
		return true, 0, nil
	}

	remaining := state.TimeUntilReset(now)
	t.logger.Debug().
		Dur("remaining", remaining).
		Msg("Rate limit window active - refusing request")
	rateLimitBlocksTotal.Inc()
	return false, remaining, nil
}

// ParseRetryAfter parses a Retry-After value given in seconds or as an
// HTTP date. The result is capped at MaxRetryAfter.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	var d time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		d = at.Sub(now)
		if d < 0 {
			d = 0
		}
	} else {
		return 0, false
	}

	if d > MaxRetryAfter {
		d = MaxRetryAfter
	}
	return d, true
}
