package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/legisloom/internal/config"
	"github.com/Sternrassler/legisloom/pkg/cache"
	"github.com/Sternrassler/legisloom/pkg/legis"
	"github.com/Sternrassler/legisloom/pkg/llm"
	"github.com/Sternrassler/legisloom/pkg/logging"
	"github.com/Sternrassler/legisloom/pkg/openstates"
	"github.com/Sternrassler/legisloom/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// backend is a cache backend that also stores vote counts. All three
// cache implementations are.
type backend interface {
	cache.Backend
	cache.VoteBackend
}

// app is the wired service and what must be closed with it.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	service *legis.Service
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newApp builds the service from cfg.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logging.Setup(logging.ConfigFor(cfg.Log.Level, cfg.Log.Format))
	logger := logging.NewLogger("legisd")

	a := &app{cfg: cfg, logger: logger}

	be, redisClient, err := a.openBackend(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := legis.Deps{
		Bills:         cache.NewStore(be, cache.NamespaceBills, cfg.Cache.BillTTL),
		Texts:         cache.NewStore(be, cache.NamespaceTexts, cfg.Cache.TextTTL),
		Summaries:     cache.NewStore(be, cache.NamespaceSummaries, cfg.Cache.SummaryTTL),
		Keywords:      cache.NewStore(be, cache.NamespaceKeywords, cfg.Cache.SummaryTTL),
		Votes:         cache.NewVoteStore(be, logging.NewLogger("votes")),
		SourceTimeout: cfg.SourceTimeout,
	}

	if cfg.OpenStates.APIKey != "" {
		tracker := ratelimit.NewTracker(nil, logging.NewLogger("ratelimit"))
		if redisClient != nil {
			tracker = ratelimit.NewRedisTracker(redisClient, logging.NewLogger("ratelimit"))
		}
		client, err := openstates.New(openstates.Config{
			APIKey:      cfg.OpenStates.APIKey,
			BaseURL:     cfg.OpenStates.BaseURL,
			UserAgent:   "legisloom/1.0",
			Timeout:     cfg.OpenStates.Timeout,
			RateLimiter: tracker,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("openstates client: %w", err)
		}
		deps.Upstream = client
	} else {
		logger.Warn().Msg("OPENSTATES_API_KEY not set, serving the static catalog only")
	}

	if cfg.LLM.APIKey != "" {
		client, err := llm.New(llm.Config{
			APIKey:           cfg.LLM.APIKey,
			BaseURL:          cfg.LLM.BaseURL,
			Model:            cfg.LLM.Model,
			SummaryMaxTokens: cfg.LLM.MaxTokens,
			ChatMaxTokens:    cfg.LLM.ChatTokens,
			Temperature:      cfg.LLM.Temperature,
			Timeout:          cfg.LLM.Timeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("llm client: %w", err)
		}
		deps.Summarizer = client
		deps.Chatter = client
		deps.ContentSummarizer = client
		deps.KeywordExtractor = client
	} else {
		logger.Warn().Msg("ANTHROPIC_API_KEY not set, summaries are placeholders, keywords come from subjects and chat is disabled")
	}

	a.service = legis.New(deps)
	return a, nil
}

// openBackend opens the configured cache backend. The redis client is
// returned too so the rate limit state can share it.
func (a *app) openBackend(ctx context.Context) (backend, *redis.Client, error) {
	cc := a.cfg.Cache

	switch cc.Backend {
	case config.BackendRedis:
		opts, err := cc.RedisOptions()
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		a.closers = append(a.closers, client.Close)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
		}
		a.logger.Info().Str("addr", opts.Addr).Msg("Using Redis cache backend")
		return cache.NewRedisBackend(client), client, nil

	case config.BackendSQL:
		be, err := cache.OpenSQLBackend(cc.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, be.Close)
		a.logger.Info().Msg("Using SQL cache backend")
		return be, nil, nil

	default:
		be, err := cache.NewMemoryBackend(cc.MemorySize)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, be.Close)
		a.logger.Info().Int("size", cc.MemorySize).Msg("Using in-memory cache backend")
		return be, nil, nil
	}
}
