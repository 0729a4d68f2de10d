package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks live entries returned by Get
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legis_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"namespace"},
	)

	// CacheMisses tracks Get calls that found nothing usable
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legis_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"namespace"},
	)

	// CacheExpired tracks entries purged lazily on read
	CacheExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legis_cache_expired_total",
			Help: "Total number of expired entries deleted on read",
		},
		[]string{"namespace"},
	)

	// CacheErrors tracks backend failures swallowed by the store
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "legis_cache_errors_total",
			Help: "Total number of cache backend errors",
		},
		[]string{"namespace", "operation"}, // "get", "put", "delete", "votes_get", "votes_put"
	)

	// CachePayloadBytes observes the size of written payloads
	CachePayloadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "legis_cache_payload_bytes",
			Help:    "Size of payloads written to the cache",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"namespace"},
	)
)
