// Package metrics exposes the Prometheus registry and /metrics handler for
// legisloom. The metrics themselves are defined with promauto in the
// packages that record them (cache, resolve, openstates, ratelimit, llm).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every legisloom metric is registered with.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the matching gatherer served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metric Catalogue
//
// Cache (pkg/cache):
//   - legis_cache_hits_total{namespace}
//   - legis_cache_misses_total{namespace}
//   - legis_cache_expired_total{namespace}: expired entries deleted on read
//   - legis_cache_errors_total{namespace, operation}: fail-open backend errors
//   - legis_cache_payload_bytes{namespace} (Histogram)
//
// Resolver chains (pkg/resolve):
//   - legis_resolve_total{chain, source, outcome}: outcome is hit, success, empty or error
//   - legis_resolve_not_found_total{chain}
//
// Upstream (pkg/openstates):
//   - legis_openstates_requests_total{endpoint, status}
//   - legis_openstates_request_duration_seconds{endpoint} (Histogram)
//   - legis_openstates_errors_total{class}
//   - legis_openstates_retries_total{error_class}
//   - legis_openstates_retry_backoff_seconds{error_class} (Histogram)
//   - legis_openstates_retry_exhausted_total{error_class}
//
// Rate limit (pkg/ratelimit):
//   - legis_rate_limit_hits_total: 429 responses received
//   - legis_rate_limit_blocks_total: requests refused locally
//   - legis_rate_limit_window_seconds (Gauge)
//
// Language model (pkg/llm):
//   - legis_llm_requests_total{operation, outcome}
//   - legis_llm_request_duration_seconds{operation} (Histogram)
//
// Example Prometheus Queries:
//
//   # Cache hit rate per namespace
//   sum by (namespace) (rate(legis_cache_hits_total[5m])) /
//   (sum by (namespace) (rate(legis_cache_hits_total[5m])) + sum by (namespace) (rate(legis_cache_misses_total[5m])))
//
//   # Share of metadata lookups served by the catalog fallback
//   rate(legis_resolve_total{chain="metadata",source="catalog",outcome="success"}[5m])
//
//   # P95 upstream latency
//   histogram_quantile(0.95, rate(legis_openstates_request_duration_seconds_bucket[5m]))
