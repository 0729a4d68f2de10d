package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ResolveTotal.
const (
	OutcomeHit     = "hit"
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// ResolveTotal counts source outcomes per chain.
var ResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "legis_resolve_total",
	Help: "Resolver outcomes by chain, source and outcome",
}, []string{"chain", "source", "outcome"})

// ResolveNotFound counts exhausted chains.
var ResolveNotFound = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "legis_resolve_not_found_total",
	Help: "Resolutions that exhausted every source, by chain",
}, []string{"chain"})
