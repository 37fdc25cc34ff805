// README: Prometheus collectors for optimizer runs, caches, resolver calls and HTTP.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	OptimizeRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flock_optimize_runs_total",
		Help: "Optimization requests by outcome.",
	}, []string{"outcome"})

	OptimizeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "flock_optimize_duration_seconds",
		Help:    "Wall time from admission to completion of an optimization run.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flock_cache_lookups_total",
		Help: "Cache lookups by cache name and result.",
	}, []string{"cache", "result"})

	ResolverRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flock_resolver_requests_total",
		Help: "Geocode and directions calls made to the maps provider.",
	}, []string{"kind", "result"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flock_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"method", "route", "status"})
)

// Outcome labels for OptimizeRuns.
const (
	OutcomeCacheHit   = "cache_hit"
	OutcomeComplete   = "complete"
	OutcomeNoSolution = "no_solution"
	OutcomeFailed     = "failed"
	OutcomeBusy       = "busy"
	OutcomeCancelled  = "cancelled"
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{OptimizeRuns, OptimizeDuration, CacheLookups, ResolverRequests, HTTPRequests}
}

// Register adds every flock collector to reg. Collectors that are already
// registered are skipped so tests can register more than once.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}

func CacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
