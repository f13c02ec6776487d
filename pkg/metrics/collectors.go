package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	collectorsMu sync.RWMutex

	cacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cachekit",
			Subsystem: "cache",
			Name:      "operations_total",
			Help:      "Cache operations by key domain and outcome (hit, miss, error).",
		},
		[]string{"domain", "outcome"},
	)

	rateLimitDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cachekit",
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Rate limit decisions by scope and outcome (allowed, denied, failopen).",
		},
		[]string{"scope", "outcome"},
	)

	lockAcquisitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cachekit",
			Subsystem: "lock",
			Name:      "acquisitions_total",
			Help:      "Lock acquisition attempts by outcome (acquired, contended, error).",
		},
		[]string{"outcome"},
	)

	lockHoldSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cachekit",
			Subsystem: "lock",
			Name:      "hold_seconds",
			Help:      "Time between lock acquisition and release.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)
)

// registerCollectors registers the cachekit collectors with the registry.
func registerCollectors(reg *prometheus.Registry) error {
	for _, c := range []prometheus.Collector{cacheOps, rateLimitDecisions, lockAcquisitions, lockHoldSeconds} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// resetCollectors clears recorded series after Shutdown so a later Init
// starts from a clean registry.
func resetCollectors() {
	collectorsMu.Lock()
	defer collectorsMu.Unlock()
	cacheOps.Reset()
	rateLimitDecisions.Reset()
	lockAcquisitions.Reset()
}

// RecordCacheHit records a cache hit for the given key domain.
func RecordCacheHit(domain string) {
	record(func() { cacheOps.WithLabelValues(domain, "hit").Inc() })
}

// RecordCacheMiss records a cache miss for the given key domain.
func RecordCacheMiss(domain string) {
	record(func() { cacheOps.WithLabelValues(domain, "miss").Inc() })
}

// RecordCacheError records a failed cache operation for the given key domain.
func RecordCacheError(domain string) {
	record(func() { cacheOps.WithLabelValues(domain, "error").Inc() })
}

// RecordRateLimit records a rate limit decision for the given scope.
// Outcome is "allowed", "denied", or "failopen".
func RecordRateLimit(scope, outcome string) {
	record(func() { rateLimitDecisions.WithLabelValues(scope, outcome).Inc() })
}

// RecordLockAcquisition records a lock acquisition outcome:
// "acquired", "contended", or "error".
func RecordLockAcquisition(outcome string) {
	record(func() { lockAcquisitions.WithLabelValues(outcome).Inc() })
}

// ObserveLockHold records how long a lock was held, in seconds.
func ObserveLockHold(seconds float64) {
	record(func() { lockHoldSeconds.Observe(seconds) })
}

// record executes fn only when the metrics system is initialized.
func record(fn func()) {
	registryMu.RLock()
	ok := initialized
	registryMu.RUnlock()
	if ok {
		fn()
	}
}
