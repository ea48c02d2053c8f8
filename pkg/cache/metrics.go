package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts entries served from Redis.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_cache_hits_total",
		Help: "Total number of response cache hits",
	}, []string{"layer"})

	// CacheMisses counts lookups that found nothing usable.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_cache_misses_total",
		Help: "Total number of response cache misses",
	})

	// CacheErrors counts backend failures by operation (get, set, delete).
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "api_cache_errors_total",
		Help: "Total number of response cache operation errors",
	}, []string{"operation"})

	// NotModifiedResponses counts successful revalidations.
	NotModifiedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "api_304_responses_total",
		Help: "Total number of 304 Not Modified responses",
	})
)
