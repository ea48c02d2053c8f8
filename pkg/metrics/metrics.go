// Package metrics exposes the Prometheus registry used by the collection and
// transport packages. Metrics themselves are declared next to the code that
// records them (collection, client, cache, ratelimit) via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer collection metrics are created with. Handler
// serves it when it is left as the default registerer.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics reference
//
// Collection (pkg/collection):
//   - collection_fetches_total{resource,outcome} (Counter): fetch attempts by
//     outcome (fetched, short_circuit, exhausted, failed)
//   - collection_cache_hits_total{resource} (Counter): reads served from the
//     realized page without I/O
//   - collection_dispatch_total{strategy} (Counter): dynamic dispatch
//     resolutions (type_operation, sequence, sub_collection, undefined)
//
// Transport (pkg/client):
//   - api_requests_total{endpoint,status} (Counter)
//   - api_request_duration_seconds{endpoint} (Histogram)
//   - api_errors_total{class} (Counter): client, server, rate_limit, network
//   - api_retries_total{error_class} (Counter)
//   - api_retry_backoff_seconds{error_class} (Histogram)
//
// Response cache (pkg/cache):
//   - api_cache_hits_total{layer} (Counter)
//   - api_cache_misses_total (Counter)
//   - api_cache_errors_total{operation} (Counter)
//   - api_304_responses_total (Counter)
//
// Rate limit (pkg/ratelimit):
//   - api_rate_limit_remaining (Gauge)
//   - api_rate_limit_blocks_total (Counter)
//   - api_rate_limit_throttles_total (Counter)
//
// Example queries:
//
//	# share of collection reads served from the realized page
//	sum(rate(collection_cache_hits_total[5m])) /
//	(sum(rate(collection_cache_hits_total[5m])) + sum(rate(collection_fetches_total[5m])))
//
//	# fail-soft rate
//	rate(collection_fetches_total{outcome="failed"}[5m])
