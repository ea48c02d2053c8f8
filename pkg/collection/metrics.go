package collection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/resource-collection/pkg/metrics"
)

const (
	outcomeFetched      = "fetched"
	outcomeShortCircuit = "short_circuit"
	outcomeExhausted    = "exhausted"
	outcomeFailed       = "failed"
)

var (
	factory = promauto.With(metrics.Registry)

	fetchesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_fetches_total",
		Help: "Total number of collection page realizations by outcome",
	}, []string{"resource", "outcome"})

	cacheHitsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_cache_hits_total",
		Help: "Total number of fetches served from the collection cache",
	}, []string{"resource"})

	dispatchTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_dispatch_total",
		Help: "Total number of dynamically dispatched operations by strategy",
	}, []string{"strategy"})
)
