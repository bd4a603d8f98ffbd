// Package observability exposes the Prometheus metrics of the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProximityQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goodimpact_proximity_queries_total",
		Help: "Proximity queries served, by candidate kind",
	}, []string{"kind"})
	LocationPings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goodimpact_location_pings_total",
		Help: "Client location pings accepted",
	})
	TrackerDegradations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goodimpact_tracker_degradations_total",
		Help: "Location trackers degraded to the fallback coordinate, by reason",
	}, []string{"reason"})
	StoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goodimpact_store_errors_total",
		Help: "Record store read/write failures",
	})
	CacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goodimpact_cache_errors_total",
		Help: "Redis cache errors (non-fatal, request served from Mongo)",
	})
)
