// Package metrics exposes the process's prometheus instruments. Everything is
// registered on the default registry and served from /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dronelog"

var (
	FlightStarts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flight_starts_total",
		Help:      "The total number of flights started",
	})

	FlightEnds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flight_ends_total",
		Help:      "The total number of flights ended",
	})

	FlightConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flight_conflicts_total",
		Help:      "Start or end attempts rejected because of a concurrent flight state change",
	})

	IdempotentReplays = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Requests answered from the idempotency log instead of being re-executed",
	})

	MigrationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migration_runs_total",
		Help:      "Schema migration executions by outcome",
	}, []string{"outcome"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveHTTP records a completed HTTP request.
func ObserveHTTP(method, route, status string, elapsed time.Duration) {
	httpDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
