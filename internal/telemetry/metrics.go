// Package telemetry exposes Prometheus collectors for the vote collector.
package telemetry

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchRequestsTotal   *prometheus.CounterVec
	fetchRetriesTotal    *prometheus.CounterVec
	fetchDurationSeconds *prometheus.HistogramVec
	probesTotal          *prometheus.CounterVec
	probeStopsTotal      *prometheus.CounterVec
	rollCallsTotal       *prometheus.CounterVec
	targetsTotal         *prometheus.CounterVec

	once sync.Once
)

// Init registers the Prometheus collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		fetchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "votes_fetch_requests_total",
				Help: "HTTP requests issued against vote sources, labeled by host and status code.",
			},
			[]string{"host", "code"},
		)

		fetchRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "votes_fetch_retries_total",
				Help: "Retries performed by the fetch client, labeled by host.",
			},
			[]string{"host"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "votes_fetch_duration_seconds",
				Help:    "Histogram of source fetch latencies, labeled by host.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"host"},
		)

		probesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "votes_house_probes_total",
				Help: "Lower-chamber enumeration probes, labeled by outcome (found, miss, skip).",
			},
			[]string{"outcome"},
		)

		probeStopsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "votes_house_probe_stops_total",
				Help: "Lower-chamber enumeration terminations, labeled by reason (streak, ceiling).",
			},
			[]string{"reason"},
		)

		rollCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "votes_rollcalls_collected_total",
				Help: "Roll-call details persisted, labeled by chamber.",
			},
			[]string{"chamber"},
		)

		targetsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "votes_targets_total",
				Help: "Collection targets processed, labeled by status (ok, failed).",
			},
			[]string{"status"},
		)
	})
}

// ObserveFetch records one HTTP request outcome.
func ObserveFetch(host string, code int, d time.Duration) {
	if fetchRequestsTotal == nil {
		return
	}
	fetchRequestsTotal.WithLabelValues(host, strconv.Itoa(code)).Inc()
	fetchDurationSeconds.WithLabelValues(host).Observe(d.Seconds())
}

// ObserveRetry records one retried request.
func ObserveRetry(host string) {
	if fetchRetriesTotal == nil {
		return
	}
	fetchRetriesTotal.WithLabelValues(host).Inc()
}

// ObserveProbe records one enumeration probe outcome.
func ObserveProbe(outcome string) {
	if probesTotal == nil {
		return
	}
	probesTotal.WithLabelValues(outcome).Inc()
}

// ObserveProbeStop records why an enumeration run terminated.
func ObserveProbeStop(reason string) {
	if probeStopsTotal == nil {
		return
	}
	probeStopsTotal.WithLabelValues(reason).Inc()
}

// ObserveRollCall records one persisted roll-call detail.
func ObserveRollCall(chamber string) {
	if rollCallsTotal == nil {
		return
	}
	rollCallsTotal.WithLabelValues(chamber).Inc()
}

// ObserveTarget records the outcome of one collection target.
func ObserveTarget(status string) {
	if targetsTotal == nil {
		return
	}
	targetsTotal.WithLabelValues(status).Inc()
}
