// Package metrics exposes Prometheus instrumentation for the measurement
// pipeline. All collectors are registered on the default registry and served
// by the HTTP surface at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AgriscanNamespace prefixes every metric exported by the daemon.
const AgriscanNamespace = "agriscan"

var (
	// SamplesAcquired counts acquisition ticks that produced a sample,
	// whether or not the model evaluation succeeded.
	SamplesAcquired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: AgriscanNamespace,
		Name:      "samples_acquired_total",
		Help:      "Samples produced by the acquisition loop.",
	})

	// SamplesPersisted counts rows committed to the database.
	SamplesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: AgriscanNamespace,
		Name:      "samples_persisted_total",
		Help:      "Sample rows committed to the database.",
	})

	// SamplesDropped counts samples discarded by batcher overflow.
	SamplesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: AgriscanNamespace,
		Name:      "samples_dropped_total",
		Help:      "Samples dropped because the batch buffer was full.",
	})

	// Flushes counts successful batch commits.
	Flushes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: AgriscanNamespace,
		Name:      "batch_flushes_total",
		Help:      "Successful batch transactions.",
	})

	// FlushFailures counts batch transactions that failed to commit.
	FlushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: AgriscanNamespace,
		Name:      "batch_flush_failures_total",
		Help:      "Batch transactions that failed and were retried.",
	})

	// DuplicatesSkipped counts rows skipped for duplicate timestamps.
	DuplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: AgriscanNamespace,
		Name:      "duplicate_timestamps_total",
		Help:      "Rows skipped inside a batch due to a duplicate timestamp.",
	})

	// ModelErrors counts computation model evaluation failures.
	ModelErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: AgriscanNamespace,
		Name:      "model_errors_total",
		Help:      "Computation model evaluation failures (sample kept with qc_valid=false).",
	})

	// QueryLatencySeconds tracks query surface latency per endpoint.
	QueryLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: AgriscanNamespace,
		Name:      "query_latency_seconds",
		Buckets:   prometheus.DefBuckets,
		Help:      "The latency of query surface operations in seconds.",
	},
		[]string{"endpoint"},
	)
)
