package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdapterCalls counts runner-level adapter outcomes.
	AdapterCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ara_adapter_calls_total",
			Help: "Total terminal adapter results by outcome",
		},
		[]string{"adapter", "outcome"},
	)

	// AdapterRetries counts in-runner retries by error kind.
	AdapterRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ara_adapter_retries_total",
			Help: "Total adapter retries by error kind",
		},
		[]string{"adapter", "kind"},
	)

	// AdapterLatency tracks per-attempt provider latency.
	AdapterLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ara_adapter_latency_seconds",
			Help:    "Provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"adapter"},
	)

	// TasksTotal counts tasks reaching a terminal state.
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ara_tasks_total",
			Help: "Total tasks by terminal state",
		},
		[]string{"state"},
	)

	// TaskDuration tracks full process() wall time.
	TaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ara_task_duration_seconds",
			Help:    "Research task duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)
