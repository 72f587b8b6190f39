// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CapabilityRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capability_requests_total",
			Help: "Total number of capability requests by outcome",
		},
		[]string{"outcome"},
	)

	MatchConfidence = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "capability_match_confidence",
			Help:    "Confidence of produced explorer results",
			Buckets: []float64{0.3, 0.4, 0.5, 0.6, 0.65, 0.7, 0.75, 0.8, 0.85, 0.9, 1},
		},
		[]string{"specificity"},
	)

	ToolExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_executions_total",
			Help: "Total number of tool execution requests by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	RateLimitErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_backend_errors_total",
			Help: "Limiter backend failures that let the request through",
		},
		[]string{"backend"},
	)

	UsageEventsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usage_events_written_total",
			Help: "Usage events persisted by sink",
		},
		[]string{"category"},
	)

	UsageEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usage_events_dropped_total",
			Help: "Usage events discarded because the queue was full or the sink failed",
		},
		[]string{"reason"},
	)

	UsageQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "usage_queue_depth",
			Help: "Number of usage events waiting to be written",
		},
	)
)
