// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EngineOperationsTotal counts trip engine operations by stage and outcome.
	EngineOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_engine_operations_total",
			Help: "Total number of trip engine operations",
		},
		[]string{"stage", "status"},
	)

	// EngineOperationDuration tracks trip engine operation latency by stage.
	EngineOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trip_engine_operation_duration_seconds",
			Help:    "Duration of trip engine operations in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
		[]string{"stage"},
	)

	// GenAICallsTotal counts generative model calls by outcome.
	GenAICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_genai_calls_total",
			Help: "Total number of generative model API calls",
		},
		[]string{"status"},
	)

	// GenAICallDuration tracks generative model call latency.
	GenAICallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trip_genai_call_duration_seconds",
			Help:    "Duration of generative model API calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	// ActiveSessions tracks the number of live trip sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trip_active_sessions",
			Help: "Number of active trip planning sessions",
		},
	)

	// TravelSearchesTotal counts flight/hotel searches by kind and outcome.
	TravelSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_travel_searches_total",
			Help: "Total number of travel search requests",
		},
		[]string{"kind", "status"},
	)

	// TravelCacheHits counts cache hits/misses for travel searches.
	TravelCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_travel_cache_total",
			Help: "Travel search cache hits and misses",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal counts HTTP requests by route, method, and code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trip_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "code"},
	)

	// HTTPRequestDuration tracks HTTP request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trip_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// RecordEngineOperation records one engine operation with its outcome.
func RecordEngineOperation(stage string, seconds float64, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	EngineOperationsTotal.WithLabelValues(stage, status).Inc()
	EngineOperationDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordGenAICall records one generative model call with its outcome.
func RecordGenAICall(seconds float64, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	GenAICallsTotal.WithLabelValues(status).Inc()
	GenAICallDuration.Observe(seconds)
}
