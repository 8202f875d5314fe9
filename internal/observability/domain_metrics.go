package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	translationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_translation_requests_total",
			Help: "Total number of natural-language translation attempts by outcome.",
		},
		[]string{"outcome"},
	)
	translationLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_translation_latency_ms",
			Help:    "Generation backend round-trip latency in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000},
		},
	)
	unsafeQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_unsafe_queries_total",
			Help: "Total number of generated statements rejected by the safety gate.",
		},
		[]string{"reason"},
	)
	queryExecutionLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_execution_latency_ms",
			Help:    "Database execution latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
	)
	queryRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_rows_returned",
			Help:    "Rows returned to the caller per successful request.",
			Buckets: []float64{0, 1, 10, 50, 100, 200, 500, 1000},
		},
	)
	pipelineErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_pipeline_errors_total",
			Help: "Total number of failed requests by error code.",
		},
		[]string{"code"},
	)
)

func init() {
	prometheus.MustRegister(
		translationRequestsTotal,
		translationLatencyMs,
		unsafeQueriesTotal,
		queryExecutionLatencyMs,
		queryRowsReturned,
		pipelineErrorsTotal,
	)
}

func ObserveTranslation(outcome string, elapsed time.Duration) {
	translationRequestsTotal.WithLabelValues(outcome).Inc()
	translationLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

func IncrementUnsafeQuery(reason string) {
	unsafeQueriesTotal.WithLabelValues(reason).Inc()
}

func ObserveQueryExecution(returnedRows int, elapsed time.Duration) {
	queryExecutionLatencyMs.Observe(float64(elapsed.Milliseconds()))
	queryRowsReturned.Observe(float64(returnedRows))
}

func IncrementPipelineError(code string) {
	pipelineErrorsTotal.WithLabelValues(code).Inc()
}
