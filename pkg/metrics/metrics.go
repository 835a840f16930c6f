package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Single-item sync path
	RecordsIndexed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_records_indexed_total",
			Help: "Total number of records saved to the search index",
		},
		[]string{"source"},
	)

	RecordsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_records_deleted_total",
			Help: "Total number of records deleted from the search index",
		},
		[]string{"source"},
	)

	// Rebuild path
	RebuildBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_rebuild_batches_total",
			Help: "Total number of rebuild batches processed",
		},
		[]string{"mode", "status"},
	)

	RebuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "searchsync_rebuild_duration_seconds",
			Help:    "Full rebuild duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"mode"},
	)

	// Search engine client
	SearchAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_search_api_requests_total",
			Help: "Total number of search engine API requests",
		},
		[]string{"operation", "status"},
	)

	SearchAPIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "searchsync_search_api_duration_seconds",
			Help:    "Search engine API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Lifecycle hooks
	HookInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "searchsync_hook_invocations_total",
			Help: "Total number of content lifecycle hook invocations",
		},
		[]string{"event", "outcome"},
	)
)

// RecordAPIRequest records one search engine API call.
func RecordAPIRequest(operation, status string, seconds float64) {
	SearchAPIRequests.WithLabelValues(operation, status).Inc()
	SearchAPIDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordHook records one lifecycle hook invocation.
func RecordHook(event, outcome string) {
	HookInvocations.WithLabelValues(event, outcome).Inc()
}
