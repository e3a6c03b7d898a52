// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
		},
		[]string{"method", "path", "status"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveRequests tracks requests currently being served
	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Number of HTTP requests currently in flight",
		},
	)
)

// Parse metrics track the page-to-feed pipeline
var (
	// ParseRequestsTotal counts parse operations by producing source and outcome
	ParseRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parser_parse_requests_total",
			Help: "Total number of parse operations",
		},
		[]string{"source", "outcome"}, // outcome: success, empty, error
	)

	// ParseDuration measures the time to turn a URL into items
	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parser_parse_duration_seconds",
			Help:    "Time taken to parse a URL",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"source"},
	)

	// ParseItemsReturned measures how many items a parse returns
	ParseItemsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parser_items_returned",
			Help:    "Number of items returned per parse",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	// PageFetchTotal counts page fetches by result and the header profile that was last tried
	PageFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parser_page_fetch_total",
			Help: "Total number of page fetches",
		},
		[]string{"result", "profile"}, // result: success, forbidden, failure
	)

	// PageFetchDuration measures time to fetch a page
	PageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parser_page_fetch_duration_seconds",
			Help:    "Time taken to fetch a page",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)

	// PageFetchSize measures fetched page size in bytes
	PageFetchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parser_page_fetch_size_bytes",
			Help:    "Fetched page size in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KB .. 16MB
		},
	)

	// LLMRequestsTotal counts LLM completions by provider and outcome
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parser_llm_requests_total",
			Help: "Total number of LLM completion requests",
		},
		[]string{"provider", "outcome"}, // outcome: success, failure, rate_limited, circuit_open
	)

	// LLMRequestDuration measures LLM completion latency
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parser_llm_request_duration_seconds",
			Help:    "Time taken by an LLM completion",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"provider"},
	)

	// ExtractionResultsTotal counts AI extraction results
	ExtractionResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parser_ai_extraction_total",
			Help: "Total number of AI extraction attempts by result",
		},
		[]string{"result"}, // result: success, insufficient, invalid_json, llm_error
	)

	// HeuristicEntries measures entries produced by the selector heuristics
	HeuristicEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parser_heuristic_entries",
			Help:    "Entries produced by the heuristic HTML parser",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	// CacheRequestsTotal counts parse cache lookups
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parser_cache_requests_total",
			Help: "Total number of parse cache lookups",
		},
		[]string{"backend", "result"}, // result: hit, miss, error
	)
)

// Database metrics track the optional history store
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// HistoryWritesTotal counts parse history writes by result
	HistoryWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parser_history_writes_total",
			Help: "Total number of parse history writes",
		},
		[]string{"result"},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
