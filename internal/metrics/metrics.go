// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SourceRequests counts outbound adapter calls.
	// Labels:
	//   - source: adapter name (e.g., "gutenberg", "goodreads")
	//   - outcome: "success", "failure", "rejected"
	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_source_requests_total",
			Help: "Total number of outbound source requests",
		},
		[]string{"source", "outcome"},
	)

	// SourceRequestDuration measures outbound request latency including retries.
	SourceRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_source_request_duration_seconds",
			Help:    "Duration of outbound source requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "folio_source_circuit_breaker_state",
			Help: "Circuit breaker state per source (0 closed, 1 half-open, 2 open)",
		},
		[]string{"source"},
	)

	// Lookups counts book lookups by outcome.
	// Labels:
	//   - outcome: "cached", "completed", "partial", "not_found", "error"
	Lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_book_lookups_total",
			Help: "Total number of book lookups",
		},
		[]string{"outcome"},
	)

	// LinkFieldsFilled counts link fields populated by lookups.
	LinkFieldsFilled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_link_fields_filled_total",
			Help: "Total number of link fields filled by the completion workflow",
		},
		[]string{"field"},
	)

	// SimilarityPairs counts pairs written by the similarity batch.
	SimilarityPairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_similarity_pairs_total",
			Help: "Total number of book pairs stored in similarity tables",
		},
		[]string{"genre"},
	)

	// Recommendations counts books returned by recommendation requests.
	Recommendations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_recommendations_served_total",
			Help: "Total number of recommended books returned",
		},
	)

	// EngineCache counts recommendation engine cache hits and misses.
	EngineCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_recommend_engine_cache_total",
			Help: "Recommendation engine cache lookups by result",
		},
		[]string{"result"},
	)

	// HTTPRequests counts served API requests.
	// Labels:
	//   - method: HTTP method
	//   - route: chi route pattern (e.g., "/api/v1/books/{id}")
	//   - status: response status code
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures API latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)
