// Bazaarplan - Creator Bazaar Planning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bazaarplan

// Package metrics holds the Prometheus collectors for Bazaarplan. Collectors
// are registered on the default registry at init and exposed by the API on
// /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scoring

	SuggestionsComputed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bazaarplan_suggestions_computed_total",
			Help: "Total number of candidate dates scored",
		},
	)

	SuggestionsByClass = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaarplan_suggestions_by_class_total",
			Help: "Scored candidate dates by classification",
		},
		[]string{"class"},
	)

	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bazaarplan_scoring_duration_seconds",
			Help:    "Time to score a full horizon",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	// MalformedRecords counts sub-records skipped instead of failing a call.
	MalformedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaarplan_malformed_records_total",
			Help: "Malformed table entries or payloads skipped with a warning",
		},
		[]string{"kind"}, // commercial_event, holiday_period, product_ids
	)

	// Inventory

	EligibilityChecks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bazaarplan_eligibility_checks_total",
			Help: "Total number of inventory eligibility computations",
		},
	)

	EligibleProducts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bazaarplan_eligible_products",
			Help:    "Number of eligible products per eligibility computation",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// Store

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bazaarplan_store_operation_duration_seconds",
			Help:    "Duration of store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaarplan_store_errors_total",
			Help: "Store operation failures",
		},
		[]string{"operation"},
	)

	AssignmentConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bazaarplan_assignment_conflicts_total",
			Help: "Product assignments rejected because the product was unavailable or already claimed",
		},
	)

	BazaarsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bazaarplan_bazaars_scheduled_total",
			Help: "Bazaars scheduled",
		},
	)

	BazaarsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bazaarplan_bazaars_cancelled_total",
			Help: "Bazaars cancelled",
		},
	)

	// Cache

	SuggestionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bazaarplan_suggestion_cache_hits_total",
			Help: "Suggestion set cache hits",
		},
	)

	SuggestionCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bazaarplan_suggestion_cache_misses_total",
			Help: "Suggestion set cache misses",
		},
	)

	// Events

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaarplan_events_published_total",
			Help: "Domain events published",
		},
		[]string{"topic"},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaarplan_event_publish_errors_total",
			Help: "Domain event publish failures, including circuit-open rejections",
		},
		[]string{"topic"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bazaarplan_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// API

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaarplan_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bazaarplan_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bazaarplan_api_active_requests",
			Help: "In-flight API requests",
		},
	)
)

// RecordScoring records one horizon scoring run.
func RecordScoring(duration time.Duration, byClass map[string]int) {
	ScoringDuration.Observe(duration.Seconds())
	for class, n := range byClass {
		SuggestionsComputed.Add(float64(n))
		SuggestionsByClass.WithLabelValues(class).Add(float64(n))
	}
}

// RecordEligibility records one eligibility computation.
func RecordEligibility(eligible int) {
	EligibilityChecks.Inc()
	EligibleProducts.Observe(float64(eligible))
}

// RecordStoreOperation records store latency and failures.
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(operation).Inc()
	}
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}
