// Package metrics registers the Prometheus collectors for transforms,
// datasource queries and the HTTP API.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

var (
	// Transform metrics
	TransformsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexus_transforms_total",
			Help: "Total number of panel transforms by panel and outcome",
		},
		[]string{"panel", "outcome"}, // outcome: "ok", "empty", "sample", "error"
	)

	TransformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexus_transform_duration_seconds",
			Help:    "Duration of panel transforms in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
		[]string{"panel"},
	)

	TransformRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexus_transform_input_rows",
			Help:    "Rows read per panel transform",
			Buckets: prometheus.ExponentialBuckets(1, 10, 7),
		},
		[]string{"panel"},
	)

	// Datasource metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexus_query_duration_seconds",
			Help:    "Duration of datasource queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"datasource", "type"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexus_query_errors_total",
			Help: "Total number of failed datasource queries",
		},
		[]string{"datasource", "type", "reason"}, // reason: "breaker_open", "timeout", "error"
	)

	DatasourcesRegistered = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nexus_datasources_registered",
			Help: "Number of datasources currently registered",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nexus_breaker_state",
			Help: "Circuit breaker state per datasource (0 closed, 1 half-open, 2 open)",
		},
		[]string{"datasource"},
	)

	// HTTP metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nexus_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nexus_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordTransform records one panel transform.
func RecordTransform(panel, outcome string, rows int, duration time.Duration) {
	TransformsTotal.WithLabelValues(panel, outcome).Inc()
	TransformDuration.WithLabelValues(panel).Observe(duration.Seconds())
	TransformRows.WithLabelValues(panel).Observe(float64(rows))
}

// RecordQuery records one datasource query.
func RecordQuery(datasource, dsType string, duration time.Duration, err error) {
	QueryDuration.WithLabelValues(datasource, dsType).Observe(duration.Seconds())
	if err != nil {
		QueryErrors.WithLabelValues(datasource, dsType, errorReason(err)).Inc()
	}
}

// RecordBreakerState publishes a breaker transition.
func RecordBreakerState(datasource string, state gobreaker.State) {
	BreakerState.WithLabelValues(datasource).Set(float64(state))
}

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "error"
}
