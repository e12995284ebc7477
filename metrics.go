package basecamp

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request pipeline and
// the validator store. It is safe for concurrent use; a nil collector
// records nothing.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	conditionalRequests *prometheus.CounterVec
	notModified         *prometheus.CounterVec
	validatorUpdates    prometheus.Counter
	storeErrors         *prometheus.CounterVec

	deduplicationHits *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec

	registerer prometheus.Registerer
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	mc := &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "basecamp_requests_total",
				Help: "Total number of API requests that received a response or failed in transport",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "basecamp_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "basecamp_requests_in_flight",
				Help: "Number of API requests currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		conditionalRequests: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "basecamp_conditional_requests_total",
				Help: "Total number of requests sent with If-None-Match",
			},
			[]string{"method", "endpoint"},
		),
		notModified: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "basecamp_not_modified_total",
				Help: "Total number of 304 Not Modified responses",
			},
			[]string{"method", "endpoint"},
		),
		validatorUpdates: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "basecamp_validator_updates_total",
				Help: "Total number of validators written to the store",
			},
		),
		storeErrors: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "basecamp_validator_store_errors_total",
				Help: "Total number of failed validator store operations",
			},
			[]string{"op"},
		),
		deduplicationHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "basecamp_deduplication_hits_total",
				Help: "Total number of requests served by an identical in-flight request",
			},
			[]string{"method", "endpoint"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "basecamp_errors_total",
				Help: "Total number of errors returned to callers",
			},
			[]string{"type", "method", "endpoint"},
		),
		registerer: registry,
	}

	return mc
}

// RecordRequest records request count and duration. statusCode is 0 when
// no response was received.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}

	statusCodeStr := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, statusCodeStr, endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, statusCodeStr, endpoint).Observe(duration.Seconds())
}

// RecordRequestStart increments in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd decrements in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordConditionalRequest counts a request carrying a stored validator.
func (mc *MetricsCollector) RecordConditionalRequest(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.conditionalRequests.WithLabelValues(method, endpoint).Inc()
}

// RecordNotModified counts a 304 response.
func (mc *MetricsCollector) RecordNotModified(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.notModified.WithLabelValues(method, endpoint).Inc()
}

// RecordValidatorUpdate counts a validator write.
func (mc *MetricsCollector) RecordValidatorUpdate() {
	if mc == nil {
		return
	}

	mc.validatorUpdates.Inc()
}

// RecordStoreError counts a failed store operation ("get" or "put").
func (mc *MetricsCollector) RecordStoreError(op string) {
	if mc == nil {
		return
	}

	mc.storeErrors.WithLabelValues(op).Inc()
}

// RecordError increments error counter by type.
func (mc *MetricsCollector) RecordError(errorType, method, endpoint string) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(errorType, method, endpoint).Inc()
}

// RecordDeduplicationHit increments de-dup hit counter.
func (mc *MetricsCollector) RecordDeduplicationHit(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.deduplicationHits.WithLabelValues(method, endpoint).Inc()
}

// GetRegistry exposes the underlying prometheus registry, or nil when the
// collector was built on a Registerer that is not a *prometheus.Registry.
func (mc *MetricsCollector) GetRegistry() *prometheus.Registry {
	if mc == nil {
		return nil
	}
	reg, _ := mc.registerer.(*prometheus.Registry)
	return reg
}
