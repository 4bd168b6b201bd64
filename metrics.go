package restclient

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request pipeline and
// the offline cache. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	cacheFallbackHits   *prometheus.CounterVec
	cacheFallbackMisses *prometheus.CounterVec
	cacheWrites         *prometheus.CounterVec
	cacheSize           prometheus.Gauge

	rateLimiterTokens prometheus.Gauge

	errorsTotal *prometheus.CounterVec

	registerer prometheus.Registerer
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using supplied registerer.
func NewMetricsCollectorWithRegistry(registerer prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registerer)
	return &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restclient_requests_total",
				Help: "Total number of API requests completed",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "restclient_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "restclient_requests_in_flight",
				Help: "Number of API requests currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		cacheFallbackHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restclient_cache_fallback_hits_total",
				Help: "Total number of offline fallbacks served from cache",
			},
			[]string{"method", "endpoint"},
		),
		cacheFallbackMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restclient_cache_fallback_misses_total",
				Help: "Total number of offline fallbacks that found no cached entry",
			},
			[]string{"method", "endpoint"},
		),
		cacheWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restclient_cache_writes_total",
				Help: "Total number of responses stored for offline fallback",
			},
			[]string{"method", "endpoint"},
		),
		cacheSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "restclient_cache_size",
				Help: "Current number of entries in the offline cache",
			},
		),
		rateLimiterTokens: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "restclient_rate_limiter_tokens",
				Help: "Current number of available rate limiter tokens",
			},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "restclient_errors_total",
				Help: "Total number of failed requests by error type",
			},
			[]string{"type", "method", "endpoint"},
		),
		registerer: registerer,
	}
}

// RecordRequest records request count and duration. statusCode is 0 when no
// response was received.
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

func (mc *MetricsCollector) RecordCacheFallbackHit(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.cacheFallbackHits.WithLabelValues(method, endpoint).Inc()
}

func (mc *MetricsCollector) RecordCacheFallbackMiss(method, endpoint string) {
	if mc == nil {
		return
	}

	mc.cacheFallbackMisses.WithLabelValues(method, endpoint).Inc()
}

// RecordCacheWrite counts a stored response and updates the cache size.
func (mc *MetricsCollector) RecordCacheWrite(method, endpoint string, size int) {
	if mc == nil {
		return
	}

	mc.cacheWrites.WithLabelValues(method, endpoint).Inc()
	mc.cacheSize.Set(float64(size))
}

func (mc *MetricsCollector) RecordRateLimiterTokens(tokens float64) {
	if mc == nil {
		return
	}

	mc.rateLimiterTokens.Set(tokens)
}

// RecordError counts a failed request by ClientError type.
func (mc *MetricsCollector) RecordError(errorType, method, endpoint string) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(errorType, method, endpoint).Inc()
}

// Registerer exposes the registerer the metrics were created on.
func (mc *MetricsCollector) Registerer() prometheus.Registerer {
	return mc.registerer
}
