package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Cache metrics
	CacheRefreshTotal       *prometheus.CounterVec
	CacheRefreshDuration    *prometheus.HistogramVec
	CacheLastRefreshSuccess *prometheus.GaugeVec

	// Aggregation metrics
	AggregationDuration *prometheus.HistogramVec
	ServicesReturned    *prometheus.HistogramVec

	// Workflow metrics
	ActionsTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive    prometheus.Gauge
	DBConnectionsIdle      prometheus.Gauge
	DBConnectionsWaitCount prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "selfservice_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "selfservice_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "selfservice_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "route"},
		),

		CacheRefreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "selfservice_cache_refresh_total",
				Help: "Total number of cache refresh attempts",
			},
			[]string{"cache", "status"},
		),
		CacheRefreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "selfservice_cache_refresh_duration_seconds",
				Help:    "Cache refresh duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"cache"},
		),
		CacheLastRefreshSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "selfservice_cache_last_refresh_success_timestamp_seconds",
				Help: "Unix time of the last successful refresh per cache",
			},
			[]string{"cache"},
		),

		AggregationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "selfservice_aggregation_duration_seconds",
				Help:    "Duration of catalog aggregation calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"operation"},
		),
		ServicesReturned: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "selfservice_aggregation_services_returned",
				Help:    "Number of services returned per aggregation call",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"operation"},
		),

		ActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "selfservice_actions_total",
				Help: "Total number of connect and disconnect requests",
			},
			[]string{"type", "outcome"},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "selfservice_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "selfservice_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaitCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "selfservice_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.CacheRefreshTotal,
		m.CacheRefreshDuration,
		m.CacheLastRefreshSuccess,
		m.AggregationDuration,
		m.ServicesReturned,
		m.ActionsTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.DBConnectionsWaitCount,
	)

	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveCacheRefresh records one refresh attempt of the named cache
func (m *Metrics) ObserveCacheRefresh(cache string, d time.Duration, err error) {
	m.CacheRefreshTotal.WithLabelValues(cache, outcome(err)).Inc()
	m.CacheRefreshDuration.WithLabelValues(cache).Observe(d.Seconds())
	if err == nil {
		m.CacheLastRefreshSuccess.WithLabelValues(cache).SetToCurrentTime()
	}
}

// ObserveAggregation records the duration and result size of an aggregation call
func (m *Metrics) ObserveAggregation(operation string, d time.Duration, services int) {
	m.AggregationDuration.WithLabelValues(operation).Observe(d.Seconds())
	m.ServicesReturned.WithLabelValues(operation).Observe(float64(services))
}

// ObserveAction records a connect or disconnect request and whether it completed
func (m *Metrics) ObserveAction(actionType string, err error) {
	m.ActionsTotal.WithLabelValues(actionType, outcome(err)).Inc()
}

// RecordDBStats copies connection pool statistics into the database gauges
func (m *Metrics) RecordDBStats(stats sql.DBStats) {
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaitCount.Set(float64(stats.WaitCount))
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel uses the matched mux template so path parameters do not explode label cardinality
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			status := strconv.Itoa(rw.statusCode)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
