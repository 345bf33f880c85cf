package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

// Metrics holds all Prometheus collectors for staff-ops.
type Metrics struct {
	registry *prometheus.Registry

	OperationsTotal         *prometheus.CounterVec
	OperationDuration       *prometheus.HistogramVec
	TransitionFailuresTotal *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ServerStartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staff_ops_operations_total",
			Help: "Total number of operations by outcome.",
		}, []string{"operation", "outcome"}),

		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staff_ops_operation_duration_seconds",
			Help:    "Operation duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		TransitionFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staff_ops_transition_failures_total",
			Help: "Total number of state transitions rejected because the entity was not in the required state.",
		}, []string{"operation"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "staff_ops_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "staff_ops_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "staff_ops_server_start_time_seconds",
			Help: "Unix timestamp when the process started.",
		}),
	}

	reg.MustRegister(
		m.OperationsTotal,
		m.OperationDuration,
		m.TransitionFailuresTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ServerStartTime,
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterDBPoolCollector registers a custom DB pool stats collector.
func (m *Metrics) RegisterDBPoolCollector(statFunc DBPoolStatFunc) {
	m.registry.MustRegister(NewDBPoolCollector(statFunc))
}

// ObserveOperation records the outcome and duration of one named operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	outcome := Outcome(err)
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if outcome == "invalid_transition" {
		m.TransitionFailuresTotal.WithLabelValues(operation).Inc()
	}
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, pathPattern string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// Outcome classifies an operation error into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, model.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
