// Package metrics exposes Prometheus metrics for the auth gateway client
// and the API proxy.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixgeelhaar/notebookctl/internal/errors"
)

// Metrics holds every collector. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	GatewayRequests *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec

	ProxyRequests *prometheus.CounterVec
	ProxyDuration *prometheus.HistogramVec

	HealthChecks *prometheus.CounterVec

	// Errors by structured error code.
	Errors *prometheus.CounterVec
}

// NewMetrics registers the collectors with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		GatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebookctl_gateway_requests_total",
				Help: "Auth gateway requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		GatewayDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notebookctl_gateway_request_duration_seconds",
				Help:    "Auth gateway request latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),
		ProxyRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebookctl_proxy_requests_total",
				Help: "Proxied API requests by upstream and status code",
			},
			[]string{"upstream", "code"},
		),
		ProxyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notebookctl_proxy_request_duration_seconds",
				Help:    "Proxied API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"upstream"},
		),
		HealthChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebookctl_health_checks_total",
				Help: "Dependency health checks by check and status",
			},
			[]string{"check", "status"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notebookctl_errors_total",
				Help: "Errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// Gateway outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// ObserveGateway records one gateway call. err is a transport failure;
// status is ignored when err is set.
func (m *Metrics) ObserveGateway(endpoint string, status int, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
		m.RecordError(err)
	case status < 200 || status >= 300:
		outcome = OutcomeRejected
	}
	m.GatewayRequests.WithLabelValues(endpoint, outcome).Inc()
	m.GatewayDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveProxy records one proxied request.
func (m *Metrics) ObserveProxy(upstream string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.ProxyRequests.WithLabelValues(upstream, strconv.Itoa(status)).Inc()
	m.ProxyDuration.WithLabelValues(upstream).Observe(d.Seconds())
}

// ObserveHealth records one health check result.
func (m *Metrics) ObserveHealth(check, status string) {
	if m == nil {
		return
	}
	m.HealthChecks.WithLabelValues(check, status).Inc()
}

// RecordError counts err by its code; uncoded errors count as "unknown".
func (m *Metrics) RecordError(err error) {
	if m == nil || err == nil {
		return
	}
	code := string(errors.Code(err))
	if code == "" {
		code = "unknown"
	}
	m.Errors.WithLabelValues(code).Inc()
}
