package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/conductionnl/commonground-gateway/internal/core"
)

// Ensure Metrics implements the recorder interface at compile time
var _ core.MetricsRecorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Login Metrics
	LoginTotal       *prometheus.CounterVec
	NewUsersTotal    prometheus.Counter
	LoginLogsDropped prometheus.Counter

	// External Provider Metrics
	CodeExchangeTotal    *prometheus.CounterVec
	CodeExchangeDuration prometheus.Histogram

	// CommonGround Resource Metrics
	ResourceCallsTotal   *prometheus.CounterVec
	ResourceCallDuration *prometheus.HistogramVec

	// Company Registry Metrics
	CompanyLookupsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) core.MetricsRecorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		LoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"}, // success, failure
		),
		NewUsersTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_new_users_total",
				Help: "Total number of users created on first login",
			},
		),
		LoginLogsDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_login_logs_dropped_total",
				Help: "Total number of login log entries dropped due to a full buffer",
			},
		),

		CodeExchangeTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idin_code_exchange_total",
				Help: "Total number of authorization code exchanges against the external provider",
			},
			[]string{"result"}, // success, error
		),
		CodeExchangeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "idin_code_exchange_duration_seconds",
				Help:    "Time taken for the token exchange and userinfo fetch",
				Buckets: prometheus.DefBuckets,
			},
		),

		ResourceCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commonground_resource_calls_total",
				Help: "Total number of outbound CommonGround microservice calls",
			},
			[]string{"component", "operation", "result"},
		),
		ResourceCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "commonground_resource_call_duration_seconds",
				Help: "Latency of outbound CommonGround microservice calls",
				Buckets: []float64{
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
				},
			},
			[]string{"component", "operation"},
		),

		CompanyLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kvk_company_lookups_total",
				Help: "Total number of company registry searches",
			},
			[]string{"result"}, // success, error
		),
	}
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordLogin records the outcome of a full login attempt.
func (m *Metrics) RecordLogin(success bool) {
	m.LoginTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordCodeExchange records an external authorization-code exchange.
func (m *Metrics) RecordCodeExchange(success bool, duration time.Duration) {
	m.CodeExchangeTotal.WithLabelValues(resultLabel(success)).Inc()
	m.CodeExchangeDuration.Observe(duration.Seconds())
}

// RecordResourceCall records one outbound CommonGround microservice call.
func (m *Metrics) RecordResourceCall(component, operation string, success bool, duration time.Duration) {
	m.ResourceCallsTotal.WithLabelValues(component, operation, resultLabel(success)).Inc()
	m.ResourceCallDuration.WithLabelValues(component, operation).Observe(duration.Seconds())
}

// RecordCompanyLookup records a company-registry search.
func (m *Metrics) RecordCompanyLookup(success bool) {
	m.CompanyLookupsTotal.WithLabelValues(resultLabel(success)).Inc()
}

// RecordNewUser records that a login attempt created a new user record.
func (m *Metrics) RecordNewUser() {
	m.NewUsersTotal.Inc()
}

// RecordLoginLogDropped records a dropped login-log entry.
func (m *Metrics) RecordLoginLogDropped() {
	m.LoginLogsDropped.Inc()
}
