package metrics

import (
	"sync"

	"github.com/go-authgate/keygate/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements core.Recorder at compile time
var _ core.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Access decisions
	AccessDecisionsTotal   *prometheus.CounterVec
	AccessDecisionDuration *prometheus.HistogramVec

	// Device binding
	DeviceBindsTotal       *prometheus.CounterVec
	DeviceBindDuration     prometheus.Histogram
	DeviceRevocationsTotal *prometheus.CounterVec
	DeviceBindRetriesTotal prometheus.Counter
	DeviceTouchFailures    prometheus.Counter
	DevicesActive          prometheus.Gauge

	// Session tokens
	SessionTokensIssuedTotal prometheus.Counter
	SessionTokenDuration     prometheus.Histogram
	TokenValidationTotal     *prometheus.CounterVec
	TokenValidationDuration  prometheus.Histogram

	// Keys and assignments
	AssignmentsActive prometheus.Gauge
	KeysActive        prometheus.Gauge

	// Authentication
	AuthAttemptsTotal       *prometheus.CounterVec
	AuthLoginTotal          *prometheus.CounterVec
	AuthLoginDuration       *prometheus.HistogramVec
	AuthExternalAPIDuration *prometheus.HistogramVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database Query Metrics
	DatabaseQueryErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init returns the Prometheus recorder when enabled and a no-op recorder
// otherwise. Collectors are registered once per process.
func Init(enabled bool) core.Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

var latencyBuckets = []float64{0.001, 0.005, 0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0, 10.0}

func initMetrics() *Metrics {
	return &Metrics{
		AccessDecisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keygate_access_decisions_total",
				Help: "Total number of access decisions",
			},
			[]string{"operation", "result", "reason"}, // result: allow, deny
		),
		AccessDecisionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keygate_access_decision_duration_seconds",
				Help:    "Time taken to reach an access decision",
				Buckets: latencyBuckets,
			},
			[]string{"operation"}, // login, activate, validate_session, validate_key
		),

		DeviceBindsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keygate_device_binds_total",
				Help: "Total number of device bind attempts",
			},
			[]string{"outcome"}, // bound, reactivated, refreshed, limit_reached, error
		),
		DeviceBindDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "keygate_device_bind_duration_seconds",
				Help:    "Time taken to bind a device",
				Buckets: latencyBuckets,
			},
		),
		DeviceRevocationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keygate_device_revocations_total",
				Help: "Total number of device revocations",
			},
			[]string{"actor"}, // user, admin
		),
		DeviceBindRetriesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "keygate_device_bind_retries_total",
				Help: "Binds retried after a concurrent modification of the key",
			},
		),
		DeviceTouchFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "keygate_device_touch_failures_total",
				Help: "Failed best-effort last-active updates",
			},
		),
		DevicesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "keygate_devices_active",
				Help: "Current number of active device bindings",
			},
		),

		SessionTokensIssuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "keygate_session_tokens_issued_total",
				Help: "Total number of session tokens issued",
			},
		),
		SessionTokenDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "keygate_session_token_generation_duration_seconds",
				Help:    "Time taken to sign session tokens",
				Buckets: latencyBuckets,
			},
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keygate_session_token_validation_total",
				Help: "Total number of session token validations",
			},
			[]string{"result"}, // valid, invalid, expired, malformed
		),
		TokenValidationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "keygate_session_token_validation_duration_seconds",
				Help:    "Time taken to verify session tokens",
				Buckets: latencyBuckets,
			},
		),

		AssignmentsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "keygate_assignments_active",
				Help: "Current number of ACTIVE key assignments",
			},
		),
		KeysActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "keygate_keys_active",
				Help: "Current number of active activation keys",
			},
		),

		AuthAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total number of authentication attempts",
			},
			[]string{"method", "result"}, // method: local, http_api; result: success, failure
		),
		AuthLoginTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_login_total",
				Help: "Total number of vault logins by outcome",
			},
			[]string{"outcome"}, // success, invalid_credentials, denied, error
		),
		AuthLoginDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_login_duration_seconds",
				Help:    "Time taken to check a password",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		AuthExternalAPIDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auth_external_api_duration_seconds",
				Help:    "Time taken for external API authentication calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: latencyBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),

		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"}, // count_devices, count_assignments, count_keys
		),
	}
}
