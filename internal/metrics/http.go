package metrics

import (
	"strconv"
	"time"

	"github.com/go-authgate/keygate/internal/core"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultAllow   = "allow"
	resultDeny    = "deny"
)

// HTTPMetricsMiddleware records request counts, latency and in-flight
// requests. It is a pass-through for anything but the Prometheus recorder.
func HTTPMetricsMiddleware(m core.Recorder) gin.HandlerFunc {
	metrics, ok := m.(*Metrics)
	if !ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		method := c.Request.Method
		path := normalizePath(c.FullPath())
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).
			Observe(time.Since(start).Seconds())
	}
}

// normalizePath returns the route pattern, or "unknown" for unmatched routes
// so that arbitrary URLs cannot blow up label cardinality.
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

func (m *Metrics) RecordAccessDecision(operation, reason string, duration time.Duration) {
	result := resultAllow
	if reason != "" {
		result = resultDeny
	}
	m.AccessDecisionsTotal.WithLabelValues(operation, result, reason).Inc()
	m.AccessDecisionDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) RecordDeviceBind(outcome string, duration time.Duration) {
	m.DeviceBindsTotal.WithLabelValues(outcome).Inc()
	m.DeviceBindDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordDeviceRevoked(actor string) {
	m.DeviceRevocationsTotal.WithLabelValues(actor).Inc()
}

func (m *Metrics) RecordBindRetry() {
	m.DeviceBindRetriesTotal.Inc()
}

func (m *Metrics) RecordTouchFailure() {
	m.DeviceTouchFailures.Inc()
}

func (m *Metrics) RecordTokenIssued(duration time.Duration) {
	m.SessionTokensIssuedTotal.Inc()
	m.SessionTokenDuration.Observe(duration.Seconds())
}

// RecordTokenValidation records a verify result: valid, invalid, expired or malformed.
func (m *Metrics) RecordTokenValidation(result string, duration time.Duration) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
	m.TokenValidationDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordAuthAttempt(method string, success bool, duration time.Duration) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.AuthAttemptsTotal.WithLabelValues(method, result).Inc()
	m.AuthLoginDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *Metrics) RecordLogin(outcome string) {
	m.AuthLoginTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordExternalAPICall(provider string, duration time.Duration) {
	m.AuthExternalAPIDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) SetActiveDevicesCount(count int) {
	m.DevicesActive.Set(float64(count))
}

func (m *Metrics) SetActiveAssignmentsCount(count int) {
	m.AssignmentsActive.Set(float64(count))
}

func (m *Metrics) SetActiveKeysCount(count int) {
	m.KeysActive.Set(float64(count))
}

func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
