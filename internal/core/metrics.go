package core

import (
	"context"
	"time"
)

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Access decisions; reason is "" on ALLOW.
	RecordAccessDecision(operation, reason string, duration time.Duration)

	// Device binding
	RecordDeviceBind(outcome string, duration time.Duration)
	RecordDeviceRevoked(actor string)
	RecordBindRetry()
	RecordTouchFailure()

	// Session tokens
	RecordTokenIssued(duration time.Duration)
	RecordTokenValidation(result string, duration time.Duration)

	// Authentication
	RecordAuthAttempt(method string, success bool, duration time.Duration)
	RecordLogin(outcome string)
	RecordExternalAPICall(provider string, duration time.Duration)

	// Gauge Setters (for periodic updates)
	SetActiveDevicesCount(count int)
	SetActiveAssignmentsCount(count int)
	SetActiveKeysCount(count int)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// MetricsStore defines the DB operations needed by the gauge updater.
type MetricsStore interface {
	CountActiveDevices(ctx context.Context) (int64, error)
	CountActiveAssignments(ctx context.Context) (int64, error)
	CountActiveKeys(ctx context.Context) (int64, error)
}
