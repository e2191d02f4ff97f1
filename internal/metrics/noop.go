package metrics

import (
	"time"

	"github.com/go-authgate/keygate/internal/core"
)

// NoopMetrics discards everything. It is used when METRICS_ENABLED is false.
type NoopMetrics struct{}

var _ core.Recorder = (*NoopMetrics)(nil)

func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordAccessDecision(operation, reason string, duration time.Duration) {}

func (n *NoopMetrics) RecordDeviceBind(outcome string, duration time.Duration) {}
func (n *NoopMetrics) RecordDeviceRevoked(actor string)                        {}
func (n *NoopMetrics) RecordBindRetry()                                        {}
func (n *NoopMetrics) RecordTouchFailure()                                     {}

func (n *NoopMetrics) RecordTokenIssued(duration time.Duration)                     {}
func (n *NoopMetrics) RecordTokenValidation(result string, duration time.Duration) {}

func (n *NoopMetrics) RecordAuthAttempt(method string, success bool, duration time.Duration) {}
func (n *NoopMetrics) RecordLogin(outcome string)                                           {}
func (n *NoopMetrics) RecordExternalAPICall(provider string, duration time.Duration)         {}

func (n *NoopMetrics) SetActiveDevicesCount(count int)     {}
func (n *NoopMetrics) SetActiveAssignmentsCount(count int) {}
func (n *NoopMetrics) SetActiveKeysCount(count int)        {}

func (n *NoopMetrics) RecordDatabaseQueryError(operation string) {}
