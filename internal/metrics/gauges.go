package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/go-authgate/keygate/internal/core"

	"go.uber.org/zap"
)

// errorLogger logs each failing operation at most once per window.
type errorLogger struct {
	mu              sync.Mutex
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
	now             func() time.Time
}

func newErrorLogger(window time.Duration) *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: window,
		now:             time.Now,
	}
}

// shouldLog reports whether an error for operation may be logged now.
func (e *errorLogger) shouldLog(operation string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if last, ok := e.lastErrorTimes[operation]; ok && now.Sub(last) < e.rateLimitWindow {
		return false
	}
	e.lastErrorTimes[operation] = now
	return true
}

// GaugeUpdater refreshes the active-device, assignment and key gauges.
type GaugeUpdater struct {
	counts   *CacheWrapper
	recorder core.Recorder
	ttl      time.Duration
	logger   *zap.Logger
	errors   *errorLogger
}

// NewGaugeUpdater caches each count for ttl, which should match the update
// interval.
func NewGaugeUpdater(
	counts *CacheWrapper,
	recorder core.Recorder,
	ttl time.Duration,
	logger *zap.Logger,
) *GaugeUpdater {
	return &GaugeUpdater{
		counts:   counts,
		recorder: recorder,
		ttl:      ttl,
		logger:   logger,
		errors:   newErrorLogger(5 * time.Minute),
	}
}

// Update runs one refresh. Failed counts leave their gauge untouched.
func (g *GaugeUpdater) Update(ctx context.Context) {
	gauges := []struct {
		operation string
		get       func(context.Context, time.Duration) (int64, error)
		set       func(int)
	}{
		{"count_devices", g.counts.GetActiveDevicesCount, g.recorder.SetActiveDevicesCount},
		{"count_assignments", g.counts.GetActiveAssignmentsCount, g.recorder.SetActiveAssignmentsCount},
		{"count_keys", g.counts.GetActiveKeysCount, g.recorder.SetActiveKeysCount},
	}

	for _, gauge := range gauges {
		n, err := gauge.get(ctx, g.ttl)
		if err != nil {
			g.recorder.RecordDatabaseQueryError(gauge.operation)
			if g.errors.shouldLog(gauge.operation) {
				g.logger.Warn("gauge query failed; further errors suppressed",
					zap.String("operation", gauge.operation),
					zap.Duration("window", g.errors.rateLimitWindow),
					zap.Error(err))
			}
			continue
		}
		gauge.set(int(n))
	}
}

// Run updates immediately and then on every tick until ctx is done.
func (g *GaugeUpdater) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.Update(ctx)
	for {
		select {
		case <-ticker.C:
			g.Update(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}
