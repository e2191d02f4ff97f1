package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-authgate/keygate/internal/config"
	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/logger"
	"github.com/go-authgate/keygate/internal/metrics"
	"github.com/go-authgate/keygate/internal/services"
	"github.com/go-authgate/keygate/internal/store"

	"github.com/appleboy/graceful"
	"go.uber.org/zap"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server, logger *zap.Logger) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("Failed to start server", zap.Error(err))
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addShutdownJob stops the server and then drains the data layer. Graceful
// runs shutdown jobs concurrently, so the ordered steps share one job.
func addShutdownJob(
	m *graceful.Manager,
	cfg *config.Config,
	srv *http.Server,
	svc serviceSet,
	db *store.Store,
	logger *zap.Logger,
) {
	m.AddShutdownJob(func() error {
		return errors.Join(
			shutdownServer(cfg, srv, logger),
			waitForTouches(cfg, svc.bindings, logger),
			shutdownAudit(cfg, svc.audit, logger),
			closeDatabase(cfg, db, logger),
		)
	})
}

func shutdownServer(cfg *config.Config, srv *http.Server, logger *zap.Logger) error {
	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}

func waitForTouches(
	cfg *config.Config,
	bindings *services.DeviceBindingService,
	logger *zap.Logger,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.TouchTimeout)
	defer cancel()

	if err := bindings.Wait(ctx); err != nil {
		logger.Warn("Pending device touches abandoned", zap.Error(err))
		return err
	}
	return nil
}

func shutdownAudit(
	cfg *config.Config,
	auditService *services.AuditService,
	logger *zap.Logger,
) error {
	logger.Info("Shutting down audit service...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.AuditShutdownTimeout)
	defer cancel()

	if err := auditService.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down audit service", zap.Error(err))
		return err
	}
	return nil
}

func closeDatabase(cfg *config.Config, db *store.Store, logger *zap.Logger) error {
	done := make(chan error, 1)
	go func() { done <- db.Close() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Error closing database", zap.Error(err))
			return err
		}
		logger.Info("Database connection closed")
		return nil
	case <-time.After(cfg.DBCloseTimeout):
		logger.Warn("Timed out closing database", zap.Duration("timeout", cfg.DBCloseTimeout))
		return context.DeadlineExceeded
	}
}

// addAuditLogCleanupJob adds periodic audit log cleanup job
func addAuditLogCleanupJob(
	m *graceful.Manager,
	cfg *config.Config,
	auditService *services.AuditService,
	logger *zap.Logger,
) {
	if !cfg.EnableAuditLogging || cfg.AuditLogRetention <= 0 || cfg.AuditLogCleanupInterval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.AuditLogCleanupInterval)
		defer ticker.Stop()

		// Run cleanup immediately on startup
		cleanupAuditLogs(ctx, cfg, auditService, logger)

		for {
			select {
			case <-ticker.C:
				cleanupAuditLogs(ctx, cfg, auditService, logger)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func cleanupAuditLogs(
	ctx context.Context,
	cfg *config.Config,
	auditService *services.AuditService,
	logger *zap.Logger,
) {
	deleted, err := auditService.CleanupOldLogs(ctx, cfg.AuditLogRetention)
	switch {
	case err != nil:
		logger.Error("Failed to cleanup old audit logs", zap.Error(err))
	case deleted > 0:
		logger.Info("Cleaned up old audit logs", zap.Int64("deleted", deleted))
	}
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder core.Recorder,
	metricsCache core.Cache[int64],
	log *zap.Logger,
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled || metricsCache == nil {
		return
	}

	updater := metrics.NewGaugeUpdater(
		metrics.NewCacheWrapper(db, metricsCache),
		recorder,
		cfg.MetricsGaugeUpdateInterval,
		logger.WithComponent(log, "gauges"),
	)
	m.AddRunningJob(func(ctx context.Context) error {
		return updater.Run(ctx, cfg.MetricsGaugeUpdateInterval)
	})
}

// addCacheCleanupJob adds cache cleanup on shutdown
func addCacheCleanupJob(m *graceful.Manager, name string, closer func() error, logger *zap.Logger) {
	if closer == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := closer(); err != nil {
			logger.Error("Error closing cache", zap.String("cache", name), zap.Error(err))
		} else {
			logger.Info("Cache closed", zap.String("cache", name))
		}
		return nil
	})
}
