package bootstrap

import (
	"context"
	"net/http"

	"github.com/go-authgate/keygate/internal/config"
	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/logger"
	"github.com/go-authgate/keygate/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config
	Logger *zap.Logger

	// Core infrastructure
	DB                 *store.Store
	MetricsRecorder    core.Recorder
	MetricsCache       core.Cache[int64]
	MetricsCacheCloser func() error
	UserCacheCloser    func() error

	// Services
	Services serviceSet

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer func() { _ = log.Sync() }()
	undo := zap.ReplaceGlobals(log)
	defer undo()

	app := &Application{
		Config: cfg,
		Logger: log,
	}

	// Phase 1: Validate configuration
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(context.Background()); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(context.Background()); err != nil {
		_ = app.DB.Close()
		return err
	}

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics and the metrics cache
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config, app.Logger)
	app.MetricsCache, app.MetricsCacheCloser, err = initializeMetricsCache(
		ctx,
		app.Config,
		app.Logger,
	)
	if err != nil {
		_ = app.DB.Close()
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer(ctx context.Context) error {
	userCache, closer, err := initializeUserCache(ctx, app.Config, app.Logger)
	if err != nil {
		return err
	}
	app.UserCacheCloser = closer

	app.Services, err = initializeServices(
		app.Config,
		app.DB,
		app.MetricsRecorder,
		userCache,
		app.Logger,
	)
	if err != nil {
		_ = closer()
		return err
	}
	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(app.Config, app.Services, app.Logger)
	app.Router = setupRouter(
		app.Config,
		app.DB,
		app.HandlerSet,
		app.Services.session,
		app.MetricsRecorder,
		app.Logger,
	)
	app.Server = createHTTPServer(app.Config, app.Router)
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server, app.Logger)
	addShutdownJob(m, app.Config, app.Server, app.Services, app.DB, app.Logger)
	addAuditLogCleanupJob(m, app.Config, app.Services.audit, app.Logger)
	addMetricsGaugeUpdateJob(
		m,
		app.Config,
		app.DB,
		app.MetricsRecorder,
		app.MetricsCache,
		app.Logger,
	)
	addCacheCleanupJob(m, "metrics", app.MetricsCacheCloser, app.Logger)
	addCacheCleanupJob(m, "user", app.UserCacheCloser, app.Logger)

	// Wait for graceful shutdown
	<-m.Done()
}
