package bootstrap

import (
	"net/http"

	"github.com/go-authgate/keygate/internal/config"
	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/metrics"
	"github.com/go-authgate/keygate/internal/middleware"
	"github.com/go-authgate/keygate/internal/store"
	"github.com/go-authgate/keygate/internal/util"
	"github.com/go-authgate/keygate/internal/version"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const sessionCookieName = "keygate_session"

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	sessionValidator middleware.SessionValidator,
	recorder core.Recorder,
	logger *zap.Logger,
) *gin.Engine {
	// Setup Gin mode
	setupGinMode(cfg, logger)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Recovery())
	r.Use(util.RequestMetaMiddleware())

	// Setup session middleware
	setupSessionMiddleware(r, cfg)

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg, logger)

	// Setup all routes
	setupAllRoutes(r, cfg, h, sessionValidator, logger)

	// Log server startup info
	logServerStartup(cfg, logger)

	return r
}

// setupSessionMiddleware configures the login session cookie
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.Environment != config.EnvDevelopment,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config, logger *zap.Logger) {
	switch {
	case !cfg.MetricsEnabled:
		logger.Info("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		logger.Info("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		logger.Info("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	cfg *config.Config,
	h handlerSet,
	sessionValidator middleware.SessionValidator,
	logger *zap.Logger,
) {
	// Swagger documentation (development only)
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		logger.Info("Swagger UI enabled", zap.String("url", cfg.BaseURL+"/swagger/index.html"))
	}

	api := r.Group("/api")

	// Account routes (public)
	api.POST("/auth/register", h.auth.Register)
	api.POST("/auth/login", h.auth.Login)
	api.POST("/auth/logout", h.auth.Logout)

	// Device activation (requires login)
	api.POST("/activate", middleware.RequireAuth(), h.session.Activate)
	api.POST("/validate-device", middleware.RequireAuth(), h.session.ValidateDevice)

	// Device session routes (require a valid session token)
	device := api.Group("")
	device.Use(middleware.RequireDeviceSession(sessionValidator, logger))
	{
		device.GET("/validate-session", h.session.ValidateSession)
		device.GET("/credentials", h.credential.ListCredentials)
		device.POST("/credentials", h.credential.CreateCredential)
		device.POST("/credentials/bulk", h.credential.BulkCreateCredentials)
		device.GET("/credentials/:id", h.credential.GetCredential)
		device.PUT("/credentials/:id", h.credential.UpdateCredential)
		device.DELETE("/credentials/:id", h.credential.DeleteCredential)
	}

	// Admin routes (require admin role)
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAuth(), middleware.RequireAdmin(h.userService))
	{
		admin.GET("/keys", h.admin.ListKeys)
		admin.POST("/keys", h.admin.CreateKey)
		admin.PATCH("/keys/:id", h.admin.UpdateKey)
		admin.DELETE("/keys/:id", h.admin.DeleteKey)
		admin.POST("/keys/:id/revoke-device", h.admin.RevokeKeyDevice)

		admin.GET("/assignments", h.admin.ListAssignments)
		admin.POST("/assignments", h.admin.CreateAssignment)
		admin.PATCH("/assignments/:id", h.admin.UpdateAssignment)
		admin.DELETE("/assignments/:id", h.admin.DeleteAssignment)

		admin.POST("/devices/:id/revoke", h.admin.RevokeDevice)

		admin.GET("/audit", h.audit.ListAuditLogs)
		admin.GET("/audit/export", h.audit.ExportAuditLogs)
	}
}

// createHealthCheckHandler creates health check endpoint handler
// healthCheck godoc
//
//	@Summary		Health check
//	@Description	Check server and database health status
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	object{status=string,database=string}	"Service is healthy"
//	@Failure		503	{object}	object{status=string,database=string}	"Service is unhealthy"
//	@Router			/health [get]
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(c.Request.Context()); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config, logger *zap.Logger) {
	mode := ginModeMap[cfg.IsProduction()]
	gin.SetMode(mode)
	logger.Info("Gin mode: " + ginModeLogMessage[cfg.IsProduction()])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config, logger *zap.Logger) {
	logger.Info("KeyGate server starting",
		zap.String("version", version.String()),
		zap.String("addr", cfg.ServerAddr),
		zap.String("base_url", cfg.BaseURL),
		zap.String("auth_mode", cfg.AuthMode),
		zap.String("environment", cfg.Environment))
	logger.Info("Default user: admin (check logs for password if first run)")
}
