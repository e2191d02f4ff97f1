package bootstrap

import (
	"github.com/go-authgate/keygate/internal/access"
	"github.com/go-authgate/keygate/internal/auth"
	"github.com/go-authgate/keygate/internal/client"
	"github.com/go-authgate/keygate/internal/config"
	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/logger"
	"github.com/go-authgate/keygate/internal/models"
	"github.com/go-authgate/keygate/internal/services"
	"github.com/go-authgate/keygate/internal/store"
	"github.com/go-authgate/keygate/internal/token"

	"go.uber.org/zap"
)

// serviceSet holds the business services shared by handlers and jobs
type serviceSet struct {
	audit       *services.AuditService
	users       *services.UserService
	bindings    *services.DeviceBindingService
	session     *services.SessionService
	keys        *services.KeyService
	assignments *services.AssignmentService
	credentials *services.CredentialService
}

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	recorder core.Recorder,
	userCache core.Cache[models.User],
	log *zap.Logger,
) (serviceSet, error) {
	auditService := services.NewAuditService(
		db,
		logger.WithComponent(log, "audit"),
		cfg.EnableAuditLogging,
		cfg.AuditLogBufferSize,
	)

	// Authentication providers
	localProvider := auth.NewLocalAuthProvider(db)
	var httpAPIProvider core.AuthProvider
	if cfg.AuthMode == config.AuthModeHTTPAPI {
		apiClient, err := client.NewHTTPAPIClient(cfg)
		if err != nil {
			return serviceSet{}, err
		}
		httpAPIProvider = auth.NewHTTPAPIAuthProvider(cfg.HTTPAPIURL, apiClient)
		log.Info("HTTP API authentication enabled", zap.String("url", cfg.HTTPAPIURL))
	}

	userService := services.NewUserService(
		db,
		localProvider,
		httpAPIProvider,
		cfg.AuthMode,
		recorder,
		userCache,
		cfg.UserCacheTTL,
		logger.WithComponent(log, "users"),
	)

	validator := access.NewValidator(db)
	codec := token.NewCodec(
		cfg.JWTSecret,
		token.WithTTL(cfg.TokenExpiration),
		token.WithIssuer(cfg.JWTIssuer),
	)
	bindings := services.NewDeviceBindingService(
		db,
		validator,
		auditService,
		recorder,
		logger.WithComponent(log, "bindings"),
		cfg.TouchTimeout,
	)
	sessionService := services.NewSessionService(
		db,
		userService,
		bindings,
		validator,
		codec,
		auditService,
		recorder,
		logger.WithComponent(log, "session"),
	)

	return serviceSet{
		audit:       auditService,
		users:       userService,
		bindings:    bindings,
		session:     sessionService,
		keys:        services.NewKeyService(db, auditService, cfg.DefaultDeviceLimit),
		assignments: services.NewAssignmentService(db, auditService),
		credentials: services.NewCredentialService(db, auditService),
	}, nil
}
