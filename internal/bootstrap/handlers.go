package bootstrap

import (
	"github.com/go-authgate/keygate/internal/config"
	"github.com/go-authgate/keygate/internal/handlers"
	"github.com/go-authgate/keygate/internal/logger"
	"github.com/go-authgate/keygate/internal/services"

	"go.uber.org/zap"
)

// handlerSet holds all HTTP handlers and required services
type handlerSet struct {
	auth        *handlers.AuthHandler
	session     *handlers.SessionHandler
	credential  *handlers.CredentialHandler
	admin       *handlers.AdminHandler
	audit       *handlers.AuditHandler
	userService *services.UserService
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(cfg *config.Config, s serviceSet, log *zap.Logger) handlerSet {
	log = logger.WithComponent(log, "http")
	cookie := handlers.TokenCookieConfig{
		MaxAge: cfg.TokenExpiration,
		Secure: cfg.Environment != config.EnvDevelopment,
	}

	return handlerSet{
		auth:       handlers.NewAuthHandler(s.users, s.session, s.audit, cookie, log),
		session:    handlers.NewSessionHandler(s.session, cookie, log),
		credential: handlers.NewCredentialHandler(s.credentials, log),
		admin: handlers.NewAdminHandler(
			s.keys,
			s.assignments,
			s.bindings,
			log,
		),
		audit:       handlers.NewAuditHandler(s.audit, log),
		userService: s.users,
	}
}
