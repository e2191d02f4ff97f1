package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Authentication mode constants
const (
	AuthModeLocal   = "local"
	AuthModeHTTPAPI = "http_api"
)

// User cache type constants
const (
	UserCacheTypeMemory = "memory"
	UserCacheTypeRedis  = "redis"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// MinJWTSecretLength is the minimum signing secret length accepted outside development.
const MinJWTSecretLength = 32

type Config struct {
	// Server settings
	ServerAddr  string
	BaseURL     string
	Environment string
	LogLevel    string

	// Session token settings
	JWTSecret       string
	JWTIssuer       string
	TokenExpiration time.Duration

	// Login session settings (gin-contrib/sessions cookie store)
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver    string // "sqlite" or "postgres"
	DatabaseDSN       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	// Seeding and key defaults
	DefaultAdminPassword string
	DefaultDeviceLimit   int

	// Authentication
	AuthMode string // "local" or "http_api"

	// HTTP API Authentication
	HTTPAPIURL                string
	HTTPAPITimeout            time.Duration
	HTTPAPIInsecureSkipVerify bool
	HTTPAPIAuthMode           string // "none", "simple", or "hmac"
	HTTPAPIAuthSecret         string
	HTTPAPIAuthHeader         string
	HTTPAPIMaxRetries         int
	HTTPAPIRetryDelay         time.Duration
	HTTPAPIMaxRetryDelay      time.Duration

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration

	// User cache
	UserCacheType string // "memory" or "redis"
	UserCacheTTL  time.Duration

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Audit logging
	EnableAuditLogging      bool
	AuditLogRetention       time.Duration
	AuditLogBufferSize      int
	AuditLogCleanupInterval time.Duration

	// Timeouts
	DBInitTimeout         time.Duration
	DBCloseTimeout        time.Duration
	CacheInitTimeout      time.Duration
	CacheCloseTimeout     time.Duration
	ServerShutdownTimeout time.Duration
	AuditShutdownTimeout  time.Duration
	TouchTimeout          time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "keygate.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		Environment: getEnv("ENVIRONMENT", EnvDevelopment),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret:       getEnv("JWT_SECRET", "your-256-bit-secret-change-in-production"),
		JWTIssuer:       getEnv("JWT_ISSUER", ""),
		TokenExpiration: getEnvDuration("TOKEN_EXPIRATION", 7*24*time.Hour),

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 3600),

		DatabaseDriver:    driver,
		DatabaseDSN:       dsn,
		DBMaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		DBConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),

		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),
		DefaultDeviceLimit:   getEnvInt("DEFAULT_DEVICE_LIMIT", 10),

		AuthMode: getEnv("AUTH_MODE", AuthModeLocal),

		HTTPAPIURL:                getEnv("HTTP_API_URL", ""),
		HTTPAPITimeout:            getEnvDuration("HTTP_API_TIMEOUT", 10*time.Second),
		HTTPAPIInsecureSkipVerify: getEnvBool("HTTP_API_INSECURE_SKIP_VERIFY", false),
		HTTPAPIAuthMode:           getEnv("HTTP_API_AUTH_MODE", "none"),
		HTTPAPIAuthSecret:         getEnv("HTTP_API_AUTH_SECRET", ""),
		HTTPAPIAuthHeader:         getEnv("HTTP_API_AUTH_HEADER", "X-API-Secret"),
		HTTPAPIMaxRetries:         getEnvInt("HTTP_API_MAX_RETRIES", 3),
		HTTPAPIRetryDelay:         getEnvDuration("HTTP_API_RETRY_DELAY", 1*time.Second),
		HTTPAPIMaxRetryDelay:      getEnvDuration("HTTP_API_MAX_RETRY_DELAY", 10*time.Second),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),

		UserCacheType: strings.ToLower(getEnv("USER_CACHE_TYPE", UserCacheTypeMemory)),
		UserCacheTTL:  getEnvDuration("USER_CACHE_TTL", 5*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		EnableAuditLogging:      getEnvBool("ENABLE_AUDIT_LOGGING", true),
		AuditLogRetention:       getEnvDuration("AUDIT_LOG_RETENTION", 90*24*time.Hour),
		AuditLogBufferSize:      getEnvInt("AUDIT_LOG_BUFFER_SIZE", 1000),
		AuditLogCleanupInterval: getEnvDuration("AUDIT_LOG_CLEANUP_INTERVAL", 24*time.Hour),

		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBCloseTimeout:        getEnvDuration("DB_CLOSE_TIMEOUT", 5*time.Second),
		CacheInitTimeout:      getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		CacheCloseTimeout:     getEnvDuration("CACHE_CLOSE_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		AuditShutdownTimeout:  getEnvDuration("AUDIT_SHUTDOWN_TIMEOUT", 10*time.Second),
		TouchTimeout:          getEnvDuration("TOUCH_TIMEOUT", 3*time.Second),
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf(
			"invalid DATABASE_DRIVER value: %q (must be: sqlite, postgres)",
			c.DatabaseDriver,
		)
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required")
	}

	switch c.AuthMode {
	case AuthModeLocal:
	case AuthModeHTTPAPI:
		if c.HTTPAPIURL == "" {
			return errors.New("HTTP_API_URL is required when AUTH_MODE=http_api")
		}
	default:
		return fmt.Errorf("invalid AUTH_MODE value: %q (must be: local, http_api)", c.AuthMode)
	}

	switch c.UserCacheType {
	case UserCacheTypeMemory, UserCacheTypeRedis:
	default:
		return fmt.Errorf(
			"invalid USER_CACHE_TYPE value: %q (must be: memory, redis)",
			c.UserCacheType,
		)
	}
	if c.UserCacheType == UserCacheTypeRedis && c.RedisAddr == "" {
		return fmt.Errorf("USER_CACHE_TYPE=%q requires REDIS_ADDR", c.UserCacheType)
	}
	if c.UserCacheTTL <= 0 {
		return fmt.Errorf("USER_CACHE_TTL must be a positive duration (got %s)", c.UserCacheTTL)
	}

	if c.TokenExpiration <= 0 {
		return fmt.Errorf(
			"TOKEN_EXPIRATION must be a positive duration (got %s)",
			c.TokenExpiration,
		)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf(
			"JWT_SECRET must be at least %d bytes in production",
			MinJWTSecretLength,
		)
	}

	if c.DefaultDeviceLimit < 1 || c.DefaultDeviceLimit > 100 {
		return fmt.Errorf(
			"DEFAULT_DEVICE_LIMIT must be between 1 and 100 (got %d)",
			c.DefaultDeviceLimit,
		)
	}

	if c.MetricsGaugeUpdateEnabled && c.MetricsGaugeUpdateInterval <= 0 {
		return errors.New("METRICS_GAUGE_UPDATE_INTERVAL must be positive")
	}
	if c.EnableAuditLogging && c.AuditLogBufferSize <= 0 {
		return errors.New("AUDIT_LOG_BUFFER_SIZE must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
