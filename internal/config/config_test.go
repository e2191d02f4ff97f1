package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Environment:        EnvDevelopment,
		DatabaseDriver:     "sqlite",
		DatabaseDSN:        ":memory:",
		AuthMode:           AuthModeLocal,
		UserCacheType:      UserCacheTypeMemory,
		UserCacheTTL:       5 * time.Minute,
		JWTSecret:          "test-secret",
		TokenExpiration:    7 * 24 * time.Hour,
		DefaultDeviceLimit: 10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:        "invalid driver",
			mutate:      func(c *Config) { c.DatabaseDriver = "mysql" },
			expectError: true,
			errorMsg:    `invalid DATABASE_DRIVER value: "mysql"`,
		},
		{
			name:        "missing dsn",
			mutate:      func(c *Config) { c.DatabaseDSN = "" },
			expectError: true,
			errorMsg:    "DATABASE_DSN is required",
		},
		{
			name:        "http api mode without url",
			mutate:      func(c *Config) { c.AuthMode = AuthModeHTTPAPI },
			expectError: true,
			errorMsg:    "HTTP_API_URL is required",
		},
		{
			name: "http api mode with url",
			mutate: func(c *Config) {
				c.AuthMode = AuthModeHTTPAPI
				c.HTTPAPIURL = "http://auth.internal/verify"
			},
		},
		{
			name:        "unknown auth mode",
			mutate:      func(c *Config) { c.AuthMode = "ldap" },
			expectError: true,
			errorMsg:    `invalid AUTH_MODE value: "ldap"`,
		},
		{
			name:        "invalid user cache type",
			mutate:      func(c *Config) { c.UserCacheType = "reddis" },
			expectError: true,
			errorMsg:    `invalid USER_CACHE_TYPE value: "reddis"`,
		},
		{
			name:        "redis user cache without address",
			mutate:      func(c *Config) { c.UserCacheType = UserCacheTypeRedis },
			expectError: true,
			errorMsg:    `USER_CACHE_TYPE="redis" requires REDIS_ADDR`,
		},
		{
			name:        "non-positive cache ttl",
			mutate:      func(c *Config) { c.UserCacheTTL = 0 },
			expectError: true,
			errorMsg:    "USER_CACHE_TTL must be a positive duration",
		},
		{
			name:        "short secret in production",
			mutate:      func(c *Config) { c.Environment = EnvProduction },
			expectError: true,
			errorMsg:    "JWT_SECRET must be at least 32 bytes",
		},
		{
			name:        "device limit out of range",
			mutate:      func(c *Config) { c.DefaultDeviceLimit = 101 },
			expectError: true,
			errorMsg:    "DEFAULT_DEVICE_LIMIT must be between 1 and 100",
		},
		{
			name:        "zero token expiration",
			mutate:      func(c *Config) { c.TokenExpiration = 0 },
			expectError: true,
			errorMsg:    "TOKEN_EXPIRATION must be a positive duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("TOKEN_EXPIRATION", "")
	t.Setenv("DEFAULT_DEVICE_LIMIT", "")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "keygate.db", cfg.DatabaseDSN)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenExpiration)
	assert.Equal(t, 10, cfg.DefaultDeviceLimit)
	assert.Equal(t, 3*time.Second, cfg.TouchTimeout)
	assert.Equal(t, 10*time.Second, cfg.AuditShutdownTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOKEN_EXPIRATION", "24h")
	t.Setenv("DEFAULT_DEVICE_LIMIT", "3")
	t.Setenv("METRICS_ENABLED", "1")
	t.Setenv("USER_CACHE_TYPE", "REDIS")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.TokenExpiration)
	assert.Equal(t, 3, cfg.DefaultDeviceLimit)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, UserCacheTypeRedis, cfg.UserCacheType)
}
