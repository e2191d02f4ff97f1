package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-authgate/keygate/internal/cache"
	"github.com/go-authgate/keygate/internal/config"
	"github.com/go-authgate/keygate/internal/core"
	"github.com/go-authgate/keygate/internal/metrics"
	"github.com/go-authgate/keygate/internal/models"

	"go.uber.org/zap"
)

const (
	metricsCachePrefix = "keygate:metrics:"
	userCachePrefix    = "keygate:users:"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config, logger *zap.Logger) core.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		logger.Info("Prometheus metrics initialized")
	} else {
		logger.Info("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeMetricsCache builds the cache behind the gauge counts. It shares
// the backend selected by USER_CACHE_TYPE so that every instance reads the
// same counts when Redis is configured.
func initializeMetricsCache(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
) (core.Cache[int64], func() error, error) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled {
		return nil, nil, nil
	}

	c, err := newCache[int64](ctx, cfg, metricsCachePrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize metrics cache: %w", err)
	}
	logCacheBackend(logger, "Metrics cache", cfg)
	return c, c.Close, nil
}

// initializeUserCache initializes the user cache (always enabled, defaults to memory)
func initializeUserCache(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
) (core.Cache[models.User], func() error, error) {
	c, err := newCache[models.User](ctx, cfg, userCachePrefix)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize user cache: %w", err)
	}
	logCacheBackend(logger, "User cache", cfg)
	return c, c.Close, nil
}

func newCache[T any](ctx context.Context, cfg *config.Config, prefix string) (core.Cache[T], error) {
	if cfg.UserCacheType != config.UserCacheTypeRedis {
		return cache.NewMemoryCache[T](), nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
	defer cancel()
	return cache.NewRueidisCache[T](ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, prefix)
}

func logCacheBackend(logger *zap.Logger, name string, cfg *config.Config) {
	if cfg.UserCacheType == config.UserCacheTypeRedis {
		logger.Info(name+": redis",
			zap.String("addr", cfg.RedisAddr),
			zap.Int("db", cfg.RedisDB))
		return
	}
	logger.Info(name + ": memory (single instance only)")
}
