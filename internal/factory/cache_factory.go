package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/sms-spam-detector/internal/adapters/cache"
	"github.com/mikey/sms-spam-detector/internal/config"
	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/mikey/sms-spam-detector/internal/metrics"
	"go.uber.org/zap"
)

// CacheFactory creates prediction cache repositories based on configuration
type CacheFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewCacheFactory creates a new cache factory. m may be nil.
func NewCacheFactory(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *CacheFactory {
	return &CacheFactory{
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// CreateCacheRepository creates a cache repository based on the
// configuration. It returns nil when the cache is disabled.
func (f *CacheFactory) CreateCacheRepository() (core.CacheRepository, error) {
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}
	if !cacheCfg.Enabled {
		return nil, nil
	}

	var repo core.CacheRepository
	switch cacheCfg.Type {
	case "memory":
		repo = cache.NewMemoryCache(f.logger, cacheCfg.CleanupFrequency)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cacheCfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		repo, err = cache.NewSQLiteCache(cacheCfg.SQLitePath, f.logger, cacheCfg.CleanupFrequency)
	case "mysql":
		repo, err = cache.NewMySQLCache(cacheCfg.MySQLDSN, f.logger, cacheCfg.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheCfg.Type)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Prediction cache enabled",
		zap.String("type", cacheCfg.Type),
		zap.Duration("ttl", cacheCfg.TTL))

	return metrics.InstrumentCache(repo, f.metrics), nil
}
