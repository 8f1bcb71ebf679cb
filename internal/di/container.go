package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/sms-spam-detector/internal/adapters/sklearn"
	"github.com/mikey/sms-spam-detector/internal/config"
	"github.com/mikey/sms-spam-detector/internal/core"
	"github.com/mikey/sms-spam-detector/internal/factory"
	"github.com/mikey/sms-spam-detector/internal/logging"
	"github.com/mikey/sms-spam-detector/internal/metrics"
	"github.com/mikey/sms-spam-detector/internal/ports"
	"github.com/mikey/sms-spam-detector/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the detector service
func BuildContainer() (*dig.Container, error) {
	return buildContainer(config.New)
}

// BuildContainerWithConfig creates the service container around an
// existing configuration
func BuildContainerWithConfig(cfg *config.Config) (*dig.Container, error) {
	return buildContainer(func() (*config.Config, error) { return cfg, nil })
}

func buildContainer(configProvider func() (*config.Config, error)) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(configProvider); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register metrics and text processor
	if err := container.Provide(metrics.New); err != nil {
		return nil, err
	}
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewArtifactFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}

	// Register model artifacts, loaded once
	if err := container.Provide(func(f *factory.ArtifactFactory) (*sklearn.Artifacts, error) {
		return f.LoadArtifacts()
	}); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register spam detector service
	if err := container.Provide(provideService); err != nil {
		return nil, err
	}

	// Register frontend
	if err := container.Provide(func(f *factory.FrontendFactory) (ports.Frontend, error) {
		return f.CreateFrontend()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

func provideService(
	cfg *config.Config,
	artifacts *sklearn.Artifacts,
	cacheRepo core.CacheRepository,
	logger *zap.Logger,
) (*core.SpamDetectorService, error) {
	cacheCfg, err := cfg.GetCache()
	if err != nil {
		return nil, err
	}
	return core.NewSpamDetectorService(
		artifacts.Vectorizer,
		artifacts.Classifier,
		artifacts.Fingerprint,
		cacheRepo,
		logger,
		cacheCfg.Enabled,
		cacheCfg.TTL,
	), nil
}
