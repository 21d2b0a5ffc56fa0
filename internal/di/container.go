// Package di wires the application together.
package di

import (
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/adapters/smtp"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/factory"
	"github.com/spamsift/spamsift/internal/logging"
	"github.com/spamsift/spamsift/internal/registry"
	"github.com/spamsift/spamsift/internal/server"
	"github.com/spamsift/spamsift/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewEngineFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}

	// Register model registry
	if err := container.Provide(func(f *factory.EngineFactory) (*registry.Registry, error) {
		return f.CreateRegistry()
	}); err != nil {
		return nil, err
	}

	// Register result cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.ResultCache, error) {
		return f.CreateResultCache()
	}); err != nil {
		return nil, err
	}

	// Register normalizer
	if err := container.Provide(core.NewNormalizer); err != nil {
		return nil, err
	}

	// Register predictor
	if err := container.Provide(func(
		reg *registry.Registry,
		normalizer *core.Normalizer,
		logger *zap.Logger,
		cfg *config.Config,
	) *core.Predictor {
		modelCfg := cfg.GetModel()
		return core.NewPredictor(reg, normalizer, logger, modelCfg.MaxContentLength, modelCfg.Version)
	}); err != nil {
		return nil, err
	}

	// Register classifier service
	if err := container.Provide(func(
		predictor *core.Predictor,
		cache core.ResultCache,
		logger *zap.Logger,
		cacheFactory *factory.CacheFactory,
	) (*core.ClassifierService, error) {
		ttl, err := cacheFactory.GetCacheTTL()
		if err != nil {
			ttl = 24 * time.Hour
		}
		return core.NewClassifierService(predictor, cache, logger, cacheFactory.IsCacheEnabled(), ttl), nil
	}); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(server.NewServer); err != nil {
		return nil, err
	}

	// Register SMTP filter
	if err := container.Provide(func(
		service *core.ClassifierService,
		cfg *config.Config,
		logger *zap.Logger,
	) *smtp.Filter {
		smtpCfg := cfg.GetSMTP()
		whitelist := smtp.NewWhitelist(smtpCfg.WhitelistedDomains, logger)
		return smtp.NewFilter(service, whitelist, smtpCfg, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
