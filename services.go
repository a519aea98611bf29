package main

import (
	"context"

	"sjsage522/carspecworker/config"
	"sjsage522/carspecworker/internal/crawler"
	"sjsage522/carspecworker/internal/orchestrator"
	"sjsage522/carspecworker/logger"
	"sjsage522/carspecworker/services/cache"
	"sjsage522/carspecworker/services/publisher"
	"sjsage522/carspecworker/services/store"
)

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Store     *store.FileStore
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			logger.LogError("publisher", err, "Failed to close publisher")
		}
	}
}

// loadConfig reads and validates the environment configuration
func loadConfig() (*config.Config, config.Locators, error) {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return nil, config.Locators{}, err
	}

	locators, err := config.LoadLocators(cfg.LocatorsFile)
	if err != nil {
		return nil, config.Locators{}, err
	}
	return cfg, locators, nil
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{Store: store.NewFileStore(cfg.OutputDir)}

	// Memcache shares rate-limit blocks between processes; fall back to memory
	services.Cache = cache.NewMemoryCache()
	if cfg.MemcacheAddr != "" {
		memcache := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := memcache.Ping(); err != nil {
			logger.Warn("Memcache at %s unreachable, using in-memory cache: %v", cfg.MemcacheAddr, err)
		} else {
			services.Cache = memcache
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			return nil, err
		}
		services.Publisher = redisPublisher

		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services, nil
}

// newOrchestrator wires the fetcher, store and publisher into an orchestrator
func newOrchestrator(cfg *config.Config, locators config.Locators, services *Services) *orchestrator.Orchestrator {
	fetcher := crawler.NewFetcher(
		crawler.WithCache(services.Cache),
		crawler.WithTimeout(cfg.FetchTimeout),
		crawler.WithRetries(cfg.FetchRetries),
		crawler.WithRateLimitBlock(cfg.RateLimitBlock),
	)

	opts := []orchestrator.Option{orchestrator.WithPacing(orchestrator.PacingFromConfig(cfg))}
	if services.Publisher != nil {
		opts = append(opts, orchestrator.WithPublisher(services.Publisher))
	}

	site := orchestrator.Site{
		BaseURL:   cfg.BaseURL,
		BrandsURL: cfg.BrandsURL(),
		Locators:  locators,
	}
	return orchestrator.New(site, fetcher, services.Store, opts...)
}
