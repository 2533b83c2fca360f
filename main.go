package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pattern-hero/config"
	"pattern-hero/internal/api"
	"pattern-hero/internal/cache"
	"pattern-hero/internal/database"
	"pattern-hero/internal/logging"
	"pattern-hero/internal/marketdata"
	"pattern-hero/internal/patterns"
	"pattern-hero/internal/service"
)

func main() {
	// Load .env before reading config; missing file is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LoggingConfig.Level, cfg.LoggingConfig.Pretty)
	logger.Info().Msg("pattern-hero starting")

	// Database is optional; without it persistence and the pairs route
	// are disabled
	var repo *database.Repository
	if cfg.DatabaseConfig.Enabled && cfg.DatabaseConfig.URL != "" {
		db, err := database.NewDB(cfg.DatabaseConfig, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("database unavailable, running without persistence")
		} else {
			defer db.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := db.RunMigrations(ctx); err != nil {
				logger.Fatal().Err(err).Msg("migrations failed")
			}
			repo = database.NewRepository(db)
			if err := repo.SeedPatternTypes(ctx); err != nil {
				logger.Fatal().Err(err).Msg("pattern type seeding failed")
			}
			cancel()
		}
	}

	// Redis is optional as well; the cache degrades to its local map
	var redisService *cache.Service
	if cfg.RedisConfig.Enabled {
		redisService, err = cache.NewService(cfg.RedisConfig, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis disabled")
			redisService = nil
		} else {
			defer redisService.Close()
		}
	}

	typeCache := cache.NewPatternTypeCache(redisService, repo, logger)
	if repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := typeCache.Warm(ctx); err != nil {
			logger.Warn().Err(err).Msg("pattern type cache warm failed")
		}
		cancel()
	}

	var persister *service.Persister
	if repo != nil {
		persister = service.NewPersister(repo, typeCache, cfg.AnalysisConfig.RetentionDays, logger)
	}

	provider := marketdata.NewClient(cfg.MarketDataConfig, logger)
	aggregator := patterns.NewAggregator(logger)
	analyzer := service.NewAnalyzer(provider, aggregator, persister, logger)

	server := api.NewServer(cfg.ServerConfig, analyzer, provider, repo, redisService, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("stopped")
}
