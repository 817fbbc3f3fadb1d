package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/mwbrandt/masseplan/internal/adapter/http"
	"github.com/mwbrandt/masseplan/internal/adapter/http/handler"
	postgresRepo "github.com/mwbrandt/masseplan/internal/adapter/repository/postgres"
	redisRepo "github.com/mwbrandt/masseplan/internal/adapter/repository/redis"
	"github.com/mwbrandt/masseplan/internal/infrastructure/config"
	"github.com/mwbrandt/masseplan/internal/infrastructure/logger"
	"github.com/mwbrandt/masseplan/internal/infrastructure/metrics"
	"github.com/mwbrandt/masseplan/internal/infrastructure/postgres"
	"github.com/mwbrandt/masseplan/internal/infrastructure/redis"
	"github.com/mwbrandt/masseplan/internal/usecase"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Run migrations
	if path := os.Getenv("MIGRATIONS_PATH"); path != "" {
		if err := postgres.RunMigrations(cfg.DatabaseURL, path); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	ruleRepo := postgresRepo.NewRuleRepository(pool)
	effectRepo := postgresRepo.NewEffectRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	planRepo := postgresRepo.NewPlanRepository(pool)
	caseRepo := postgresRepo.NewCaseRepository(pool)
	counterpartyRepo := postgresRepo.NewCounterpartyRepository(pool)
	splitRuleRepo := postgresRepo.NewSplitRuleRepository(pool)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	reviewUC := usecase.NewReviewUseCase(txManager, entryRepo, auditRepo, idGen)
	ruleUC := usecase.NewRuleUseCase(ruleRepo, idGen)
	classificationUC := usecase.NewClassificationUseCase(entryRepo, ruleRepo, auditRepo, idGen)
	allocationUC := usecase.NewAllocationUseCase(entryRepo, caseRepo, counterpartyRepo, splitRuleRepo, auditRepo, idGen)
	effectUC := usecase.NewEffectUseCase(txManager, entryRepo, effectRepo, planRepo, auditRepo, idGen)
	aggregationUC := usecase.NewAggregationUseCase(entryRepo, planRepo, cache)

	// Initialize handlers
	m := metrics.New()
	entryHandler := handler.NewEntryHandler(reviewUC)
	ruleHandler := handler.NewRuleHandler(ruleUC)
	engineHandler := handler.NewEngineHandler(classificationUC, allocationUC, effectUC, aggregationUC, m)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		EntryHandler:  entryHandler,
		RuleHandler:   ruleHandler,
		EngineHandler: engineHandler,
		HealthHandler: healthHandler,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
