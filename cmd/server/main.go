package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dislu/ai-study-circle-sub003/internal/extract"
	httpS "github.com/dislu/ai-study-circle-sub003/internal/http"
	httpH "github.com/dislu/ai-study-circle-sub003/internal/http/handlers"
	"github.com/dislu/ai-study-circle-sub003/internal/jobs"
	"github.com/dislu/ai-study-circle-sub003/internal/logger"
	"github.com/dislu/ai-study-circle-sub003/internal/translation"
	"github.com/dislu/ai-study-circle-sub003/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	port := utils.GetEnv("PORT", "8080", log)
	provider := utils.GetEnv("TRANSLATION_PROVIDER", "generic", log)
	cacheBackend := utils.GetEnv("TRANSLATION_CACHE_BACKEND", "memory", log)
	cacheTTL := utils.GetEnvAsDuration("TRANSLATION_CACHE_TTL", translation.DefaultCacheTTL, log)
	sweepInterval := utils.GetEnvAsDuration("JOB_SWEEP_INTERVAL", 5*time.Minute, log)
	jobMaxAge := utils.GetEnvAsDuration("JOB_MAX_AGE", 24*time.Hour, log)
	completedMaxAge := utils.GetEnvAsDuration("JOB_COMPLETED_MAX_AGE", time.Hour, log)

	// Translation
	log.Info("Setting up translation gateway from main...")
	var cache translation.Cache
	switch cacheBackend {
	case "redis":
		cache, err = translation.NewRedisCache(log, cacheTTL)
		if err != nil {
			log.Warn("Redis cache init failed, falling back to memory", "error", err)
			cache = translation.NewMemoryCache(cacheTTL)
		}
	default:
		cache = translation.NewMemoryCache(cacheTTL)
	}
	svc := translation.NewHTTPService(log)
	gateway := translation.NewGateway(svc, cache, log, provider, cacheTTL)

	// Jobs
	log.Info("Setting up job registry from main...")
	registry := jobs.NewRegistry(jobs.NewMemoryStore(), log, jobs.SweepConfig{
		Interval:        sweepInterval,
		MaxAge:          jobMaxAge,
		CompletedMaxAge: completedMaxAge,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	registry.Start(ctx)

	// Extraction
	extractor := extract.New(log)

	// Handlers
	log.Info("Setting up handlers from main...")
	contentHandler := httpH.NewContentHandler(extractor, registry, log)
	jobHandler := httpH.NewJobHandler(registry, log)
	translationHandler := httpH.NewTranslationHandler(gateway, log)
	healthHandler := httpH.NewHealthHandler(registry)

	// Server
	server := httpS.NewServer(httpS.RouterConfig{
		Gateway:            gateway,
		Log:                log,
		ContentHandler:     contentHandler,
		JobHandler:         jobHandler,
		TranslationHandler: translationHandler,
		HealthHandler:      healthHandler,
	})

	log.Info("Starting server", "port", port)
	if err := server.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
