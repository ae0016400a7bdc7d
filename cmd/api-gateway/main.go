package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	_ "github.com/noah-isme/performance-analyzer-api/api/swagger"
	"github.com/noah-isme/performance-analyzer-api/internal/repository"
	"github.com/noah-isme/performance-analyzer-api/internal/service"
	"github.com/noah-isme/performance-analyzer-api/pkg/cache"
	"github.com/noah-isme/performance-analyzer-api/pkg/config"
	"github.com/noah-isme/performance-analyzer-api/pkg/database"
	"github.com/noah-isme/performance-analyzer-api/pkg/logger"
)

// @title Performance Analyzer API
// @version 1.0.0
// @description Student performance backend with legacy and batch/section academic models
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	if cfg.Migrations.AutoMigrate {
		if err := database.Migrate(db.DB, logr); err != nil {
			logr.Sugar().Fatalw("failed to migrate database", "error", err)
		}
	}

	metrics := service.NewMetricsService()
	if err := metrics.RegisterDB(db.DB, "performance_analyzer"); err != nil {
		logr.Sugar().Warnw("failed to register db pool metrics", "error", err)
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.PerformanceTTL, logr, cfg.Cache.Enabled)

	var generator service.TextGenerator
	gemini, err := service.NewGeminiGenerator(ctx, cfg.Summary)
	switch {
	case err != nil:
		logr.Sugar().Warnw("gemini client unavailable, using rule-based fallback", "error", err)
	case gemini == nil:
		logr.Info("ai summaries disabled, using rule-based fallback")
	default:
		generator = gemini
	}

	app := newApplication(cfg, db, validator.New(), cacheSvc, generator, metrics, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, app, logr),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
