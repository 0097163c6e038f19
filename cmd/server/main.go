package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nulzo/prism-console/cmd"
	"github.com/nulzo/prism-console/internal/audit"
	"github.com/nulzo/prism-console/internal/catalog"
	"github.com/nulzo/prism-console/internal/config"
	"github.com/nulzo/prism-console/internal/gateway"
	"github.com/nulzo/prism-console/internal/platform/logger"
	"github.com/nulzo/prism-console/internal/platform/otel"
	"github.com/nulzo/prism-console/internal/reconcile"
	"github.com/nulzo/prism-console/internal/server"
	"github.com/nulzo/prism-console/internal/store/cache"
	"github.com/nulzo/prism-console/internal/store/sqlite"
	"github.com/nulzo/prism-console/internal/template"
	"github.com/nulzo/prism-console/internal/verify"
	"go.uber.org/zap"
)

func main() {
	logger.Initialize(logger.DefaultConfig())
	defer logger.Sync()
	log := logger.Get()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	go cmd.CheckForUpdates()

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer repo.Close()

	var cacheSvc cache.CacheService
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisCache.Close()
		cacheSvc = redisCache
		log.Info("Using redis cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		cacheSvc = cache.NewMemoryCache()
	}

	shutdownTracer, err := otel.InitTracer("prism-console", log, os.Stdout)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)

	auditor := audit.NewIngestor(log, repo)
	auditor.Start(ctx)
	defer auditor.Stop()

	deps := server.Deps{
		Repo:      repo,
		Cache:     cacheSvc,
		Templates: template.NewService(repo),
		Engine:    reconcile.NewEngine(repo, log),
		Scheduler: verify.NewScheduler(gw, log),
		Runs:      verify.NewRegistry(),
		Syncer:    catalog.NewSyncer(repo, gw, log),
		Audit:     auditor,
	}

	srv := server.New(cfg, log, deps)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Handler(),
	}

	go func() {
		log.Info("Starting prism console",
			zap.String("port", cfg.Server.Port),
			zap.String("gateway", cfg.Gateway.BaseURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}
}
