package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/Sendient/ai-detector-sub000/internal/api"
	"github.com/Sendient/ai-detector-sub000/internal/assess"
	"github.com/Sendient/ai-detector-sub000/internal/assign"
	"github.com/Sendient/ai-detector-sub000/internal/auth"
	"github.com/Sendient/ai-detector-sub000/internal/bulk"
	"github.com/Sendient/ai-detector-sub000/internal/client"
	"github.com/Sendient/ai-detector-sub000/internal/config"
	"github.com/Sendient/ai-detector-sub000/internal/logger"
	"github.com/Sendient/ai-detector-sub000/internal/poller"
	"github.com/Sendient/ai-detector-sub000/internal/registry"
	"github.com/Sendient/ai-detector-sub000/internal/resolver"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting sync engine")

	// Pick the registry store: in-memory by default, Redis when several
	// UI processes share one engine.
	var store registry.Store
	if cfg.Redis.Enabled {
		redisStore, err := registry.NewRedisStore(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisStore.Close()
		store = redisStore
		log.Info().Str("addr", cfg.RedisAddr()).Msg("Using Redis-backed registry store")
	} else {
		store = registry.NewMemoryStore()
	}

	reg := registry.New(store)

	// Wire the engine components
	tokens := auth.NewManager(cfg)
	backend := client.New(cfg, tokens)
	results := resolver.New(backend, reg)
	statusPoller := poller.New(cfg, backend, reg, results)
	controller := assess.NewController(cfg, backend, reg, statusPoller)
	statusPoller.SetOperationSweeper(controller)
	assigner := assign.NewResolver(backend, reg, statusPoller)
	importer := bulk.NewProcessor(backend)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := statusPoller.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Initial refresh failed")
	}

	// Initialize API handler
	handler := api.NewHandler(cfg, reg, statusPoller, controller, assigner, importer, backend)

	// Setup Gin router
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(api.CORSMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.RecoveryMiddleware())

	// Setup routes
	api.SetupRoutes(router, handler)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down engine...")

	statusPoller.Stop()
	cancel()

	// Create context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Engine exited")
}
