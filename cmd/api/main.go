package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lexivault/infrastructure/config"
	"lexivault/infrastructure/di"
	"lexivault/infrastructure/notify"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()
	logger := container.Logger

	watcher, err := config.NewWatcher(cfg, container.Logging.Level, logger)
	if err != nil {
		logger.Warn("Configuration hot reload disabled", zap.Error(err))
	}
	if watcher != nil {
		defer watcher.Stop()
		watcher.OnChange(func(next *config.Config) {
			if next.WordStore != cfg.WordStore || next.RelationStore != cfg.RelationStore {
				logger.Warn("Store selection changed; restart to apply",
					zap.String("wordStore", next.WordStore),
					zap.String("relationStore", next.RelationStore),
				)
			}
		})
	}

	// Scopes published by other replicas only need to clear this replica's cache.
	if container.RedisNotifier != nil {
		local := notify.NewCacheInvalidator(container.Cache, logger)
		if err := container.RedisNotifier.StartForwarder(ctx, container.Redis, local); err != nil {
			logger.Error("Failed to subscribe to invalidations", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.NewRouter().Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("wordStore", cfg.WordStore),
			zap.String("relationStore", cfg.RelationStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
