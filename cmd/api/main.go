package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mobile-pos/internal/config"
	"mobile-pos/internal/database"
	"mobile-pos/internal/logger"
	"mobile-pos/internal/observability"
	"mobile-pos/internal/repository"
	"mobile-pos/internal/repository/memory"
	"mobile-pos/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// openStore builds the catalog store for the configured data mode
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, server.HealthFunc, error) {
	switch cfg.Server.DataMode {
	case config.DataModeMemory:
		log.Warn("Using in-memory sample data; nothing is persisted")
		store, err := memory.NewSeeded(cfg.Seed.AdminPassword, cfg.Seed.UserPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed memory store: %w", err)
		}
		return store, nil, nil

	case config.DataModePostgres:
		dbService, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Database health check", zap.Any("health", dbService.Health(ctx)))

		if err := database.RunMigrations(dbService.DB(), cfg.Server.MigrationsDir, log); err != nil {
			dbService.Close()
			return nil, nil, err
		}
		return repository.NewPostgresStore(dbService.DB()), dbService.Health, nil
	}

	return nil, nil, fmt.Errorf("unknown data mode %q", cfg.Server.DataMode)
}

// openRedis connects to Redis when enabled. A failed ping falls back to the
// in-process rate limiter.
func openRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, using local rate limiter", zap.String("addr", cfg.Addr()), zap.Error(err))
		client.Close()
		return nil
	}

	return client
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting mobile POS API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("data_mode", cfg.Server.DataMode),
	)

	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()

	store, health, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}

	srv, err := server.NewServer(cfg, log, server.Deps{
		Store:   store,
		Redis:   openRedis(ctx, cfg.Redis, log),
		Metrics: observability.NewMetrics(),
		Health:  health,
	})
	if err != nil {
		log.Fatal("Failed to build server", zap.Error(err))
	}

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
