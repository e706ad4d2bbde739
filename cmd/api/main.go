package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/api"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/auth"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/bus"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/config"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/database"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/face"
	"github.com/saturnino-fabrica-de-software/campusguard/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting CampusGuard API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.ProviderType),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.NewPgxPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer pool.Close()

	// Face comparison provider
	comparator, err := face.NewComparator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create face provider: %w", err)
	}

	// Alert bus (Redis when REDIS_URL is set, in-process otherwise)
	alertBus, err := bus.New(cfg.RedisURL, cfg.AlertChannel, logger)
	if err != nil {
		return fmt.Errorf("failed to create alert bus: %w", err)
	}
	defer func() {
		if err := alertBus.Close(); err != nil {
			logger.Error("alert bus close error", slog.Any("error", err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Config:     cfg,
		DB:         pool,
		Identities: repository.NewIdentityRepository(pool),
		Alerts:     repository.NewAlertRepository(pool),
		Comparator: comparator,
		Bus:        alertBus,
		Tokens:     auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		Registry:   registry,
	})
	if err := router.Setup(); err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}
