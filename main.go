package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os/signal"
	"syscall"

	"stockForecast/config"
	"stockForecast/internal/adapters/logger"
	"stockForecast/internal/adapters/sqlite"
	"stockForecast/internal/app"
	"stockForecast/internal/forecast"
	"stockForecast/internal/metrics"
	"stockForecast/internal/server"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Forecaster
	forecaster, err := forecast.New(forecast.Config{
		MinHistoryRows: cfg.MinHistoryRows,
	}, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize forecaster")
		log.Fatalf("FATAL: Failed to initialize forecaster: %v", err)
	}
	appLogger.Info(context.Background(), "Forecaster initialized")

	// 5. Initialize Application Service
	svc, err := app.NewForecastService(cfg, appLogger, repo, repo, forecaster)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize forecast service")
		log.Fatalf("FATAL: Failed to initialize forecast service: %v", err)
	}
	appLogger.Info(context.Background(), "Forecast service initialized")

	// 6. Initialize HTTP Server
	srv, err := server.New(cfg, appLogger, svc, metrics.New())
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize HTTP server")
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}

	// 7. Serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		appLogger.Error(context.Background(), err, "HTTP server exited with error")
		log.Fatalf("FATAL: HTTP server exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
