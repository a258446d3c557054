package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"stockForecast/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string // Allowed origins for the dashboard; "*" allows any

	// Forecasting Parameters
	MinHistoryRows int // Minimum rows required to fit the model
	HoldoutDivisor int // Validation tail is min(forecast_days, rows/HoldoutDivisor)

	// Database
	DBPath string

	// Binance API (used only by the sample-data fetcher)
	APIKey    string
	SecretKey string

	// Sample Fetcher
	FetchSymbol string
	FetchMonths int

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// HTTP Server
	cfg.Port = getEnv("PORT", "8000")
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid PORT %q: must be numeric", cfg.Port))
	}

	originsStr := getEnv("CORS_ORIGINS", "*")
	for _, o := range strings.Split(originsStr, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if len(cfg.CORSOrigins) == 0 {
		errs = append(errs, "CORS_ORIGINS must name at least one origin (or *)")
	}

	// Forecasting Parameters
	cfg.MinHistoryRows = getEnvAsInt("MIN_HISTORY_ROWS", 10)
	if cfg.MinHistoryRows < 2 {
		errs = append(errs, "MIN_HISTORY_ROWS must be at least 2")
	}

	cfg.HoldoutDivisor = getEnvAsInt("HOLDOUT_DIVISOR", 5)
	if cfg.HoldoutDivisor <= 0 {
		errs = append(errs, "HOLDOUT_DIVISOR must be positive")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/stock_forecast.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Binance API keys are optional: kline history is a public endpoint.
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")

	// Sample Fetcher
	cfg.FetchSymbol = getEnv("FETCH_SYMBOL", "BTCUSDT")
	cfg.FetchMonths = getEnvAsInt("FETCH_MONTHS", 6)
	if cfg.FetchMonths <= 0 {
		errs = append(errs, "FETCH_MONTHS must be positive")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
