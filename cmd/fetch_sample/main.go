// Command fetch_sample pulls daily klines from Binance and writes them in
// the CSV format /api/upload-stock-data accepts, producing a ready-made
// demo dataset.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"stockForecast/config"
	"stockForecast/internal/adapters/binanceclient"
	"stockForecast/internal/adapters/logger"
	"stockForecast/internal/utils"
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

	// 3. Initialize Kline Source (Binance Adapter)
	client, err := binanceclient.New(binanceclient.Config{
		APIKey:    cfg.APIKey,
		SecretKey: cfg.SecretKey,
		Logger:    appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	symbol := cfg.FetchSymbol
	end := time.Now()
	start := end.AddDate(0, -cfg.FetchMonths, 0)

	fmt.Printf("Fetching daily klines for %s from %s to %s...\n",
		symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	rows, err := client.GetDailyRows(context.Background(), symbol, start, end)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error fetching klines")
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(context.Background(), "Fetched klines", map[string]interface{}{"count": len(rows)})

	filename := fmt.Sprintf("data/%s_daily_%s_to_%s.csv", symbol, start.Format("20060102"), end.Format("20060102"))
	if err := utils.WriteRowsToCSV(rows, filename); err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved sample dataset", map[string]interface{}{"filename": filename})
}
