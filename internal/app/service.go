package app

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockForecast/config"
	"stockForecast/internal/chart"
	"stockForecast/internal/domain"
	"stockForecast/internal/forecast"
	"stockForecast/internal/ingest"
	"stockForecast/internal/ports"
)

const (
	// MinForecastDays and MaxForecastDays bound the requested horizon.
	MinForecastDays = 7
	MaxForecastDays = 30

	// listLimit caps the recent-forecasts listing.
	listLimit = 100
)

// ForecastService orchestrates upload, prediction, export and listing.
type ForecastService struct {
	cfg        *config.Config
	logger     ports.Logger
	datasets   ports.DatasetRepository
	forecasts  ports.ForecastRepository
	forecaster ports.Forecaster
}

// NewForecastService creates a new application service instance.
func NewForecastService(
	cfg *config.Config,
	logger ports.Logger,
	datasets ports.DatasetRepository,
	forecasts ports.ForecastRepository,
	forecaster ports.Forecaster,
) (*ForecastService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || datasets == nil || forecasts == nil || forecaster == nil {
		return nil, fmt.Errorf("missing required dependencies for ForecastService")
	}
	if cfg.HoldoutDivisor <= 0 {
		return nil, fmt.Errorf("configuration HoldoutDivisor must be positive")
	}
	if cfg.MinHistoryRows < 2 {
		return nil, fmt.Errorf("configuration MinHistoryRows must be at least 2")
	}

	return &ForecastService{
		cfg:        cfg,
		logger:     logger,
		datasets:   datasets,
		forecasts:  forecasts,
		forecaster: forecaster,
	}, nil
}

// UploadDataset validates raw CSV content and persists it as a new dataset.
// The whole upload fails on the first malformed row; nothing is stored then.
func (s *ForecastService) UploadDataset(ctx context.Context, content []byte, filename, symbol string) (*domain.Dataset, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol must not be empty", ports.ErrValidation)
	}

	rows, err := ingest.ParseCSV(content)
	if err != nil {
		return nil, err
	}

	ds := &domain.Dataset{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Filename:   filename,
		UploadedAt: time.Now().UTC(),
		Rows:       rows,
	}
	if err := s.datasets.CreateDataset(ctx, ds); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Dataset uploaded", map[string]interface{}{
		"datasetID": ds.ID,
		"symbol":    ds.Symbol,
		"rows":      ds.DataPoints(),
		"start":     ds.StartDate().Format(domain.DateLayout),
		"end":       ds.EndDate().Format(domain.DateLayout),
	})
	return ds, nil
}

// Predict runs the forecaster for a stored dataset and persists the result.
//
// Split policy: the last min(days, rows/HoldoutDivisor) rows are held out and
// scored against a model fit on the remainder; the future forecast comes from
// a fresh fit on the full history. When the remainder would be too short to
// fit, metrics are reported as not-available instead of failing the run.
func (s *ForecastService) Predict(ctx context.Context, datasetID string, days int) (*domain.ForecastResult, error) {
	if days < MinForecastDays || days > MaxForecastDays {
		return nil, fmt.Errorf("%w: forecast_days must be between %d and %d, got %d",
			ports.ErrValidation, MinForecastDays, MaxForecastDays, days)
	}

	ds, err := s.datasets.FindDatasetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	n := len(ds.Rows)
	holdout := days
	if max := n / s.cfg.HoldoutDivisor; max < holdout {
		holdout = max
	}
	if n-holdout < s.cfg.MinHistoryRows {
		holdout = 0 // Remainder too short to fit; skip metric scoring
	}

	var rmse, mape *float64
	if holdout > 0 {
		train, tail := ds.Rows[:n-holdout], ds.Rows[n-holdout:]
		predicted, err := s.forecaster.PredictAt(ctx, train, tail)
		if err != nil {
			return nil, err
		}
		actual := make([]float64, len(tail))
		for i, row := range tail {
			actual[i] = row.Close
		}
		rmse = round4(forecast.RMSE(actual, predicted))
		mape = round4(forecast.MAPE(actual, predicted))
	} else {
		s.logger.Warn(ctx, "History too short for validation holdout, metrics unavailable", map[string]interface{}{
			"datasetID": datasetID,
			"rows":      n,
		})
	}

	points, err := s.forecaster.FitAndPredict(ctx, ds.Rows, days)
	if err != nil {
		return nil, err
	}

	fr := &domain.ForecastResult{
		ID:           uuid.NewString(),
		DatasetID:    datasetID,
		ForecastDays: days,
		CreatedAt:    time.Now().UTC(),
		RMSE:         rmse,
		MAPE:         mape,
		Points:       points,
		Chart:        chart.Build(ds, points),
	}
	if err := s.forecasts.CreateForecast(ctx, fr); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Forecast created", map[string]interface{}{
		"forecastID": fr.ID,
		"datasetID":  datasetID,
		"days":       days,
		"holdout":    holdout,
	})
	return fr, nil
}

// ExportForecast regenerates the downloadable CSV for a stored forecast.
func (s *ForecastService) ExportForecast(ctx context.Context, forecastID string) (*domain.ForecastResult, []byte, error) {
	fr, err := s.forecasts.FindForecastByID(ctx, forecastID)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := chart.WriteForecastCSV(&buf, fr.Points); err != nil {
		return nil, nil, fmt.Errorf("failed to write forecast %s CSV: %w", forecastID, err)
	}
	return fr, buf.Bytes(), nil
}

// ListForecasts returns the most recent forecast results, newest first.
func (s *ForecastService) ListForecasts(ctx context.Context) ([]*domain.ForecastResult, error) {
	return s.forecasts.ListForecasts(ctx, listLimit)
}

func round4(v float64) *float64 {
	r := math.Round(v*10000) / 10000
	return &r
}

