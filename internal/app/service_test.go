package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockForecast/config"
	"stockForecast/internal/adapters/sqlite"
	"stockForecast/internal/forecast"
	"stockForecast/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func setupService(t *testing.T) (*ForecastService, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "forecast-service-test-*")
	require.NoError(t, err)

	log := &mockLogger{}
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: filepath.Join(tmpDir, "test.db"),
		Logger: log,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		MinHistoryRows: 10,
		HoldoutDivisor: 5,
	}
	forecaster, err := forecast.New(forecast.Config{MinHistoryRows: cfg.MinHistoryRows}, log)
	require.NoError(t, err)

	svc, err := NewForecastService(cfg, log, repo, repo, forecaster)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return svc, cleanup
}

// sampleCSV builds an upload with n business-day rows starting at start,
// closing prices interpolated linearly from firstClose to lastClose.
func sampleCSV(start time.Time, n int, firstClose, lastClose float64) []byte {
	var sb strings.Builder
	sb.WriteString("Date,Open,Higher,Lower,Last,Volume\n")

	step := 0.0
	if n > 1 {
		step = (lastClose - firstClose) / float64(n-1)
	}
	date := start
	for i := 0; i < n; i++ {
		for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}
		close := firstClose + step*float64(i)
		sb.WriteString(fmt.Sprintf("%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			date.Format("2006-01-02"), close-0.2, close+0.3, close-0.5, close, 1000+i))
		date = date.AddDate(0, 0, 1)
	}
	return []byte(sb.String())
}

// The 50-business-day window 2024-01-01..2024-03-08 mirrors the sample
// dataset the dashboard ships with.
func fiftyRowCSV() []byte {
	return sampleCSV(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 50, 65.80, 74.15)
}

func TestUploadDataset(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	ds, err := svc.UploadDataset(ctx, fiftyRowCSV(), "sample.csv", "BNP")
	require.NoError(t, err)
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "BNP", ds.Symbol)
	assert.Equal(t, 50, ds.DataPoints())
	assert.Equal(t, "2024-01-01", ds.StartDate().Format("2006-01-02"))
	assert.Equal(t, "2024-03-08", ds.EndDate().Format("2006-01-02"))
}

func TestUploadDataset_Failures(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
		symbol  string
	}{
		{
			name:    "empty symbol",
			content: "Date,Last\n2024-01-01,10\n",
			symbol:  "  ",
		},
		{
			name:    "duplicate date",
			content: "Date,Last\n2024-01-01,10\n2024-01-01,11\n",
			symbol:  "ACME",
		},
		{
			name:    "non-numeric close",
			content: "Date,Last\n2024-01-01,abc\n",
			symbol:  "ACME",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadDataset(ctx, []byte(tt.content), "bad.csv", tt.symbol)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ports.ErrValidation))
		})
	}
}

func TestPredict_HorizonBounds(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	ds, err := svc.UploadDataset(ctx, fiftyRowCSV(), "sample.csv", "BNP")
	require.NoError(t, err)

	for _, days := range []int{0, 6, 31, -1} {
		_, err := svc.Predict(ctx, ds.ID, days)
		require.Error(t, err, "days=%d", days)
		assert.True(t, errors.Is(err, ports.ErrValidation), "days=%d", days)
	}
}

func TestPredict_UnknownDataset(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()

	_, err := svc.Predict(context.Background(), "no-such-id", 14)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestPredict_EndToEnd(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	ds, err := svc.UploadDataset(ctx, fiftyRowCSV(), "sample.csv", "BNP")
	require.NoError(t, err)

	fr, err := svc.Predict(ctx, ds.ID, 7)
	require.NoError(t, err)

	assert.Equal(t, ds.ID, fr.DatasetID)
	assert.Equal(t, 7, fr.ForecastDays)
	require.Len(t, fr.Points, 7)
	assert.Equal(t, "2024-03-11", fr.Points[0].Date.Format("2006-01-02"),
		"forecast starts on the first business day after the history ends")

	require.NotNil(t, fr.RMSE)
	require.NotNil(t, fr.MAPE)
	assert.GreaterOrEqual(t, *fr.RMSE, 0.0)
	assert.GreaterOrEqual(t, *fr.MAPE, 0.0)

	lastHistorical := ds.EndDate()
	prev := lastHistorical
	for i, p := range fr.Points {
		assert.True(t, p.Date.After(prev), "point %d not strictly increasing", i)
		assert.LessOrEqual(t, p.Lower, p.Value, "point %d", i)
		assert.LessOrEqual(t, p.Value, p.Upper, "point %d", i)
		prev = p.Date
	}

	assert.Equal(t, "BNP", fr.Chart.Symbol)
	assert.Len(t, fr.Chart.Historical.Dates, 50)
	assert.Len(t, fr.Chart.Forecast.Dates, 7)
}

func TestPredict_Idempotent(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	ds, err := svc.UploadDataset(ctx, fiftyRowCSV(), "sample.csv", "BNP")
	require.NoError(t, err)

	first, err := svc.Predict(ctx, ds.ID, 14)
	require.NoError(t, err)
	second, err := svc.Predict(ctx, ds.ID, 14)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "each run is its own record")
	assert.Equal(t, first.Points, second.Points, "closed-form fit makes repeat runs bit-identical")
	assert.Equal(t, *first.RMSE, *second.RMSE)
	assert.Equal(t, *first.MAPE, *second.MAPE)
}

func TestPredict_TooLittleHistory(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	short := sampleCSV(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5, 10, 12)
	ds, err := svc.UploadDataset(ctx, short, "short.csv", "ACME")
	require.NoError(t, err, "short uploads are valid; the model enforces its own minimum")

	_, err = svc.Predict(ctx, ds.ID, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrModelFit))
}

func TestPredict_ThinHistorySkipsMetrics(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	// 10 rows fit the model, but holding out a validation tail would leave
	// fewer than the minimum, so metrics come back unavailable.
	thin := sampleCSV(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10, 20, 25)
	ds, err := svc.UploadDataset(ctx, thin, "thin.csv", "ACME")
	require.NoError(t, err)

	fr, err := svc.Predict(ctx, ds.ID, 7)
	require.NoError(t, err)
	assert.Nil(t, fr.RMSE)
	assert.Nil(t, fr.MAPE)
	assert.Len(t, fr.Points, 7)
}

func TestExportForecast_RoundTrip(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	ds, err := svc.UploadDataset(ctx, fiftyRowCSV(), "sample.csv", "BNP")
	require.NoError(t, err)
	fr, err := svc.Predict(ctx, ds.ID, 7)
	require.NoError(t, err)

	stored, csvBytes, err := svc.ExportForecast(ctx, fr.ID)
	require.NoError(t, err)
	assert.Equal(t, fr.ID, stored.ID)

	records, err := csv.NewReader(strings.NewReader(string(csvBytes))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 8)
	assert.Equal(t, []string{"Date", "Forecast", "Lower_Bound", "Upper_Bound"}, records[0])

	for i, p := range fr.Points {
		rec := records[i+1]
		assert.Equal(t, p.Date.Format("2006-01-02"), rec[0])
		value, err := strconv.ParseFloat(rec[1], 64)
		require.NoError(t, err)
		lower, err := strconv.ParseFloat(rec[2], 64)
		require.NoError(t, err)
		upper, err := strconv.ParseFloat(rec[3], 64)
		require.NoError(t, err)
		assert.Equal(t, p.Value, value)
		assert.Equal(t, p.Lower, lower)
		assert.Equal(t, p.Upper, upper)
	}
}

func TestExportForecast_NotFound(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()

	_, _, err := svc.ExportForecast(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestListForecasts(t *testing.T) {
	svc, cleanup := setupService(t)
	defer cleanup()
	ctx := context.Background()

	ds, err := svc.UploadDataset(ctx, fiftyRowCSV(), "sample.csv", "BNP")
	require.NoError(t, err)

	_, err = svc.Predict(ctx, ds.ID, 7)
	require.NoError(t, err)
	_, err = svc.Predict(ctx, ds.ID, 14)
	require.NoError(t, err)

	list, err := svc.ListForecasts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
