package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stockForecast/internal/domain"
	"stockForecast/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "stock-forecast-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func testDataset(id string) *domain.Dataset {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]domain.PriceRow, 12)
	for i := range rows {
		rows[i] = domain.PriceRow{
			Date:   start.AddDate(0, 0, i),
			Open:   10 + float64(i),
			High:   11 + float64(i),
			Low:    9 + float64(i),
			Close:  10.5 + float64(i),
			Volume: int64(100 * (i + 1)),
		}
	}
	return &domain.Dataset{
		ID:         id,
		Symbol:     "ACME",
		Filename:   "acme.csv",
		UploadedAt: time.Now().UTC(),
		Rows:       rows,
	}
}

func testForecast(id, datasetID string, createdAt time.Time, withMetrics bool) *domain.ForecastResult {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	points := make([]domain.ForecastPoint, 7)
	for i := range points {
		v := 22.5 + float64(i)*0.3
		points[i] = domain.ForecastPoint{Date: start.AddDate(0, 0, i), Value: v, Lower: v - 2, Upper: v + 2}
	}

	fr := &domain.ForecastResult{
		ID:           id,
		DatasetID:    datasetID,
		ForecastDays: 7,
		CreatedAt:    createdAt,
		Points:       points,
		Chart: domain.ChartData{
			Historical: domain.HistoricalSeries{Dates: []string{"2024-01-01"}, Actual: []float64{10.5}},
			Forecast: domain.ForecastSeries{
				Dates:      []string{"2024-01-15"},
				Forecast:   []float64{22.5},
				UpperBound: []float64{24.5},
				LowerBound: []float64{20.5},
			},
			Symbol: "ACME",
		},
	}
	if withMetrics {
		rmse, mape := 1.2345, 6.789
		fr.RMSE, fr.MAPE = &rmse, &mape
	}
	return fr
}

func TestRepository_CreateAndFindDataset(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	ds := testDataset("ds-1")
	require.NoError(t, repo.CreateDataset(ctx, ds))

	found, err := repo.FindDatasetByID(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, ds.ID, found.ID)
	assert.Equal(t, ds.Symbol, found.Symbol)
	assert.Equal(t, ds.Filename, found.Filename)
	require.Len(t, found.Rows, len(ds.Rows))
	for i, row := range found.Rows {
		assert.True(t, row.Date.Equal(ds.Rows[i].Date), "row %d date", i)
		assert.Equal(t, ds.Rows[i].Open, row.Open)
		assert.Equal(t, ds.Rows[i].High, row.High)
		assert.Equal(t, ds.Rows[i].Low, row.Low)
		assert.Equal(t, ds.Rows[i].Close, row.Close)
		assert.Equal(t, ds.Rows[i].Volume, row.Volume)
	}
}

func TestRepository_FindDatasetByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.FindDatasetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestRepository_CreateAndFindForecast(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	fr := testForecast("fc-1", "ds-1", time.Now().UTC(), true)
	require.NoError(t, repo.CreateForecast(ctx, fr))

	found, err := repo.FindForecastByID(ctx, "fc-1")
	require.NoError(t, err)
	assert.Equal(t, fr.ID, found.ID)
	assert.Equal(t, fr.DatasetID, found.DatasetID)
	assert.Equal(t, fr.ForecastDays, found.ForecastDays)
	require.NotNil(t, found.RMSE)
	require.NotNil(t, found.MAPE)
	assert.Equal(t, *fr.RMSE, *found.RMSE)
	assert.Equal(t, *fr.MAPE, *found.MAPE)
	assert.Equal(t, fr.Chart, found.Chart)

	require.Len(t, found.Points, len(fr.Points))
	for i, p := range found.Points {
		assert.True(t, p.Date.Equal(fr.Points[i].Date), "point %d date", i)
		assert.Equal(t, fr.Points[i].Value, p.Value)
		assert.Equal(t, fr.Points[i].Lower, p.Lower)
		assert.Equal(t, fr.Points[i].Upper, p.Upper)
	}
}

func TestRepository_ForecastWithoutMetrics(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	fr := testForecast("fc-nil", "ds-1", time.Now().UTC(), false)
	require.NoError(t, repo.CreateForecast(ctx, fr))

	found, err := repo.FindForecastByID(ctx, "fc-nil")
	require.NoError(t, err)
	assert.Nil(t, found.RMSE, "missing metrics must come back as nil, not zero")
	assert.Nil(t, found.MAPE)
}

func TestRepository_FindForecastByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.FindForecastByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestRepository_ListForecasts(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateForecast(ctx, testForecast("fc-old", "ds-1", base, true)))
	require.NoError(t, repo.CreateForecast(ctx, testForecast("fc-mid", "ds-1", base.Add(time.Hour), true)))
	require.NoError(t, repo.CreateForecast(ctx, testForecast("fc-new", "ds-1", base.Add(2*time.Hour), false)))

	list, err := repo.ListForecasts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "fc-new", list[0].ID, "newest first")
	assert.Equal(t, "fc-mid", list[1].ID)
	assert.Equal(t, "fc-old", list[2].ID)

	limited, err := repo.ListForecasts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "fc-new", limited[0].ID)
}
