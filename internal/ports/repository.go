package ports

import (
	"context"

	"stockForecast/internal/domain"
)

// DatasetRepository defines the interface for storing and retrieving uploaded
// price histories. Datasets are immutable: there is no update or delete.
type DatasetRepository interface {
	// CreateDataset saves a new dataset together with all of its rows.
	CreateDataset(ctx context.Context, ds *domain.Dataset) error
	// FindDatasetByID retrieves a dataset and its rows by id.
	// Returns ErrNotFound (wrapped) if no such dataset exists.
	FindDatasetByID(ctx context.Context, id string) (*domain.Dataset, error)
}

// ForecastRepository defines the interface for storing and retrieving
// forecast results. Results are immutable once created.
type ForecastRepository interface {
	// CreateForecast saves a new forecast result and its points.
	CreateForecast(ctx context.Context, fr *domain.ForecastResult) error
	// FindForecastByID retrieves a forecast result by id.
	// Returns ErrNotFound (wrapped) if no such forecast exists.
	FindForecastByID(ctx context.Context, id string) (*domain.ForecastResult, error)
	// ListForecasts retrieves the most recent forecast results, newest first,
	// up to a limit. Chart payloads are included.
	ListForecasts(ctx context.Context, limit int) ([]*domain.ForecastResult, error)
}
