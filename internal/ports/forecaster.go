package ports

import (
	"context"

	"stockForecast/internal/domain"
)

// Forecaster is the pluggable prediction capability. Implementations must be
// deterministic: identical history and horizon yield identical output.
type Forecaster interface {
	// FitAndPredict fits a model on the given history and returns horizon
	// future points with uncertainty bounds. Future dates are business days
	// strictly after the last history date.
	// Returns ErrModelFit (wrapped) when the history is too short to fit.
	FitAndPredict(ctx context.Context, history []domain.PriceRow, horizon int) ([]domain.ForecastPoint, error)

	// PredictAt fits a model on the given history and evaluates it at the
	// supplied dates. Used to score held-out actuals.
	PredictAt(ctx context.Context, history []domain.PriceRow, at []domain.PriceRow) ([]float64, error)
}
