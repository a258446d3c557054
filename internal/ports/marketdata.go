package ports

import (
	"context"
	"time"

	"stockForecast/internal/domain"
)

// KlineSource provides historical daily candles for building sample upload
// files. Read-only: the service never places orders or mutates remote state.
type KlineSource interface {
	// GetDailyRows fetches daily OHLCV rows for a symbol between start and
	// end, ascending by date.
	GetDailyRows(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceRow, error)
}
