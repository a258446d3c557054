// Package forecast implements the default Forecaster: an additive model with
// a linear trend and weekday seasonality, fit in closed form. No randomness
// and no iterative solver, so identical input always yields identical output.
package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"stockForecast/internal/domain"
	"stockForecast/internal/ports"
)

// zScore is the multiplier on the residual deviation used for the
// uncertainty bounds (two-sided 95%).
const zScore = 1.96

// Config holds tuning parameters for the seasonal trend model.
type Config struct {
	MinHistoryRows int // Fewer rows than this fails the fit
}

// SeasonalTrend fits a linear trend on calendar-day offsets plus a mean
// residual offset per weekday. Implements ports.Forecaster.
type SeasonalTrend struct {
	cfg    Config
	logger ports.Logger
}

// New creates the default forecaster.
func New(cfg Config, logger ports.Logger) (*SeasonalTrend, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for forecaster")
	}
	if cfg.MinHistoryRows < 2 {
		return nil, fmt.Errorf("MinHistoryRows must be at least 2, got %d", cfg.MinHistoryRows)
	}
	return &SeasonalTrend{cfg: cfg, logger: logger}, nil
}

// fitted holds the closed-form fit of one history.
type fitted struct {
	origin    time.Time // Date of the first training row
	intercept float64
	slope     float64   // Per calendar day
	seasonal  [7]float64 // Mean residual by weekday, time.Weekday indexed
	sigma     float64   // Std deviation of the final residuals
	n         int
}

func (s *SeasonalTrend) fit(history []domain.PriceRow) (*fitted, error) {
	n := len(history)
	if n < s.cfg.MinHistoryRows {
		return nil, fmt.Errorf("%w: need at least %d rows, got %d", ports.ErrModelFit, s.cfg.MinHistoryRows, n)
	}

	m := &fitted{origin: history[0].Date, n: n}

	// Ordinary least squares on (days since origin, close).
	var sumX, sumY, sumXY, sumXX float64
	xs := make([]float64, n)
	for i, row := range history {
		x := row.Date.Sub(m.origin).Hours() / 24
		xs[i] = x
		y := row.Close
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		// Single distinct date cannot happen (dates strictly increase), but a
		// degenerate span still deserves a flat fit rather than a divide by zero.
		m.slope = 0
		m.intercept = sumY / fn
	} else {
		m.slope = (fn*sumXY - sumX*sumY) / denom
		m.intercept = (sumY - m.slope*sumX) / fn
	}

	// Weekday seasonality: mean trend residual per weekday.
	var seasonalSum [7]float64
	var seasonalCnt [7]int
	for i, row := range history {
		r := row.Close - (m.intercept + m.slope*xs[i])
		wd := row.Date.Weekday()
		seasonalSum[wd] += r
		seasonalCnt[wd]++
	}
	for wd := range m.seasonal {
		if seasonalCnt[wd] > 0 {
			m.seasonal[wd] = seasonalSum[wd] / float64(seasonalCnt[wd])
		}
	}

	// Residual deviation after trend and seasonality.
	var sq float64
	for i, row := range history {
		r := row.Close - (m.intercept + m.slope*xs[i] + m.seasonal[row.Date.Weekday()])
		sq += r * r
	}
	m.sigma = math.Sqrt(sq / fn)

	return m, nil
}

// at evaluates the fitted model at a date.
func (m *fitted) at(date time.Time) float64 {
	x := date.Sub(m.origin).Hours() / 24
	return m.intercept + m.slope*x + m.seasonal[date.Weekday()]
}

// FitAndPredict fits on the history and produces horizon business-day points
// strictly after the last history date, each with symmetric bounds that widen
// with distance from the training window.
func (s *SeasonalTrend) FitAndPredict(ctx context.Context, history []domain.PriceRow, horizon int) ([]domain.ForecastPoint, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", ports.ErrModelFit, horizon)
	}
	m, err := s.fit(history)
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "Model fitted", map[string]interface{}{
		"rows":  m.n,
		"slope": m.slope,
		"sigma": m.sigma,
	})

	points := make([]domain.ForecastPoint, 0, horizon)
	date := history[len(history)-1].Date
	for step := 1; step <= horizon; step++ {
		date = NextBusinessDay(date)
		value := m.at(date)
		width := zScore * m.sigma * math.Sqrt(1+float64(step)/float64(m.n))
		points = append(points, domain.ForecastPoint{
			Date:  date,
			Value: value,
			Lower: value - width,
			Upper: value + width,
		})
	}
	return points, nil
}

// PredictAt fits on the history and evaluates the model at the dates of the
// supplied rows. Used to score a held-out validation tail.
func (s *SeasonalTrend) PredictAt(ctx context.Context, history []domain.PriceRow, at []domain.PriceRow) ([]float64, error) {
	m, err := s.fit(history)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(at))
	for i, row := range at {
		out[i] = m.at(row.Date)
	}
	return out, nil
}

// NextBusinessDay returns the first Monday-Friday date after t.
func NextBusinessDay(t time.Time) time.Time {
	t = t.AddDate(0, 0, 1)
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
