package domain

import "time"

// DateLayout is the wire format for all dates in chart payloads and CSV files.
const DateLayout = "2006-01-02"

// ForecastPoint is a single predicted future value with uncertainty bounds.
// Invariant: Lower <= Value <= Upper.
type ForecastPoint struct {
	Date  time.Time
	Value float64
	Lower float64
	Upper float64
}

// HistoricalSeries is the chart series covering the full input history.
type HistoricalSeries struct {
	Dates  []string  `json:"dates"`
	Actual []float64 `json:"actual"`
}

// ForecastSeries is the chart series covering only the future horizon.
// Dates are strictly after the last historical date.
type ForecastSeries struct {
	Dates      []string  `json:"dates"`
	Forecast   []float64 `json:"forecast"`
	UpperBound []float64 `json:"upper_bound"`
	LowerBound []float64 `json:"lower_bound"`
}

// ChartData is the payload the dashboard renders. The two series never
// overlap in dates.
type ChartData struct {
	Historical HistoricalSeries `json:"historical"`
	Forecast   ForecastSeries   `json:"forecast"`
	Symbol     string           `json:"symbol"`
}

// ForecastResult is one prediction run's output for a dataset and horizon.
// Immutable once stored. RMSE/MAPE are nil when the history was too short
// to hold out a validation tail.
type ForecastResult struct {
	ID           string
	DatasetID    string
	ForecastDays int
	CreatedAt    time.Time
	RMSE         *float64
	MAPE         *float64
	Points       []ForecastPoint // Horizon length, dates strictly increasing
	Chart        ChartData
}
