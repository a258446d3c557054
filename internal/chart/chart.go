// Package chart shapes stored records into display payloads and the
// downloadable forecast CSV.
package chart

import (
	"encoding/csv"
	"io"
	"strconv"

	"stockForecast/internal/domain"
)

// PointType tags a unified chart point as history or prediction.
type PointType string

const (
	TypeHistorical PointType = "historical"
	TypeForecast   PointType = "forecast"
)

// Point is one entry of the unified display series. Fields that do not apply
// to the point's type stay nil so the display layer can tell "no value" from
// zero.
type Point struct {
	Date       string    `json:"date"`
	Type       PointType `json:"type"`
	Actual     *float64  `json:"actual,omitempty"`
	Forecast   *float64  `json:"forecast,omitempty"`
	LowerBound *float64  `json:"lower_bound,omitempty"`
	UpperBound *float64  `json:"upper_bound,omitempty"`
}

// Build produces the chart payload for a dataset and its forecast points:
// the full history and the date-disjoint future horizon.
func Build(ds *domain.Dataset, points []domain.ForecastPoint) domain.ChartData {
	historical := domain.HistoricalSeries{
		Dates:  make([]string, len(ds.Rows)),
		Actual: make([]float64, len(ds.Rows)),
	}
	for i, row := range ds.Rows {
		historical.Dates[i] = row.Date.Format(domain.DateLayout)
		historical.Actual[i] = row.Close
	}

	forecast := domain.ForecastSeries{
		Dates:      make([]string, len(points)),
		Forecast:   make([]float64, len(points)),
		UpperBound: make([]float64, len(points)),
		LowerBound: make([]float64, len(points)),
	}
	for i, p := range points {
		forecast.Dates[i] = p.Date.Format(domain.DateLayout)
		forecast.Forecast[i] = p.Value
		forecast.UpperBound[i] = p.Upper
		forecast.LowerBound[i] = p.Lower
	}

	return domain.ChartData{Historical: historical, Forecast: forecast, Symbol: ds.Symbol}
}

// Assemble merges the two chart series into one time-ordered list:
// historical points first, then forecast points, order preserved within
// each group.
func Assemble(h domain.HistoricalSeries, f domain.ForecastSeries) []Point {
	out := make([]Point, 0, len(h.Dates)+len(f.Dates))
	for i := range h.Dates {
		v := h.Actual[i]
		out = append(out, Point{Date: h.Dates[i], Type: TypeHistorical, Actual: &v})
	}
	for i := range f.Dates {
		fc, lo, up := f.Forecast[i], f.LowerBound[i], f.UpperBound[i]
		out = append(out, Point{
			Date:       f.Dates[i],
			Type:       TypeForecast,
			Forecast:   &fc,
			LowerBound: &lo,
			UpperBound: &up,
		})
	}
	return out
}

// WriteForecastCSV writes the downloadable forecast, one row per forecast
// day, date-ascending. Floats use the shortest exact representation so a
// re-parse reproduces the stored values.
func WriteForecastCSV(w io.Writer, points []domain.ForecastPoint) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Date", "Forecast", "Lower_Bound", "Upper_Bound"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{
			p.Date.Format(domain.DateLayout),
			strconv.FormatFloat(p.Value, 'f', -1, 64),
			strconv.FormatFloat(p.Lower, 'f', -1, 64),
			strconv.FormatFloat(p.Upper, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
