package domain

import "time"

// PriceRow represents a single daily OHLCV record from an uploaded CSV.
type PriceRow struct {
	Date   time.Time // Trading day (midnight UTC)
	Open   float64   // Opening price
	High   float64   // Highest price of the day
	Low    float64   // Lowest price of the day
	Close  float64   // Closing price, the series the model is fit on
	Volume int64     // Traded volume
}

// Dataset is one uploaded, validated price history. Immutable once stored.
type Dataset struct {
	ID         string
	Symbol     string // Free-text label supplied with the upload
	Filename   string
	UploadedAt time.Time
	Rows       []PriceRow // Sorted ascending by date, dates strictly increasing
}

// DataPoints returns the number of rows in the dataset.
func (d *Dataset) DataPoints() int { return len(d.Rows) }

// StartDate returns the date of the earliest row.
func (d *Dataset) StartDate() time.Time {
	if len(d.Rows) == 0 {
		return time.Time{}
	}
	return d.Rows[0].Date
}

// EndDate returns the date of the latest row.
func (d *Dataset) EndDate() time.Time {
	if len(d.Rows) == 0 {
		return time.Time{}
	}
	return d.Rows[len(d.Rows)-1].Date
}

// Closes returns the closing-price series in date order.
func (d *Dataset) Closes() []float64 {
	out := make([]float64, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Close
	}
	return out
}
