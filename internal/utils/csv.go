package utils

import (
	"encoding/csv"
	"os"
	"strconv"

	"stockForecast/internal/domain"
)

// WriteRowsToCSV writes price rows in the upload format the service accepts,
// so fetched sample data can be fed straight back through /api/upload-stock-data.
func WriteRowsToCSV(rows []domain.PriceRow, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"Date", "Open", "Higher", "Lower", "Last", "Volume"})

	for _, r := range rows {
		writer.Write([]string{
			r.Date.Format(domain.DateLayout),
			strconv.FormatFloat(r.Open, 'f', -1, 64),
			strconv.FormatFloat(r.High, 'f', -1, 64),
			strconv.FormatFloat(r.Low, 'f', -1, 64),
			strconv.FormatFloat(r.Close, 'f', -1, 64),
			strconv.FormatInt(r.Volume, 10),
		})
	}
	return writer.Error()
}
