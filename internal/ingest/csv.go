// Package ingest parses and validates uploaded OHLCV CSV files.
//
// Expected header: Date,Open,Higher,Lower,Last,Volume. Date and Last are
// required; the remaining columns are optional but recommended for display.
// Any malformed row fails the whole upload, there is no partial skip.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"stockForecast/internal/domain"
	"stockForecast/internal/ports"
)

const (
	colDate   = "Date"
	colOpen   = "Open"
	colHigh   = "Higher"
	colLow    = "Lower"
	colClose  = "Last"
	colVolume = "Volume"
)

// ParseCSV decodes raw CSV content into ordered price rows.
// Rows are sorted ascending by date; duplicate dates, unparsable values and
// negative numbers reject the upload with ports.ErrValidation.
func ParseCSV(content []byte) ([]domain.PriceRow, error) {
	// Strip a UTF-8 BOM if present; spreadsheet exports often carry one.
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: CSV file is empty", ports.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read CSV header: %v", ports.ErrValidation, err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colDate, colClose} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: missing required column: %s", ports.ErrValidation, required)
		}
	}

	var rows []domain.PriceRow
	line := 1 // Header was line 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ports.ErrValidation, line, err)
		}

		var row domain.PriceRow
		dateStr := strings.TrimSpace(record[idx[colDate]])
		row.Date, err = time.Parse(domain.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: unparsable date %q (want YYYY-MM-DD)", ports.ErrValidation, line, dateStr)
		}

		row.Close, err = parsePrice(record, idx, colClose, line)
		if err != nil {
			return nil, err
		}
		if row.Open, err = parseOptionalPrice(record, idx, colOpen, line); err != nil {
			return nil, err
		}
		if row.High, err = parseOptionalPrice(record, idx, colHigh, line); err != nil {
			return nil, err
		}
		if row.Low, err = parseOptionalPrice(record, idx, colLow, line); err != nil {
			return nil, err
		}
		if row.Volume, err = parseVolume(record, idx, line); err != nil {
			return nil, err
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: CSV file has no data rows", ports.ErrValidation)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	for i := 1; i < len(rows); i++ {
		if rows[i].Date.Equal(rows[i-1].Date) {
			return nil, fmt.Errorf("%w: duplicate date %s", ports.ErrValidation, rows[i].Date.Format(domain.DateLayout))
		}
	}

	return rows, nil
}

func parsePrice(record []string, idx map[string]int, col string, line int) (float64, error) {
	raw := strings.TrimSpace(record[idx[col]])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: row %d: non-numeric %s value %q", ports.ErrValidation, line, col, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: row %d: negative %s value %q", ports.ErrValidation, line, col, raw)
	}
	return v, nil
}

// parseOptionalPrice is lenient about the column's presence, strict about
// its content once present.
func parseOptionalPrice(record []string, idx map[string]int, col string, line int) (float64, error) {
	i, ok := idx[col]
	if !ok || i >= len(record) || strings.TrimSpace(record[i]) == "" {
		return 0, nil
	}
	return parsePrice(record, idx, col, line)
}

func parseVolume(record []string, idx map[string]int, line int) (int64, error) {
	i, ok := idx[colVolume]
	if !ok || i >= len(record) || strings.TrimSpace(record[i]) == "" {
		return 0, nil
	}
	raw := strings.TrimSpace(record[i])
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: row %d: non-integer Volume value %q", ports.ErrValidation, line, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: row %d: negative Volume value %q", ports.ErrValidation, line, raw)
	}
	return v, nil
}
