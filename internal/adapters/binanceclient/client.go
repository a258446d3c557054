// Package binanceclient adapts the Binance spot API to the ports.KlineSource
// interface. Only the historical kline read path is used; the service never
// trades.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stockForecast/internal/domain"
	"stockForecast/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

// Client implements the ports.KlineSource interface using the go-binance library.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey    string
	SecretKey string
	Logger    ports.Logger
}

// New creates a new Binance client adapter. API keys may be empty: kline
// history is a public endpoint.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	return &Client{
		spotClient: binance.NewClient(cfg.APIKey, cfg.SecretKey),
		logger:     cfg.Logger,
	}, nil
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1022: // Signature for this request is not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -2014, -2015: // API-key format invalid / bad key, IP or permissions
			mappedErr = ports.ErrAuthenticationFailed
		case -1121: // Invalid symbol
			mappedErr = ports.ErrValidation
		default:
			mappedErr = ports.ErrSourceUnavailable
		}
		finalErr := fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return finalErr
	}

	var finalErr error
	if errors.Is(err, context.DeadlineExceeded) {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	} else if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else if strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// GetDailyRows fetches all daily klines for a symbol between start and end,
// ascending by date.
func (c *Client) GetDailyRows(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceRow, error) {
	op := "GetDailyRows"
	var allRows []domain.PriceRow
	const maxLimit = 1000
	from := start

	for {
		klines, err := c.spotClient.NewKlinesService().
			Symbol(symbol).
			Interval("1d").
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			row, err := translateKline(bk)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate kline: %w", err), op)
			}
			allRows = append(allRows, row)
		}
		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime)
		if from.After(end) || len(klines) < maxLimit {
			break
		}
	}

	return allRows, nil
}

// translateKline converts a Binance kline into a domain price row. The open
// time is truncated to its UTC date; volume is truncated to a whole unit.
func translateKline(bk *binance.Kline) (domain.PriceRow, error) {
	var row domain.PriceRow
	var err error

	openTime := time.UnixMilli(bk.OpenTime).UTC()
	row.Date = time.Date(openTime.Year(), openTime.Month(), openTime.Day(), 0, 0, 0, 0, time.UTC)

	if row.Open, err = strconv.ParseFloat(bk.Open, 64); err != nil {
		return row, fmt.Errorf("invalid open price %q: %w", bk.Open, err)
	}
	if row.High, err = strconv.ParseFloat(bk.High, 64); err != nil {
		return row, fmt.Errorf("invalid high price %q: %w", bk.High, err)
	}
	if row.Low, err = strconv.ParseFloat(bk.Low, 64); err != nil {
		return row, fmt.Errorf("invalid low price %q: %w", bk.Low, err)
	}
	if row.Close, err = strconv.ParseFloat(bk.Close, 64); err != nil {
		return row, fmt.Errorf("invalid close price %q: %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return row, fmt.Errorf("invalid volume %q: %w", bk.Volume, err)
	}
	row.Volume = int64(vol)

	return row, nil
}
