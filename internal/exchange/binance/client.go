// Package binance fetches klines from the Binance spot REST API.
package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"momentum-signalv1/internal/exchange"
	"momentum-signalv1/internal/model"
)

// DefaultBaseURL is the public spot API.
const DefaultBaseURL = "https://api.binance.com"

// Client implements model.KlineFetcher.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
// Per-request deadlines come from the caller's context.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var _ model.KlineFetcher = (*Client)(nil)

// FetchKlines returns up to limit candles for symbol/interval, oldest first.
// Every failure is a *exchange.FetchError.
func (c *Client) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	apiURL := c.baseURL + "/api/v3/klines?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, &exchange.FetchError{Op: "request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &exchange.FetchError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &exchange.FetchError{
			Op:         "status",
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(body))),
		}
	}

	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, &exchange.FetchError{Op: "decode", Err: err}
	}

	candles := make([]model.Candle, 0, len(rows))
	for i, row := range rows {
		cdl, err := parseKline(row)
		if err != nil {
			return nil, &exchange.FetchError{Op: "decode", Err: fmt.Errorf("kline %d: %w", i, err)}
		}
		if err := cdl.Validate(); err != nil {
			return nil, &exchange.FetchError{Op: "validate", Err: fmt.Errorf("kline %d: %w", i, err)}
		}
		candles = append(candles, cdl)
	}
	return candles, nil
}

// parseKline decodes one row:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, trades, ...]
func parseKline(row []json.RawMessage) (model.Candle, error) {
	if len(row) < 7 {
		return model.Candle{}, fmt.Errorf("expected at least 7 fields, got %d", len(row))
	}

	var openMs, closeMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return model.Candle{}, fmt.Errorf("open time: %w", err)
	}
	if err := json.Unmarshal(row[6], &closeMs); err != nil {
		return model.Candle{}, fmt.Errorf("close time: %w", err)
	}

	var vals [5]float64
	names := [5]string{"open", "high", "low", "close", "volume"}
	for i := range vals {
		v, err := parseNumber(row[i+1])
		if err != nil {
			return model.Candle{}, fmt.Errorf("%s: %w", names[i], err)
		}
		vals[i] = v
	}

	return model.Candle{
		OpenTime:  time.UnixMilli(openMs).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
		CloseTime: time.UnixMilli(closeMs).UTC(),
	}, nil
}

// parseNumber accepts Binance's quoted decimal strings.
func parseNumber(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
