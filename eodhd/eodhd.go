// Package eodhd provides prices from eodhd.com end-of-day data.
//
// An API key is required, see https://eodhd.com/. Responses are cached on
// disk for the day.
package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// APIKeyEnv is the environment variable holding the API key.
const APIKeyEnv = "EODHD_API_KEY"

// DefaultBaseURL is the root of the EODHD API.
const DefaultBaseURL = "https://eodhd.com/api"

// Client fetches latest closing prices. It implements rebalance.PriceProvider.
type Client struct {
	apiKey  string
	baseURL string
	// Exchange is appended to symbols without one, eodhd wants "MCD.US".
	Exchange string
	// Lookback is the period searched for the latest bar.
	Lookback time.Duration
	http     *http.Client
	now      func() time.Time
	log      zerolog.Logger
}

// New returns a Client using a daily disk cache in os.TempDir().
func New(apiKey string, log zerolog.Logger) *Client {
	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		Exchange: "US",
		Lookback: 10 * 24 * time.Hour,
		now:      time.Now,
		log:      log.With().Str("provider", "eodhd").Logger(),
	}
	c.http = &http.Client{Transport: &diskCache{base: http.DefaultTransport, now: c.now, log: c.log}}
	return c
}

// ticker returns the eodhd ticker of symbol.
func (c *Client) ticker(symbol string) string {
	if strings.Contains(symbol, ".") || c.Exchange == "" {
		return symbol
	}
	return symbol + "." + c.Exchange
}

// LatestClose returns the close of the most recent end-of-day bar.
func (c *Client) LatestClose(ctx context.Context, symbol string) (float64, error) {
	// https://eodhd.com/api/eod/MCD.US?fmt=json&api_token=demo&from=2024-02-01
	// [{"date": "2024-02-13", "open": 675.066, "high": 684.219, "low": 648.659,
	//   "close": 668.445, "adjusted_close": 67.705, "volume": 0}, ...]
	from := c.now().Add(-c.Lookback).Format(time.DateOnly)
	q := url.Values{}
	q.Set("fmt", "json")
	q.Set("api_token", c.apiKey)
	q.Set("from", from)
	addr := fmt.Sprintf("%s/eod/%s?%s", c.baseURL, url.PathEscape(c.ticker(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return 0, err
	}
	type bar struct {
		Date  string          `json:"date"`
		Close decimal.Decimal `json:"close"`
	}
	content := make([]bar, 0)
	if err := jwget(c.http, req, &content); err != nil {
		return 0, err
	}
	if len(content) == 0 {
		return 0, fmt.Errorf("no price for %s since %s", symbol, from)
	}
	last := content[len(content)-1]
	c.log.Debug().Str("symbol", symbol).Str("date", last.Date).Str("close", last.Close.String()).Msg("latest close")
	return last.Close.InexactFloat64(), nil
}
