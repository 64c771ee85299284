// Package yahoo provides prices from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the root of the chart API.
const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// Client fetches latest closing prices. It implements rebalance.PriceProvider.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
	// SymbolMap maps configuration symbols to Yahoo tickers, "SPX" to "^GSPC" for instance.
	SymbolMap map[string]string
}

// New returns a Client.
func New(log zerolog.Logger) *Client {
	return &Client{
		baseURL:   DefaultBaseURL,
		http:      &http.Client{Timeout: 30 * time.Second},
		log:       log.With().Str("provider", "yahoo").Logger(),
		SymbolMap: map[string]string{},
	}
}

func (c *Client) ticker(symbol string) string {
	if mapped, ok := c.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

const (
	closePath  = "$.chart.result[0].indicators.quote[0].close"
	marketPath = "$.chart.result[0].meta.regularMarketPrice"
	errorPath  = "$.chart.error.description"
)

// LatestClose returns the last daily close over the past five days, or the
// regular market price when no close is available yet.
func (c *Client) LatestClose(ctx context.Context, symbol string) (float64, error) {
	addr := c.baseURL + url.PathEscape(c.ticker(symbol)) + "?interval=1d&range=5d"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("yahoo read body: %w", err)
	}
	c.log.Debug().Str("symbol", symbol).Int("status", resp.StatusCode).Msg("chart")

	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		if resp.StatusCode != http.StatusOK {
			return 0, fmt.Errorf("yahoo %s: status %d", symbol, resp.StatusCode)
		}
		return 0, fmt.Errorf("yahoo decode %s: %w", symbol, err)
	}
	if desc, err := jsonpath.Get(errorPath, jobj); err == nil {
		if s, ok := desc.(string); ok && s != "" {
			return 0, fmt.Errorf("yahoo %s: %s", symbol, s)
		}
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("yahoo %s: status %d", symbol, resp.StatusCode)
	}

	if closes, err := jsonpath.Get(closePath, jobj); err == nil {
		if list, ok := closes.([]any); ok {
			// the bar of the current session has a null close.
			for i := len(list) - 1; i >= 0; i-- {
				if v, ok := list[i].(float64); ok {
					return v, nil
				}
			}
		}
	}
	jval, err := jsonpath.Get(marketPath, jobj)
	if err != nil {
		return 0, fmt.Errorf("yahoo %s: no price data", symbol)
	}
	v, ok := jval.(float64)
	if !ok {
		return 0, fmt.Errorf("yahoo %s: %s is not a number: %v", symbol, marketPath, jval)
	}
	c.log.Debug().Str("symbol", symbol).Float64("price", v).Msg("no close, using the regular market price")
	return v, nil
}
