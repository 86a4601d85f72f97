package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/TruWeaveTrader/pairs-gym/internal/config"
	"github.com/TruWeaveTrader/pairs-gym/internal/models"
)

// maxPageSize is the largest page the bars endpoint serves
const maxPageSize = 10000

// Client is a thin wrapper around the Alpaca market data REST API
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	dataURL    string
}

// NewClient creates a new Alpaca client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		dataURL: cfg.AlpacaDataURL,
	}
}

// doRequest performs a GET request with auth headers
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("APCA-API-KEY-ID", c.cfg.AlpacaKeyID)
	req.Header.Set("APCA-API-SECRET-KEY", c.cfg.AlpacaSecretKey)
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// parseResponse reads and unmarshals the response
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

// GetBars retrieves historical bars in [start, end], following page tokens until
// the range is exhausted or limit bars were collected. limit <= 0 means no limit.
func (c *Client) GetBars(ctx context.Context, symbol string, timeframe string, start, end time.Time, limit int) ([]*models.Bar, error) {
	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("timeframe", timeframe)
	params.Set("adjustment", "all")
	if c.cfg.AlpacaFeed != "" {
		params.Set("feed", c.cfg.AlpacaFeed)
	}
	if !start.IsZero() {
		params.Set("start", start.Format(time.RFC3339))
	}
	if !end.IsZero() {
		params.Set("end", end.Format(time.RFC3339))
	}

	var bars []*models.Bar
	for {
		pageSize := maxPageSize
		if limit > 0 && limit-len(bars) < pageSize {
			pageSize = limit - len(bars)
		}
		params.Set("limit", strconv.Itoa(pageSize))

		url := fmt.Sprintf("%s/v2/stocks/bars?%s", c.dataURL, params.Encode())
		resp, err := c.doRequest(ctx, url)
		if err != nil {
			return nil, err
		}

		var result struct {
			Bars          map[string][]*models.Bar `json:"bars"`
			NextPageToken *string                  `json:"next_page_token"`
		}
		if err := parseResponse(resp, &result); err != nil {
			return nil, fmt.Errorf("bars for %s: %w", symbol, err)
		}

		bars = append(bars, result.Bars[symbol]...)
		if limit > 0 && len(bars) >= limit {
			return bars[:limit], nil
		}
		if result.NextPageToken == nil || *result.NextPageToken == "" {
			return bars, nil
		}
		params.Set("page_token", *result.NextPageToken)
	}
}
