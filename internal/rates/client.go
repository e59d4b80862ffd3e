// Package rates keeps the daily USD/KRW base rate up to date.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ryosukesatoh/daily-brief/internal/config"
)

// Fetcher returns the base rate for one currency on a given day. ok is false
// when the provider published nothing for that day.
type Fetcher interface {
	Fetch(ctx context.Context, day time.Time) (rate float64, ok bool, err error)
}

// EximClient reads rates from the Korea Eximbank exchange API.
type EximClient struct {
	apiKey   string
	endpoint string
	currency string
	client   *http.Client
	logger   arbor.ILogger
}

var _ Fetcher = (*EximClient)(nil)

func NewEximClient(cfg config.RatesConfig, logger arbor.ILogger) *EximClient {
	return &EximClient{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		currency: cfg.Currency,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

type eximItem struct {
	Result   int    `json:"result"`
	CurUnit  string `json:"cur_unit"`
	DealBasR string `json:"deal_bas_r"`
}

func (c *EximClient) Fetch(ctx context.Context, day time.Time) (float64, bool, error) {
	query := url.Values{}
	query.Set("authkey", c.apiKey)
	query.Set("searchdate", day.Format("20060102"))
	query.Set("data", "AP01")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return 0, false, fmt.Errorf("rates: failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("rates: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, false, fmt.Errorf("rates: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, false, fmt.Errorf("rates: failed to read response: %w", err)
	}

	var items []eximItem
	if err := json.Unmarshal(body, &items); err != nil {
		return 0, false, fmt.Errorf("rates: failed to parse response: %w", err)
	}

	for _, item := range items {
		if item.CurUnit != c.currency {
			continue
		}
		rate, err := strconv.ParseFloat(strings.ReplaceAll(item.DealBasR, ",", ""), 64)
		if err != nil {
			return 0, false, fmt.Errorf("rates: invalid rate %q: %w", item.DealBasR, err)
		}
		return rate, true, nil
	}

	c.logger.Debug().
		Str("date", day.Format("2006-01-02")).
		Int("items", len(items)).
		Msg("No rate published")
	return 0, false, nil
}
