// Package feed talks to the external quote provider. It hands back raw
// records exactly as shipped on the wire; making them trustworthy is the
// ingestion pipeline's job.
package feed

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

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/jaychengg/antig/internal/observ"
	"github.com/jaychengg/antig/internal/schema"
)

// ClientConfig configures the time-series client.
type ClientConfig struct {
	BaseURL    string         `yaml:"base_url"`
	TimeoutMs  int            `yaml:"timeout_ms"`
	MaxRetryMs int            `yaml:"max_retry_ms"`
	Governor   GovernorConfig `yaml:"governor"`
}

func (c ClientConfig) withDefaults() ClientConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.finazon.io/latest/time_series"
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = 10000
	}
	if c.MaxRetryMs == 0 {
		c.MaxRetryMs = 15000
	}
	return c
}

// Client fetches daily OHLCV series. Network retries here are transport
// concerns, bounded by MaxRetryMs; they are unrelated to the pipeline's
// single audit-failure refetch.
type Client struct {
	apiKey     string
	cfg        ClientConfig
	httpClient *http.Client
	governor   *Governor
	logger     zerolog.Logger
}

func NewClient(apiKey string, cfg ClientConfig, logger zerolog.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		apiKey:     apiKey,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
		governor:   NewGovernor(cfg.Governor),
		logger:     logger,
	}
}

// Governor exposes the client's request budget state.
func (c *Client) Governor() *Governor { return c.governor }

// rangeDays pads each named range so moving averages near the window
// start still have history behind them.
var rangeDays = map[string]int{
	"1mo": 35,
	"3mo": 95,
	"6mo": 185,
	"1y":  370,
}

type seriesEnvelope struct {
	Data []schema.RawRecord `json:"data"`
}

// FetchSeries requests one symbol's bars for a named range ("1mo", "3mo",
// "6mo", "1y"). Records come back with the provider's short column keys
// (t/o/h/l/c/v); the schema reconciler resolves those.
func (c *Client) FetchSeries(ctx context.Context, symbol, rng string) ([]schema.RawRecord, error) {
	if ok, reason := c.governor.Allow(symbol); !ok {
		return nil, NewBudgetError(symbol, reason)
	}

	days, ok := rangeDays[rng]
	if !ok {
		days = rangeDays["1mo"]
	}
	startAt := time.Now().UTC().AddDate(0, 0, -days).Unix()

	q := url.Values{}
	q.Set("ticker", strings.ToUpper(symbol))
	q.Set("interval", "1d")
	q.Set("dataset", datasetFor(symbol))
	q.Set("start_at", strconv.FormatInt(startAt, 10))
	q.Set("page_size", "1000")
	q.Set("apikey", c.apiKey)
	reqURL := c.cfg.BaseURL + "?" + q.Encode()

	c.logger.Debug().Str("symbol", symbol).Str("range", rng).Msg("fetching series")

	body, err := c.fetch(ctx, symbol, reqURL)
	if err != nil {
		observ.IncCounter("feed_fetch_errors_total", map[string]string{"symbol": symbol})
		return nil, err
	}

	var env seriesEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, NewBadPayloadError(symbol, "undecodable response", err)
	}

	observ.IncCounter("feed_fetch_total", map[string]string{"symbol": symbol})
	c.logger.Debug().Str("symbol", symbol).Int("records", len(env.Data)).Msg("fetched series")
	return env.Data, nil
}

// fetch performs the HTTP round trip with bounded exponential backoff on
// transient failures (network errors, 429, 5xx). Other statuses fail fast.
func (c *Client) fetch(ctx context.Context, symbol, reqURL string) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(NewProviderError(symbol, "building request", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return NewNetworkError(symbol, "request failed", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return NewNetworkError(symbol, "reading response", err)
			}
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			return NewRateLimitError(symbol, "provider returned 429")
		case resp.StatusCode >= 500:
			return NewProviderError(symbol, fmt.Sprintf("provider returned %d", resp.StatusCode), nil)
		default:
			return backoff.Permanent(NewProviderError(symbol, fmt.Sprintf("provider returned %d", resp.StatusCode), nil))
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = time.Duration(c.cfg.MaxRetryMs) * time.Millisecond

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// datasetFor mirrors the provider's dataset split: dash-suffixed USD
// pairs live in the crypto dataset.
func datasetFor(symbol string) string {
	if strings.Contains(symbol, "-") && strings.HasSuffix(symbol, "USD") {
		return "crypto_daily"
	}
	return "us_stocks_daily"
}
