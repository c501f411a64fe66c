// Package marketdata adapts the external data service behind the BarSource
// boundary. Retry and rate limiting live here, not in the classifiers.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tradestack/regime/models"
)

// Config tunes the client.
type Config struct {
	BaseURL         string
	APIKey          string
	RequestTimeout  time.Duration
	RateLimitPerSec int
	MaxRetryElapsed time.Duration
}

// Client fetches OHLCV bars over HTTP with rate limiting and bounded
// exponential-backoff retries. It implements models.BarSource.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        Config
	log        zerolog.Logger
}

// New creates a bar client.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = 5
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), cfg.RateLimitPerSec),
		cfg:        cfg,
		log:        log.With().Str("component", "marketdata").Logger(),
	}
}

// timeSeriesResponse mirrors the data service payload. Numeric fields arrive
// as strings.
type timeSeriesResponse struct {
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   int64   `json:"volume,string,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GetBars fetches bars for the instrument in ascending timestamp order. All
// failure modes (timeout, rate limit upstream, empty payload) surface as a
// *models.DataUnavailableError so classifiers can degrade uniformly.
func (c *Client) GetBars(ctx context.Context, instrument string, interval models.Interval, from, to time.Time) ([]models.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.DataUnavailableError{Instrument: instrument, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	q := url.Values{}
	q.Set("symbol", instrument)
	q.Set("interval", string(interval))
	q.Set("start_date", from.UTC().Format("2006-01-02 15:04:05"))
	q.Set("end_date", to.UTC().Format("2006-01-02 15:04:05"))
	q.Set("apikey", c.cfg.APIKey)
	endpoint := fmt.Sprintf("%s/time_series?%s", c.cfg.BaseURL, q.Encode())

	body, err := c.fetch(ctx, endpoint)
	if err != nil {
		return nil, &models.DataUnavailableError{Instrument: instrument, Err: err}
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &models.DataUnavailableError{Instrument: instrument, Err: fmt.Errorf("parsing payload: %w", err)}
	}
	if data.Status == "error" {
		return nil, &models.DataUnavailableError{Instrument: instrument, Err: fmt.Errorf("data service error: %s", data.Message)}
	}
	if len(data.Values) == 0 {
		return nil, &models.DataUnavailableError{Instrument: instrument, Err: fmt.Errorf("empty bar series")}
	}

	bars := make([]models.Bar, 0, len(data.Values))
	for _, v := range data.Values {
		ts, err := parseBarTime(v.Datetime)
		if err != nil {
			c.log.Warn().Str("instrument", instrument).Str("datetime", v.Datetime).Msg("Skipping bar with bad timestamp")
			continue
		}
		bars = append(bars, models.Bar{
			Timestamp: ts,
			Open:      v.Open,
			High:      v.High,
			Low:       v.Low,
			Close:     v.Close,
			Volume:    v.Volume,
		})
	}

	// Oldest first for indicator math.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })

	c.log.Debug().
		Str("instrument", instrument).
		Str("interval", string(interval)).
		Int("count", len(bars)).
		Msg("Fetched bars")
	return bars, nil
}

// fetch runs the HTTP request under the centralized retry policy: bounded
// exponential backoff, abandoned when the cycle context expires.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading body: %w", err)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.cfg.MaxRetryElapsed

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}
	return body, nil
}

func parseBarTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}
