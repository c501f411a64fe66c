package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradestack/regime/models"
)

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:         baseURL,
		APIKey:          "test-key",
		RequestTimeout:  2 * time.Second,
		RateLimitPerSec: 100,
		MaxRetryElapsed: 100 * time.Millisecond,
	}, zerolog.Nop())
}

func TestGetBarsParsesAndSortsAscending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_series", r.URL.Path)
		assert.Equal(t, "NIFTY", r.URL.Query().Get("symbol"))
		assert.Equal(t, "5min", r.URL.Query().Get("interval"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		// Newest first, as the service returns them.
		w.Write([]byte(`{
			"values": [
				{"datetime": "2024-06-03 09:25:00", "open": "101.0", "high": "102.0", "low": "100.5", "close": "101.5", "volume": "1200"},
				{"datetime": "2024-06-03 09:20:00", "open": "100.5", "high": "101.5", "low": "100.0", "close": "101.0", "volume": "900"},
				{"datetime": "2024-06-03 09:15:00", "open": "100.0", "high": "101.0", "low": "99.5", "close": "100.5", "volume": "1500"}
			],
			"status": "ok"
		}`))
	}))
	defer srv.Close()

	bars, err := newTestClient(srv.URL).GetBars(context.Background(), "NIFTY", models.Interval5Min, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)

	require.Len(t, bars, 3)
	assert.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
	assert.True(t, bars[1].Timestamp.Before(bars[2].Timestamp))
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, 101.5, bars[2].Close)
	assert.Equal(t, int64(1500), bars[0].Volume)
}

func TestGetBarsServiceErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "error", "message": "symbol not found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetBars(context.Background(), "BOGUS", models.Interval5Min, time.Now().Add(-time.Hour), time.Now())

	var unavailable *models.DataUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "BOGUS", unavailable.Instrument)
	assert.Contains(t, unavailable.Error(), "symbol not found")
}

func TestGetBarsEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"values": [], "status": "ok"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetBars(context.Background(), "NIFTY", models.Interval5Min, time.Now().Add(-time.Hour), time.Now())

	var unavailable *models.DataUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestGetBarsRetriesTransientFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{
			"values": [{"datetime": "2024-06-03 09:15:00", "open": "100.0", "high": "101.0", "low": "99.5", "close": "100.5", "volume": "100"}],
			"status": "ok"
		}`))
	}))
	defer srv.Close()

	client := New(Config{
		BaseURL:         srv.URL,
		APIKey:          "test-key",
		RequestTimeout:  2 * time.Second,
		RateLimitPerSec: 100,
		MaxRetryElapsed: 10 * time.Second,
	}, zerolog.Nop())

	bars, err := client.GetBars(context.Background(), "NIFTY", models.Interval5Min, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.GreaterOrEqual(t, hits, 3)
}

func TestGetBarsGivesUpAfterRetryBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetBars(context.Background(), "NIFTY", models.Interval5Min, time.Now().Add(-time.Hour), time.Now())

	var unavailable *models.DataUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestGetBarsSkipsMalformedTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{
			"values": [
				{"datetime": "not-a-time", "open": "1", "high": "1", "low": "1", "close": "1", "volume": "1"},
				{"datetime": "2024-06-03 09:15:00", "open": "100.0", "high": "101.0", "low": "99.5", "close": "100.5", "volume": "100"}
			],
			"status": "ok"
		}`))
	}))
	defer srv.Close()

	bars, err := newTestClient(srv.URL).GetBars(context.Background(), "NIFTY", models.Interval5Min, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 100.5, bars[0].Close)
}
