package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seriesBody = `{"data":[
	{"t":1704067200,"o":100,"h":110,"l":95,"c":105,"v":10000},
	{"t":1704153600,"o":105,"h":112,"l":101,"c":110,"v":12000}
]}`

func testClient(baseURL string) *Client {
	return NewClient("test-key", ClientConfig{
		BaseURL:    baseURL,
		TimeoutMs:  2000,
		MaxRetryMs: 10000,
		Governor: GovernorConfig{
			DailyRequestCap:   100,
			PerSymbolDailyCap: 100,
			RequestsPerMinute: 600000,
			Burst:             1000,
		},
	}, zerolog.Nop())
}

func TestFetchSeries_MapsWirePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NVDA", r.URL.Query().Get("ticker"))
		assert.Equal(t, "us_stocks_daily", r.URL.Query().Get("dataset"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		w.Write([]byte(seriesBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	records, err := c.FetchSeries(context.Background(), "NVDA", "3mo")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 105.0, records[0]["c"])

	assert.Equal(t, 1, c.Governor().Status().Used)
}

func TestFetchSeries_CryptoDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "crypto_daily", r.URL.Query().Get("dataset"))
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	records, err := c.FetchSeries(context.Background(), "BTC-USD", "1mo")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchSeries_RetriesTransientFailures(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(seriesBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	records, err := c.FetchSeries(context.Background(), "NVDA", "3mo")
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&attempts), int32(3))
}

func TestFetchSeries_ClientErrorFailsFast(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchSeries(context.Background(), "NVDA", "3mo")
	require.Error(t, err)

	var ferr *FeedError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "provider_error", ferr.Type)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "4xx must not be retried")
}

func TestFetchSeries_BudgetExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewClient("k", ClientConfig{
		BaseURL: srv.URL,
		Governor: GovernorConfig{
			DailyRequestCap:   1,
			PerSymbolDailyCap: 1,
			RequestsPerMinute: 600000,
			Burst:             1000,
		},
	}, zerolog.Nop())

	_, err := c.FetchSeries(context.Background(), "NVDA", "1mo")
	require.NoError(t, err)

	_, err = c.FetchSeries(context.Background(), "TSM", "1mo")
	require.Error(t, err)

	var ferr *FeedError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "budget", ferr.Type)
}

func TestFetchSeries_BadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchSeries(context.Background(), "NVDA", "3mo")
	require.Error(t, err)

	var ferr *FeedError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, "bad_payload", ferr.Type)
}
