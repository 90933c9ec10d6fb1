package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(url string) *CoinGeckoFetcher {
	f := NewCoinGeckoFetcher(url, "demo-key", "", 5*time.Second)
	f.RetryBase = time.Millisecond
	return f
}

func TestCoinGecko_FetchMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "true", r.URL.Query().Get("sparkline"))
		assert.Equal(t, "demo-key", r.Header.Get("x-cg-demo-api-key"))
		w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"x.png",
			 "current_price":45123.5,"price_change_percentage_24h":2.5,
			 "total_volume":28000000000,"market_cap":880000000000,
			 "last_updated":"2024-03-01T12:00:00.000Z",
			 "sparkline_in_7d":{"price":[1,2,3]}},
			{"id":"nulls","symbol":"nul","name":"Nulls","current_price":null,"price_change_percentage_24h":null}
		]`))
	}))
	defer srv.Close()

	coins, err := newTestFetcher(srv.URL).FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, 2)

	btc := coins[0]
	assert.Equal(t, "bitcoin", btc.ID)
	assert.Equal(t, 45123.5, btc.CurrentPrice)
	assert.Equal(t, 2.5, btc.PriceChangePct24h)
	assert.Equal(t, []float64{1, 2, 3}, btc.Sparkline)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), btc.LastUpdated.UTC())

	assert.Zero(t, coins[1].CurrentPrice)
	assert.Nil(t, coins[1].Sparkline)
}

func TestCoinGecko_FetchCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/ohlc", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		w.Write([]byte(`[
			[1700000300000, 101, 103, 100, 102],
			[1700000000000, 100, 102, 99, 101],
			[1700000600000, 1]
		]`))
	}))
	defer srv.Close()

	candles, err := newTestFetcher(srv.URL).FetchCandles(context.Background(), "bitcoin", 7)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	assert.Equal(t, time.UnixMilli(1700000000000), candles[0].Time)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 102.0, candles[0].High)
	assert.Equal(t, 99.0, candles[0].Low)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, 102.0, candles[1].Close)
}

func TestCoinGecko_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	coins, err := newTestFetcher(srv.URL).FetchMarkets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, coins)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCoinGecko_RetryCeiling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.URL).FetchCandles(context.Background(), "bitcoin", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Equal(t, int32(3), calls.Load())
}

func TestCoinGecko_ContextCancelStopsBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	f.RetryBase = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.FetchMarkets(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCoinGecko_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	f.MaxRetries = 1
	_, err := f.FetchMarkets(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
