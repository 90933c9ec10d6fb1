package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockFetcher_Markets(t *testing.T) {
	m := NewMockFetcher(1)
	coins, err := m.FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, 2)

	btc := coins[0]
	assert.Equal(t, "bitcoin", btc.ID)
	assert.GreaterOrEqual(t, btc.CurrentPrice, 45000.0)
	assert.Less(t, btc.CurrentPrice, 46000.0)
	assert.GreaterOrEqual(t, btc.PriceChangePct24h, -5.0)
	assert.Less(t, btc.PriceChangePct24h, 5.0)
	assert.Len(t, btc.Sparkline, mockSparklineLen)
}

func TestMockFetcher_SeedIsReproducible(t *testing.T) {
	a, _ := NewMockFetcher(42).FetchMarkets(context.Background())
	b, _ := NewMockFetcher(42).FetchMarkets(context.Background())
	assert.Equal(t, a[0].CurrentPrice, b[0].CurrentPrice)
	assert.Equal(t, a[1].Sparkline, b[1].Sparkline)
}

func TestMockFetcher_CandlesAreContinuousWalk(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMockFetcher(3)
	m.Now = func() time.Time { return now }

	candles, err := m.FetchCandles(context.Background(), "bitcoin", 1)
	require.NoError(t, err)
	require.Len(t, candles, mockCandleCount)

	assert.Equal(t, 45000.0, candles[0].Open)
	assert.Equal(t, now.Add(-50*mockCandleInterval), candles[0].Time)
	assert.Equal(t, now.Add(-mockCandleInterval), candles[len(candles)-1].Time)
	for i, c := range candles {
		assert.GreaterOrEqual(t, c.High, max(c.Open, c.Close))
		assert.LessOrEqual(t, c.Low, min(c.Open, c.Close))
		if i > 0 {
			assert.Equal(t, candles[i-1].Close, c.Open)
		}
	}
}
