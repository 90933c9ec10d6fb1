package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"CryptoPulse/internal/metrics"
	"CryptoPulse/internal/model"
)

// Source tells where a response came from.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
	SourceMock  Source = "mock"
)

const DefaultCacheTTL = 5 * time.Second

// Collector wraps a Fetcher with a short-lived market cache and falls back to
// cached or mock data when the fetcher fails. It is safe for concurrent use.
type Collector struct {
	Fetcher  Fetcher
	Fallback Fetcher
	TTL      time.Duration
	Metrics  *metrics.Metrics
	Now      func() time.Time

	mu       sync.Mutex
	cached   []model.Coin
	cachedAt time.Time
}

// NewCollector creates a new Collector. A nil fallback uses a MockFetcher.
func NewCollector(fetcher, fallback Fetcher, ttl time.Duration, m *metrics.Metrics) *Collector {
	if fallback == nil {
		fallback = NewMockFetcher(uint64(time.Now().UnixNano()))
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Collector{
		Fetcher:  fetcher,
		Fallback: fallback,
		TTL:      ttl,
		Metrics:  m,
		Now:      time.Now,
	}
}

// Markets returns the market listing. Fresh cache entries are served without
// a fetch; on fetch failure the stale cache wins over mock data.
func (c *Collector) Markets(ctx context.Context) ([]model.Coin, Source) {
	c.mu.Lock()
	cached, cachedAt := c.cached, c.cachedAt
	c.mu.Unlock()

	now := c.Now()
	if cached != nil && now.Sub(cachedAt) < c.TTL {
		return cloneCoins(cached), SourceCache
	}

	start := time.Now()
	coins, err := c.Fetcher.FetchMarkets(ctx)
	c.observe("markets", start, err)
	if err == nil {
		c.mu.Lock()
		c.cached, c.cachedAt = cloneCoins(coins), now
		c.mu.Unlock()
		return coins, SourceLive
	}

	if cached != nil {
		log.Warn().Err(err).Str("fetcher", c.Fetcher.Name()).Msg("market fetch failed, serving cached data")
		c.fallback("markets", SourceCache)
		return cloneCoins(cached), SourceCache
	}

	log.Warn().Err(err).Str("fetcher", c.Fetcher.Name()).Msg("market fetch failed, serving mock data")
	c.fallback("markets", SourceMock)
	mock, mockErr := c.Fallback.FetchMarkets(ctx)
	if mockErr != nil {
		log.Error().Err(mockErr).Msg("fallback market data unavailable")
		return nil, SourceMock
	}
	return mock, SourceMock
}

// Candles returns OHLC candles for coinID, falling back to generated candles.
func (c *Collector) Candles(ctx context.Context, coinID string, days int) ([]model.Candle, Source) {
	start := time.Now()
	candles, err := c.Fetcher.FetchCandles(ctx, coinID, days)
	c.observe("candles", start, err)
	if err == nil {
		return candles, SourceLive
	}

	log.Warn().Err(err).Str("coin", coinID).Msg("candle fetch failed, serving mock candles")
	c.fallback("candles", SourceMock)
	mock, mockErr := c.Fallback.FetchCandles(ctx, coinID, days)
	if mockErr != nil {
		log.Error().Err(mockErr).Msg("fallback candles unavailable")
		return nil, SourceMock
	}
	return mock, SourceMock
}

func (c *Collector) observe(op string, start time.Time, err error) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.FetchDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		c.Metrics.FetchErrors.WithLabelValues(op).Inc()
	}
}

func (c *Collector) fallback(op string, src Source) {
	if c.Metrics != nil {
		c.Metrics.FallbacksTotal.WithLabelValues(op, string(src)).Inc()
	}
}

func cloneCoins(coins []model.Coin) []model.Coin {
	return append([]model.Coin(nil), coins...)
}
