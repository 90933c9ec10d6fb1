package collector

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"CryptoPulse/internal/model"
)

const (
	mockCandleCount    = 50
	mockCandleInterval = 5 * time.Minute
	mockSparklineLen   = 168
)

// MockFetcher returns generated data for development, testing and as the
// fallback when the live API is unavailable.
type MockFetcher struct {
	// Coins and Candles, when set, are returned verbatim.
	Coins   []model.Coin
	Candles []model.Candle
	Now     func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockFetcher creates a mock whose random walk is reproducible for a seed.
func NewMockFetcher(seed uint64) *MockFetcher {
	return &MockFetcher{
		Now: time.Now,
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) float() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rnd == nil {
		m.rnd = rand.New(rand.NewPCG(1, 2))
	}
	return m.rnd.Float64()
}

func (m *MockFetcher) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *MockFetcher) FetchMarkets(_ context.Context) ([]model.Coin, error) {
	if m.Coins != nil {
		return append([]model.Coin(nil), m.Coins...), nil
	}
	now := m.now()
	return []model.Coin{
		m.mockCoin("bitcoin", "btc", "Bitcoin", "https://assets.coingecko.com/coins/images/1/small/bitcoin.png",
			45000, 1000, 2000, 28e9, 880e9, now),
		m.mockCoin("ethereum", "eth", "Ethereum", "https://assets.coingecko.com/coins/images/279/small/ethereum.png",
			3000, 100, 200, 15e9, 360e9, now),
	}, nil
}

func (m *MockFetcher) mockCoin(id, symbol, name, image string, base, spread, sparkSpread, volume, marketCap float64, now time.Time) model.Coin {
	spark := make([]float64, mockSparklineLen)
	for i := range spark {
		spark[i] = base + m.float()*sparkSpread
	}
	return model.Coin{
		ID:                id,
		Symbol:            symbol,
		Name:              name,
		Image:             image,
		CurrentPrice:      base + m.float()*spread,
		PriceChangePct24h: m.float()*10 - 5,
		TotalVolume:       volume,
		MarketCap:         marketCap,
		Sparkline:         spark,
		LastUpdated:       now,
	}
}

func (m *MockFetcher) FetchCandles(_ context.Context, _ string, _ int) ([]model.Candle, error) {
	if m.Candles != nil {
		return append([]model.Candle(nil), m.Candles...), nil
	}
	return m.randomWalk(45000, mockCandleCount), nil
}

// randomWalk generates count candles at 5-minute spacing ending now, each
// opening at the previous close.
func (m *MockFetcher) randomWalk(base float64, count int) []model.Candle {
	now := m.now()
	candles := make([]model.Candle, count)
	price := base
	for i := 0; i < count; i++ {
		open := price
		next := open + (m.float()-0.5)*500
		candles[i] = model.Candle{
			Time:  now.Add(-time.Duration(count-i) * mockCandleInterval),
			Open:  open,
			High:  max(open, next) + m.float()*100,
			Low:   min(open, next) - m.float()*100,
			Close: next,
		}
		price = next
	}
	return candles
}
