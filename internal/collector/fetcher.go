package collector

import (
	"context"

	"CryptoPulse/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchMarkets(ctx context.Context) ([]model.Coin, error)
	FetchCandles(ctx context.Context, coinID string, days int) ([]model.Candle, error)
	Name() string
}
