package model

import "time"

// Candle represents a single OHLC bar as delivered by the market-data API.
type Candle struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Observation is one price/volume sample fed to the prediction engine.
type Observation struct {
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Coin is one row of the market listing.
type Coin struct {
	ID                string    `json:"id"`
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	Image             string    `json:"image"`
	CurrentPrice      float64   `json:"current_price"`
	PriceChangePct24h float64   `json:"price_change_percentage_24h"`
	TotalVolume       float64   `json:"total_volume"`
	MarketCap         float64   `json:"market_cap"`
	Sparkline         []float64 `json:"sparkline,omitempty"`
	LastUpdated       time.Time `json:"last_updated"`
}
