package model

// Trend is the direction classification of recent prices.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Signal is the discrete trading recommendation.
type Signal string

const (
	SignalStrongBuy  Signal = "strong_buy"
	SignalBuy        Signal = "buy"
	SignalHold       Signal = "hold"
	SignalSell       Signal = "sell"
	SignalStrongSell Signal = "strong_sell"
)

// Prediction is the engine's latest next-price estimate.
type Prediction struct {
	NextPrice  float64 `json:"next_price"`
	Confidence int     `json:"confidence"` // 30 ~ 95
	Trend      Trend   `json:"trend"`
	Signal     Signal  `json:"signal"`
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}
