package recorder

import (
	"time"

	"CryptoPulse/internal/model"
)

// PredictionSnapshot holds one prediction tick for a coin.
type PredictionSnapshot struct {
	CoinID     string
	Price      float64
	Indicators model.Indicators
	Prediction model.Prediction
	RecordedAt time.Time
}

// OrderEvent records a filled simulated order and the resulting balance.
type OrderEvent struct {
	Order        model.Order
	BalanceAfter float64
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordPrediction(snap *PredictionSnapshot) error
	RecordOrder(evt *OrderEvent) error
	// RecentPredictions returns up to limit snapshots for coinID, newest first.
	RecentPredictions(coinID string, limit int) ([]PredictionSnapshot, error)
	Close() error
}
