package strategy

import (
	"math/rand/v2"
	"time"

	"CryptoPulse/internal/calculator"
	"CryptoPulse/internal/model"
	"CryptoPulse/internal/series"
)

const (
	// HistoryCapacity is the number of observations retained by the engine.
	HistoryCapacity = 100
	// MinHistory is the number of observations required before anything is computed.
	MinHistory = 10

	fastPeriod  = 5
	slowPeriod  = 20
	trendWindow = 10
)

// Jitter supplies uniform values in [0, 1) for the confidence stylization.
type Jitter interface {
	Float64() float64
}

type globalJitter struct{}

func (globalJitter) Float64() float64 { return rand.Float64() }

// Engine owns the rolling series and the latest indicator/prediction snapshot.
// It is not safe for concurrent use; a single goroutine must drive it.
type Engine struct {
	series     *series.Series
	jitter     Jitter
	now        func() time.Time
	indicators model.Indicators
	prediction model.Prediction
	ready      bool
}

// NewEngine creates an engine with the given history capacity.
// A nil jitter falls back to the process-wide random source.
func NewEngine(capacity int, jitter Jitter) *Engine {
	if jitter == nil {
		jitter = globalJitter{}
	}
	return &Engine{
		series: series.New(capacity),
		jitter: jitter,
		now:    time.Now,
	}
}

// SetClock overrides the timestamp source for recorded observations.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// AddDataPoint records a new sample and recomputes the snapshot once the
// minimum history is available. Only a *series.ValidationError is ever returned.
func (e *Engine) AddDataPoint(price, volume float64) error {
	if err := e.series.Append(model.Observation{Price: price, Volume: volume, Timestamp: e.now()}); err != nil {
		return err
	}
	if e.series.Len() < MinHistory {
		return nil
	}
	e.indicators, e.prediction = Evaluate(e.series.Prices(), e.series.Volumes(), e.jitter)
	e.ready = true
	return nil
}

// Indicators returns the latest indicators; false until the history gate is crossed.
func (e *Engine) Indicators() (model.Indicators, bool) {
	return e.indicators, e.ready
}

// Prediction returns the latest prediction; false until the history gate is crossed.
func (e *Engine) Prediction() (model.Prediction, bool) {
	return e.prediction, e.ready
}

// Len returns the number of retained observations.
func (e *Engine) Len() int { return e.series.Len() }

// Observations returns a copy of the retained history.
func (e *Engine) Observations() []model.Observation { return e.series.Observations() }

// Evaluate computes indicators and the prediction from a price/volume snapshot.
// Callers must supply at least MinHistory prices.
func Evaluate(prices, volumes []float64, jitter Jitter) (model.Indicators, model.Prediction) {
	ind := computeIndicators(prices)

	var pred model.Prediction
	pred.Support, _ = calculator.CalculateSupport(prices)
	pred.Resistance, _ = calculator.CalculateResistance(prices)

	pred.NextPrice = predictNextPrice(prices, volumes, ind)
	pred.Trend = detectTrend(prices)
	pred.Confidence = calculateConfidence(ind, pred.Trend, jitter)
	pred.Signal = generateSignal(ind.RSI, pred.Trend)

	return ind, pred
}
