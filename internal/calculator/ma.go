package calculator

import "errors"

var (
	// ErrInsufficientData is returned when the series is shorter than the requested window.
	ErrInsufficientData = errors.New("not enough data for calculation")
	// ErrInvalidPeriod is returned for non-positive periods.
	ErrInvalidPeriod = errors.New("period must be positive")
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(prices) < period {
		return 0, ErrInsufficientData
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateMean returns the arithmetic mean of values, or 0 for an empty slice.
func CalculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// tail returns the last n elements of values (all of them if n exceeds the length).
func tail(values []float64, n int) []float64 {
	if n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}
