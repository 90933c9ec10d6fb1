package calculator

import (
	"errors"
	"math"
)

// LevelWindow is the number of recent prices scanned for support and resistance.
const LevelWindow = 20

// RecentRange scans the last window prices and returns the high and low.
func RecentRange(prices []float64, window int) (high, low float64, err error) {
	if len(prices) == 0 {
		return 0, 0, ErrInsufficientData
	}
	if window <= 0 {
		return 0, 0, ErrInvalidPeriod
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range tail(prices, window) {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}
	return high, low, nil
}

// CalculateSupport returns the recent low shaved by 0.5%.
func CalculateSupport(prices []float64) (float64, error) {
	_, low, err := RecentRange(prices, LevelWindow)
	if err != nil {
		return 0, err
	}
	return low * 0.995, nil
}

// CalculateResistance returns the recent high padded by 0.5%.
func CalculateResistance(prices []float64) (float64, error) {
	high, _, err := RecentRange(prices, LevelWindow)
	if err != nil {
		return 0, err
	}
	return high * 1.005, nil
}

// CalculateRangePosition returns where current sits between low and high (0.0~1.0).
func CalculateRangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
