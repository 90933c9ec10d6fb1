package calculator

// DefaultRSIPeriod is the classic 14-delta lookback.
const DefaultRSIPeriod = 14

// flatRS is the relative strength used when a window has neither gains nor losses.
const flatRS = 100.0

// CalculateRSI computes the relative strength index over the last period deltas
// using plain sums rather than Wilder smoothing.
// Requires period+1 prices; returns the neutral 50 when history is shorter.
// All gains with no losses yields 100. A flat window has no losses either and
// takes rs = 100, about 99.01.
func CalculateRSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(prices) < period+1 {
		return 50.0, nil
	}

	var gains, losses float64
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	var rs float64
	switch {
	case avgLoss != 0:
		rs = avgGain / avgLoss
	case avgGain > 0:
		return 100.0, nil
	default:
		rs = flatRS
	}
	return 100.0 - 100.0/(1.0+rs), nil
}
