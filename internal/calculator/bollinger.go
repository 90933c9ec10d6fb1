package calculator

import "math"

// DefaultBandPeriod and DefaultBandWidth describe the classic 20-period, 2-sigma envelope.
const (
	DefaultBandPeriod = 20
	DefaultBandWidth  = 2.0
)

// Bands is a Bollinger envelope around a simple moving average.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
	StdDev float64
}

// CalculateBollingerBands returns the moving average of the last period prices
// plus/minus k population standard deviations. Zero bands are returned together
// with the moving-average error when history is too short.
func CalculateBollingerBands(prices []float64, period int, k float64) (Bands, error) {
	ma, err := CalculateSMA(prices, period)
	if err != nil {
		return Bands{}, err
	}
	variance := 0.0
	for _, p := range tail(prices, period) {
		d := p - ma
		variance += d * d
	}
	variance /= float64(period)
	sd := math.Sqrt(variance)
	return Bands{
		Upper:  ma + k*sd,
		Middle: ma,
		Lower:  ma - k*sd,
		StdDev: sd,
	}, nil
}
