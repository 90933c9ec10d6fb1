package strategy

import (
	"math"

	"CryptoPulse/internal/calculator"
	"CryptoPulse/internal/model"
)

func computeIndicators(prices []float64) model.Indicators {
	var ind model.Indicators
	if ma, err := calculator.CalculateSMA(prices, fastPeriod); err == nil {
		ind.MA5 = &ma
	}
	if ma, err := calculator.CalculateSMA(prices, slowPeriod); err == nil {
		ind.MA20 = &ma
	}
	ind.RSI, _ = calculator.CalculateRSI(prices, calculator.DefaultRSIPeriod)

	// Zero bands below the band period.
	bands, _ := calculator.CalculateBollingerBands(prices, calculator.DefaultBandPeriod, calculator.DefaultBandWidth)
	ind.UpperBand = bands.Upper
	ind.LowerBand = bands.Lower
	return ind
}

// predictNextPrice applies trend drift, RSI mean reversion and a volume-spike
// nudge to the latest price. Below slowPeriod observations the latest price is
// returned unadjusted.
func predictNextPrice(prices, volumes []float64, ind model.Indicators) float64 {
	n := len(prices)
	current := prices[n-1]
	if n < slowPeriod || ind.MA5 == nil || ind.MA20 == nil {
		return current
	}

	prediction := current
	if *ind.MA5 > *ind.MA20 {
		prediction *= 1.002
	} else {
		prediction *= 0.998
	}

	switch {
	case ind.RSI > 70:
		prediction *= 0.995
	case ind.RSI < 30:
		prediction *= 1.005
	}

	if len(volumes) >= trendWindow {
		avgVolume := calculator.CalculateMean(volumes[len(volumes)-trendWindow:])
		if volumes[len(volumes)-1] > avgVolume*1.5 {
			if prices[n-1] > prices[n-2] {
				prediction *= 1.003
			} else {
				prediction *= 0.997
			}
		}
	}
	return prediction
}

// detectTrend compares the mean of the last ten prices with the ten before.
// Both windows must be complete, so fewer than twenty prices is neutral.
func detectTrend(prices []float64) model.Trend {
	n := len(prices)
	if n < 2*trendWindow {
		return model.TrendNeutral
	}
	recentAvg := calculator.CalculateMean(prices[n-trendWindow:])
	olderAvg := calculator.CalculateMean(prices[n-2*trendWindow : n-trendWindow])

	switch {
	case recentAvg > olderAvg*1.01:
		return model.TrendUp
	case recentAvg < olderAvg*0.99:
		return model.TrendDown
	default:
		return model.TrendNeutral
	}
}

// calculateConfidence scores indicator agreement, then adds +/-10 of jitter.
// The result is not deterministic unless the jitter source is.
func calculateConfidence(ind model.Indicators, trend model.Trend, jitter Jitter) int {
	confidence := 50.0

	if ind.RSI > 30 && ind.RSI < 70 {
		confidence += 10
	}

	if ind.MA5 != nil && ind.MA20 != nil {
		aligned := (*ind.MA5 > *ind.MA20 && trend == model.TrendUp) ||
			(*ind.MA5 < *ind.MA20 && trend == model.TrendDown)
		if aligned {
			confidence += 20
		}
	}

	confidence += jitter.Float64()*20 - 10

	return int(math.Min(95, math.Max(30, math.Round(confidence))))
}

// generateSignal maps RSI and trend to a recommendation; first match wins.
func generateSignal(rsi float64, trend model.Trend) model.Signal {
	switch {
	case rsi < 30 && trend == model.TrendUp:
		return model.SignalStrongBuy
	case rsi < 40:
		return model.SignalBuy
	case rsi > 70 && trend == model.TrendDown:
		return model.SignalStrongSell
	case rsi > 60:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}
