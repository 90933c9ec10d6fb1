package chart

import (
	"math"

	"CryptoPulse/internal/model"
)

const (
	priceMargin    = 0.001
	minPriceRange  = 1e-8
	minCandleWidth = 2.0
	gapRatio       = 0.2
	gridDivisions  = 5
)

// layout is the coordinate mapping for one draw pass.
type layout struct {
	padding     float64
	width       float64
	height      float64
	chartWidth  float64
	chartHeight float64
	minPrice    float64
	maxPrice    float64
	priceRange  float64
	candleWidth float64
	gap         float64
}

func newLayout(candles []model.Candle, width, height, padding float64) layout {
	l := layout{
		padding:     padding,
		width:       width,
		height:      height,
		chartWidth:  math.Max(1, width-2*padding),
		chartHeight: math.Max(1, height-2*padding),
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, c := range candles {
		lo = math.Min(lo, math.Min(c.Low, c.High))
		hi = math.Max(hi, math.Max(c.Low, c.High))
	}
	l.minPrice = lo * (1 - priceMargin)
	l.maxPrice = hi * (1 + priceMargin)
	l.priceRange = l.maxPrice - l.minPrice
	if !(l.priceRange >= minPriceRange) {
		mid := (l.maxPrice + l.minPrice) / 2
		l.minPrice = mid - minPriceRange/2
		l.maxPrice = mid + minPriceRange/2
		l.priceRange = minPriceRange
	}

	slot := l.chartWidth / float64(max(len(candles), 1))
	l.candleWidth = math.Max(minCandleWidth, slot*(1-gapRatio))
	l.gap = slot * gapRatio
	return l
}

// priceToY maps a price to a logical y-coordinate; maxPrice sits on the top edge.
func (l layout) priceToY(price float64) float64 {
	return l.padding + (l.maxPrice-price)/l.priceRange*l.chartHeight
}

// yToPrice is the inverse of priceToY.
func (l layout) yToPrice(y float64) float64 {
	return l.maxPrice - (y-l.padding)/l.chartHeight*l.priceRange
}

// candleX returns the left edge of the i-th candle body.
func (l layout) candleX(i int) float64 {
	return l.padding + float64(i)*(l.candleWidth+l.gap) + l.gap/2
}

func (l layout) right() float64  { return l.width - l.padding }
func (l layout) bottom() float64 { return l.height - l.padding }
