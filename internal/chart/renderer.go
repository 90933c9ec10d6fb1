// Package chart renders candlesticks, the prediction projection and an
// interactive crosshair onto a raster surface.
package chart

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"CryptoPulse/internal/format"
	"CryptoPulse/internal/model"
)

const (
	DefaultWidth   = 800
	DefaultHeight  = 400
	DefaultPadding = 40.0

	// Used for the projection label when no prediction is available yet.
	defaultConfidence = 75
	highConfidence    = 70
)

// Options configures the logical viewport.
type Options struct {
	Width      int
	Height     int
	PixelRatio float64
	Padding    float64
	Palette    Palette
}

// Point is a position in logical canvas coordinates.
type Point struct {
	X, Y float64
}

// Rect is the canvas bounding box in client coordinates.
type Rect struct {
	Left, Top, Width, Height float64
}

// Renderer owns one surface and the data drawn on it. It is not safe for
// concurrent use.
type Renderer struct {
	opts       Options
	newSurface SurfaceFactory
	surface    Surface
	candles    []model.Candle
	prediction *model.Prediction
	pointer    *Point
	now        func() time.Time
	onDraw     func()
}

// NewRenderer creates a renderer backed by a raster surface.
func NewRenderer(opts Options) *Renderer {
	return NewRendererWithSurface(opts, NewRasterSurface)
}

// NewRendererWithSurface creates a renderer drawing onto surfaces from factory.
func NewRendererWithSurface(opts Options, factory SurfaceFactory) *Renderer {
	opts = normalize(opts)
	return &Renderer{
		opts:       opts,
		newSurface: factory,
		surface:    factory(opts.Width, opts.Height, opts.PixelRatio),
		now:        time.Now,
	}
}

func normalize(opts Options) Options {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.PixelRatio <= 0 || math.IsNaN(opts.PixelRatio) {
		opts.PixelRatio = 1
	}
	if opts.Padding <= 0 {
		opts.Padding = DefaultPadding
	}
	opts.Palette = opts.Palette.withDefaults()
	return opts
}

// SetClock overrides the time source driving the loading spinner.
func (r *Renderer) SetClock(now func() time.Time) { r.now = now }

// OnDraw registers a hook invoked after every draw pass.
func (r *Renderer) OnDraw(fn func()) { r.onDraw = fn }

// Options returns the normalized viewport options.
func (r *Renderer) Options() Options { return r.opts }

// UpdateData replaces the candles and prediction and redraws. Candles with
// non-finite prices are dropped. A nil prediction draws default projections.
func (r *Renderer) UpdateData(candles []model.Candle, prediction *model.Prediction) {
	kept := make([]model.Candle, 0, len(candles))
	for _, c := range candles {
		if finite(c.Open, c.High, c.Low, c.Close) {
			kept = append(kept, c)
		}
	}
	if dropped := len(candles) - len(kept); dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("chart: skipped candles with non-finite prices")
	}
	r.candles = kept

	r.prediction = nil
	if prediction != nil {
		p := *prediction
		r.prediction = &p
	}
	r.Draw()
}

// PointerMove tracks the pointer relative to the canvas bounds and redraws.
func (r *Renderer) PointerMove(clientX, clientY float64, bounds Rect) {
	r.pointer = &Point{X: clientX - bounds.Left, Y: clientY - bounds.Top}
	r.Draw()
}

// PointerLeave clears the crosshair and redraws.
func (r *Renderer) PointerLeave() {
	r.pointer = nil
	r.Draw()
}

// Resize reallocates the backing surface and redraws.
func (r *Renderer) Resize(width, height int, pixelRatio float64) {
	r.opts.Width, r.opts.Height, r.opts.PixelRatio = width, height, pixelRatio
	r.opts = normalize(r.opts)
	r.surface = r.newSurface(r.opts.Width, r.opts.Height, r.opts.PixelRatio)
	r.Draw()
}

// Image returns the backing raster.
func (r *Renderer) Image() image.Image { return r.surface.Image() }

// EncodePNG writes the backing raster as PNG.
func (r *Renderer) EncodePNG(w io.Writer) error {
	img := r.surface.Image()
	if img == nil {
		return fmt.Errorf("chart: surface has no raster")
	}
	return png.Encode(w, img)
}

// Draw repaints the whole surface from the current state.
func (r *Renderer) Draw() {
	width, height := float64(r.opts.Width), float64(r.opts.Height)
	r.surface.Clear(mustHex(r.opts.Palette.Background))

	if len(r.candles) == 0 {
		r.drawLoading(width, height)
	} else {
		l := newLayout(r.candles, width, height, r.opts.Padding)
		r.drawGrid(l)
		for i, c := range r.candles {
			r.drawCandle(l, i, c)
		}
		last := len(r.candles) - 1
		r.drawPrediction(l, l.candleX(last)+l.candleWidth, r.candles[last])
		r.drawCurrentPrice(l, r.candles[last].Close)
		r.drawLevels(l)
		if r.pointer != nil {
			r.drawCrosshair(l, *r.pointer)
		}
	}

	if r.onDraw != nil {
		r.onDraw()
	}
}

func (r *Renderer) drawLoading(width, height float64) {
	s, pal := r.surface, r.opts.Palette

	s.SetColor(mustHex(pal.Label))
	s.Text("Loading chart data...", width/2, height/2, AlignCenter)

	t := float64(r.now().UnixMilli()) / 1000
	s.SetColor(mustHex(pal.Marker))
	s.SetLineWidth(3)
	s.Arc(width/2, height/2+30, 15, t*2, t*2+math.Pi*1.5)
}

func (r *Renderer) drawGrid(l layout) {
	s, pal := r.surface, r.opts.Palette
	s.SetLineWidth(1)

	for i := 0; i <= gridDivisions; i++ {
		y := l.padding + float64(i)*l.chartHeight/gridDivisions
		s.SetColor(mustHex(pal.Grid))
		s.Line(l.padding, y, l.right(), y)

		price := l.maxPrice - float64(i)*l.priceRange/gridDivisions
		s.SetColor(mustHex(pal.Label))
		s.Text(format.Price(price), l.padding-5, y+3, AlignRight)
	}

	s.SetColor(mustHex(pal.Grid))
	for i := 0; i <= gridDivisions; i++ {
		x := l.padding + float64(i)*l.chartWidth/gridDivisions
		s.Line(x, l.padding, x, l.bottom())
	}
}

func (r *Renderer) drawCandle(l layout, i int, c model.Candle) {
	s, pal := r.surface, r.opts.Palette

	x := l.candleX(i)
	yHigh, yLow := l.priceToY(c.High), l.priceToY(c.Low)
	yOpen, yClose := l.priceToY(c.Open), l.priceToY(c.Close)

	bullish := c.Close > c.Open
	col := mustHex(pal.Bearish)
	if bullish {
		col = mustHex(pal.Bullish)
	}
	s.SetColor(col)

	s.SetLineWidth(1)
	s.Line(x+l.candleWidth/2, yHigh, x+l.candleWidth/2, yLow)

	top := math.Min(yOpen, yClose)
	bodyHeight := math.Max(1, math.Abs(yClose-yOpen))
	if bullish {
		s.FillRect(x, top, l.candleWidth, bodyHeight)
		return
	}
	s.SetLineWidth(2)
	s.StrokeRect(x, top, l.candleWidth, bodyHeight)
}

func (r *Renderer) drawPrediction(l layout, x float64, last model.Candle) {
	s, pal := r.surface, r.opts.Palette

	predicted := last.Close * 1.001
	confidence := defaultConfidence
	if r.prediction != nil {
		if r.prediction.NextPrice > 0 && finite(r.prediction.NextPrice) {
			predicted = r.prediction.NextPrice
		}
		if r.prediction.Confidence > 0 {
			confidence = r.prediction.Confidence
		}
	}
	yPred := l.priceToY(predicted)

	s.SetColor(mustHex(pal.Prediction))
	s.SetLineWidth(2)
	s.SetDash(5, 5)
	s.Line(x, l.priceToY(last.Close), x+50, yPred)
	s.SetDash()

	s.SetColor(mustHex(pal.PredictionBox))
	s.FillRect(x+40, yPred-10, 80, 20)

	s.SetColor(mustHex(pal.Prediction))
	s.Text("$"+format.Price(predicted), x+45, yPred+3, AlignLeft)

	confColor := pal.LowConfidence
	if confidence >= highConfidence {
		confColor = pal.HighConfidence
	}
	s.SetColor(mustHex(confColor))
	s.Text(fmt.Sprintf("%d%% confidence", confidence), x+45, yPred+15, AlignLeft)
}

func (r *Renderer) drawCurrentPrice(l layout, price float64) {
	s, pal := r.surface, r.opts.Palette
	y := l.priceToY(price)

	s.SetColor(mustHex(pal.Marker))
	s.SetLineWidth(1)
	s.SetDash(10, 5)
	s.Line(l.padding, y, l.right(), y)
	s.SetDash()

	s.FillRect(l.right()-80, y-10, 80, 20)
	s.SetColor(mustHex(pal.MarkerText))
	s.Text("$"+format.Price(price), l.right()-75, y+3, AlignLeft)
}

func (r *Renderer) drawLevels(l layout) {
	if r.prediction == nil {
		return
	}
	s, pal := r.surface, r.opts.Palette
	s.SetLineWidth(2)

	if support := r.prediction.Support; support > 0 && finite(support) {
		y := l.priceToY(support)
		s.SetColor(mustHex(pal.Support))
		s.Line(l.padding, y, l.right(), y)
		s.Text("Support", l.padding+5, y-5, AlignLeft)
	}
	if resistance := r.prediction.Resistance; resistance > 0 && finite(resistance) {
		y := l.priceToY(resistance)
		s.SetColor(mustHex(pal.Resistance))
		s.Line(l.padding, y, l.right(), y)
		s.Text("Resistance", l.padding+5, y+15, AlignLeft)
	}
}

func (r *Renderer) drawCrosshair(l layout, pos Point) {
	s, pal := r.surface, r.opts.Palette

	s.SetColor(mustHex(pal.Crosshair))
	s.SetLineWidth(1)
	s.SetDash(3, 3)
	s.Line(pos.X, l.padding, pos.X, l.bottom())
	s.Line(l.padding, pos.Y, l.right(), pos.Y)
	s.SetDash()

	s.SetColor(mustHex(pal.Marker))
	s.FillRect(l.right()-70, pos.Y-10, 70, 20)
	s.SetColor(mustHex(pal.MarkerText))
	s.Text("$"+format.Price(l.yToPrice(pos.Y)), l.right()-65, pos.Y+3, AlignLeft)
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
