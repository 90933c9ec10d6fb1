package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoPulse/internal/format"
	"CryptoPulse/internal/model"
)

// recordingSurface logs every drawing call as a string.
type recordingSurface struct {
	width, height int
	ratio         float64
	ops           []string
}

func (s *recordingSurface) add(f string, args ...any) {
	s.ops = append(s.ops, fmt.Sprintf(f, args...))
}

func (s *recordingSurface) Clear(c color.Color)       { s.ops = nil; s.add("clear %v", c) }
func (s *recordingSurface) SetColor(c color.Color)    { s.add("color %v", c) }
func (s *recordingSurface) SetLineWidth(w float64)    { s.add("width %.1f", w) }
func (s *recordingSurface) SetDash(dashes ...float64) { s.add("dash %v", dashes) }
func (s *recordingSurface) Line(x1, y1, x2, y2 float64) {
	s.add("line %.3f %.3f %.3f %.3f", x1, y1, x2, y2)
}
func (s *recordingSurface) FillRect(x, y, w, h float64) {
	s.add("fill %.3f %.3f %.3f %.3f", x, y, w, h)
}
func (s *recordingSurface) StrokeRect(x, y, w, h float64) {
	s.add("stroke %.3f %.3f %.3f %.3f", x, y, w, h)
}
func (s *recordingSurface) Arc(x, y, r, a1, a2 float64) {
	s.add("arc %.3f %.3f %.3f %.3f %.3f", x, y, r, a1, a2)
}
func (s *recordingSurface) Text(str string, x, y float64, align Align) {
	s.add("text %q %.3f %.3f %d", str, x, y, align)
}
func (s *recordingSurface) Image() image.Image { return nil }

func (s *recordingSurface) count(prefix string) int {
	n := 0
	for _, op := range s.ops {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

func (s *recordingSurface) texts() []string {
	var out []string
	for _, op := range s.ops {
		if strings.HasPrefix(op, "text ") {
			out = append(out, op)
		}
	}
	return out
}

func newRecordingRenderer(opts Options) (*Renderer, *[]*recordingSurface) {
	var surfaces []*recordingSurface
	factory := func(w, h int, ratio float64) Surface {
		s := &recordingSurface{width: w, height: h, ratio: ratio}
		surfaces = append(surfaces, s)
		return s
	}
	return NewRendererWithSurface(opts, factory), &surfaces
}

func current(surfaces *[]*recordingSurface) *recordingSurface {
	return (*surfaces)[len(*surfaces)-1]
}

func sampleCandles() []model.Candle {
	return []model.Candle{
		{Time: time.Unix(1, 0), Open: 100, High: 104, Low: 98, Close: 103},
		{Time: time.Unix(2, 0), Open: 103, High: 105, Low: 99, Close: 100},
		{Time: time.Unix(3, 0), Open: 100, High: 102, Low: 97, Close: 101},
	}
}

func samplePrediction() *model.Prediction {
	return &model.Prediction{
		NextPrice:  102,
		Confidence: 80,
		Trend:      model.TrendUp,
		Signal:     model.SignalBuy,
		Support:    97.5,
		Resistance: 105.5,
	}
}

func TestRenderer_EmptyCandlesDrawsLoading(t *testing.T) {
	r, surfaces := newRecordingRenderer(Options{Width: 800, Height: 400})
	r.SetClock(func() time.Time { return time.UnixMilli(1500) })

	r.UpdateData(nil, samplePrediction())

	s := current(surfaces)
	assert.Equal(t, 0, s.count("fill"))
	assert.Equal(t, 0, s.count("stroke"))
	assert.Equal(t, 0, s.count("line"))
	assert.Equal(t, 1, s.count("arc"))
	assert.Contains(t, s.ops, `text "Loading chart data..." 400.000 200.000 1`)
	assert.Contains(t, s.ops, fmt.Sprintf("arc 400.000 230.000 15.000 %.3f %.3f", 3.0, 3.0+1.5*math.Pi))
}

func TestRenderer_SpinnerFollowsClock(t *testing.T) {
	r, surfaces := newRecordingRenderer(Options{})
	now := time.UnixMilli(0)
	r.SetClock(func() time.Time { return now })

	r.Draw()
	first := append([]string(nil), current(surfaces).ops...)
	now = now.Add(500 * time.Millisecond)
	r.Draw()

	assert.NotEqual(t, first, current(surfaces).ops)
}

func TestRenderer_DrawsCandles(t *testing.T) {
	r, surfaces := newRecordingRenderer(Options{Width: 800, Height: 400})
	r.UpdateData(sampleCandles(), samplePrediction())

	s := current(surfaces)
	// Two bullish bodies plus the projection box and the price badge are
	// filled; the single bearish body is outlined.
	assert.Equal(t, 1, s.count("stroke"))
	assert.Equal(t, 4, s.count("fill"))
	assert.Equal(t, 0, s.count("arc"))

	joined := strings.Join(s.texts(), "\n")
	assert.Contains(t, joined, `"$102.00"`)
	assert.Contains(t, joined, `"80% confidence"`)
	assert.Contains(t, joined, `"$101.00"`)
	assert.Contains(t, joined, `"Support"`)
	assert.Contains(t, joined, `"Resistance"`)
}

func TestRenderer_GridHasSixLinesEachWay(t *testing.T) {
	r, surfaces := newRecordingRenderer(Options{Width: 800, Height: 400, Padding: 40})
	r.UpdateData(sampleCandles(), nil)

	s := current(surfaces)
	horizontal, vertical := 0, 0
	for i := 0; i <= gridDivisions; i++ {
		y := 40 + float64(i)*320/gridDivisions
		x := 40 + float64(i)*720/gridDivisions
		for _, op := range s.ops {
			if op == fmt.Sprintf("line 40.000 %.3f 760.000 %.3f", y, y) {
				horizontal++
			}
			if op == fmt.Sprintf("line %.3f 40.000 %.3f 360.000", x, x) {
				vertical++
			}
		}
	}
	assert.GreaterOrEqual(t, horizontal, 6)
	assert.Equal(t, 6, vertical)
}

func TestRenderer_DefaultProjectionWithoutPrediction(t *testing.T) {
	r, surfaces := newRecordingRenderer(Options{})
	r.UpdateData(sampleCandles(), nil)

	joined := strings.Join(current(surfaces).texts(), "\n")
	assert.Contains(t, joined, `"$101.10"`)
	assert.Contains(t, joined, `"75% confidence"`)
	assert.NotContains(t, joined, `"Support"`)
	assert.NotContains(t, joined, `"Resistance"`)
}

func TestRenderer_ConfidenceColour(t *testing.T) {
	pal := DefaultPalette()
	high := fmt.Sprintf("color %v", mustHex(pal.HighConfidence))
	low := fmt.Sprintf("color %v", mustHex(pal.LowConfidence))

	for _, tc := range []struct {
		confidence int
		want       string
	}{
		{70, high},
		{95, high},
		{69, low},
		{30, low},
	} {
		r, surfaces := newRecordingRenderer(Options{})
		p := samplePrediction()
		p.Confidence = tc.confidence
		r.UpdateData(sampleCandles(), p)

		ops := current(surfaces).ops
		label := fmt.Sprintf("%d%% confidence", tc.confidence)
		for i, op := range ops {
			if strings.Contains(op, label) {
				assert.Equal(t, tc.want, ops[i-1], "confidence %d", tc.confidence)
			}
		}
	}
}

func TestRenderer_DrawIsIdempotent(t *testing.T) {
	r, surfaces := newRecordingRenderer(Options{})
	r.UpdateData(sampleCandles(), samplePrediction())
	r.PointerMove(300, 150, Rect{})

	first := append([]string(nil), current(surfaces).ops...)
	r.Draw()
	assert.Equal(t, first, current(surfaces).ops)
}

func TestRenderer_RasterDrawIsPixelIdentical(t *testing.T) {
	r := NewRenderer(Options{Width: 320, Height: 200, PixelRatio: 2})
	r.UpdateData(sampleCandles(), samplePrediction())
	r.PointerMove(150, 90, Rect{})

	var first, second bytes.Buffer
	require.NoError(t, r.EncodePNG(&first))
	r.Draw()
	require.NoError(t, r.EncodePNG(&second))

	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestRenderer_CrosshairMapsPointerToPrice(t *testing.T) {
	r, surfaces := newRecordingRenderer(Options{Width: 800, Height: 400, Padding: 40})
	candles := []model.Candle{
		{Open: 100, High: 200, Low: 100, Close: 200},
	}
	r.UpdateData(candles, nil)
	r.PointerMove(110, 220, Rect{Left: 10, Top: 20, Width: 800, Height: 400})

	l := newLayout(candles, 800, 400, 40)
	want := "$" + format.Price(l.yToPrice(200))

	s := current(surfaces)
	assert.Contains(t, s.ops, "line 100.000 40.000 100.000 360.000")
	assert.Contains(t, s.ops, "line 40.000 200.000 760.000 200.000")
	assert.Contains(t, strings.Join(s.texts(), "\n"), fmt.Sprintf("%q", want))
	assert.Contains(t, s.ops, "dash [3 3]")
}

func TestRenderer_PointerLeaveRemovesCrosshair(t *testing.T) {
	r, surfaces := newRecordingRenderer(Options{})
	r.UpdateData(sampleCandles(), samplePrediction())
	without := append([]string(nil), current(surfaces).ops...)

	r.PointerMove(200, 100, Rect{})
	assert.Contains(t, current(surfaces).ops, "dash [3 3]")

	r.PointerLeave()
	assert.Equal(t, without, current(surfaces).ops)
}

func TestRenderer_SkipsNonFiniteCandles(t *testing.T) {
	r, surfaces := newRecordingRenderer(Options{})
	candles := append(sampleCandles(), model.Candle{Open: math.NaN(), High: 1, Low: 1, Close: 1})

	r.UpdateData(candles, nil)

	s := current(surfaces)
	for _, op := range s.ops {
		assert.NotContains(t, op, "NaN")
	}
}

func TestRenderer_ResizeScalesBackingSurface(t *testing.T) {
	r, surfaces := newRecordingRenderer(Options{Width: 800, Height: 400})
	r.UpdateData(sampleCandles(), nil)

	r.Resize(400, 300, 2)

	s := current(surfaces)
	assert.Len(t, *surfaces, 2)
	assert.Equal(t, 400, s.width)
	assert.Equal(t, 300, s.height)
	assert.Equal(t, 2.0, s.ratio)
	assert.NotEmpty(t, s.ops)
}

func TestRasterSurface_PixelRatio(t *testing.T) {
	r := NewRenderer(Options{Width: 300, Height: 150, PixelRatio: 1.5})
	r.UpdateData(sampleCandles(), nil)

	var buf bytes.Buffer
	require.NoError(t, r.EncodePNG(&buf))
	img, err := png.Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 450, 225), img.Bounds())
}

func TestRenderer_OnDrawHook(t *testing.T) {
	r, _ := newRecordingRenderer(Options{})
	calls := 0
	r.OnDraw(func() { calls++ })

	r.UpdateData(sampleCandles(), nil)
	r.PointerMove(10, 10, Rect{})
	r.PointerLeave()

	assert.Equal(t, 3, calls)
}
