package chart

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Align is the horizontal anchor of a text run.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Surface is the 2-D drawing target. Coordinates are logical (CSS) pixels;
// implementations apply the device pixel ratio themselves.
type Surface interface {
	Clear(c color.Color)
	SetColor(c color.Color)
	SetLineWidth(w float64)
	SetDash(dashes ...float64)
	Line(x1, y1, x2, y2 float64)
	FillRect(x, y, w, h float64)
	StrokeRect(x, y, w, h float64)
	Arc(x, y, r, angle1, angle2 float64)
	Text(s string, x, y float64, align Align)
	Image() image.Image
}

// SurfaceFactory allocates a surface for a logical size and pixel ratio.
type SurfaceFactory func(width, height int, pixelRatio float64) Surface

// rasterSurface draws onto an in-memory RGBA image through gg.
type rasterSurface struct {
	dc *gg.Context
}

// NewRasterSurface allocates a backing raster of width×height scaled by pixelRatio.
func NewRasterSurface(width, height int, pixelRatio float64) Surface {
	w := int(math.Ceil(float64(width) * pixelRatio))
	h := int(math.Ceil(float64(height) * pixelRatio))
	dc := gg.NewContext(max(w, 1), max(h, 1))
	dc.Scale(pixelRatio, pixelRatio)
	dc.SetFontFace(basicfont.Face7x13)
	return &rasterSurface{dc: dc}
}

func (s *rasterSurface) Clear(c color.Color) {
	s.dc.SetColor(c)
	s.dc.Clear()
}

func (s *rasterSurface) SetColor(c color.Color)    { s.dc.SetColor(c) }
func (s *rasterSurface) SetLineWidth(w float64)    { s.dc.SetLineWidth(w) }
func (s *rasterSurface) SetDash(dashes ...float64) { s.dc.SetDash(dashes...) }

func (s *rasterSurface) Line(x1, y1, x2, y2 float64) {
	s.dc.DrawLine(x1, y1, x2, y2)
	s.dc.Stroke()
}

func (s *rasterSurface) FillRect(x, y, w, h float64) {
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Fill()
}

func (s *rasterSurface) StrokeRect(x, y, w, h float64) {
	s.dc.DrawRectangle(x, y, w, h)
	s.dc.Stroke()
}

func (s *rasterSurface) Arc(x, y, r, angle1, angle2 float64) {
	s.dc.NewSubPath()
	s.dc.DrawArc(x, y, r, angle1, angle2)
	s.dc.Stroke()
}

func (s *rasterSurface) Text(str string, x, y float64, align Align) {
	var ax float64
	switch align {
	case AlignCenter:
		ax = 0.5
	case AlignRight:
		ax = 1
	}
	s.dc.DrawStringAnchored(str, x, y, ax, 0)
}

func (s *rasterSurface) Image() image.Image { return s.dc.Image() }
