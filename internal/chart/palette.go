package chart

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Palette holds the chart colours as CSS-style hex strings (#rrggbb or #rrggbbaa).
type Palette struct {
	Background     string `yaml:"background"`
	Grid           string `yaml:"grid"`
	Label          string `yaml:"label"`
	Bullish        string `yaml:"bullish"`
	Bearish        string `yaml:"bearish"`
	Prediction     string `yaml:"prediction"`
	PredictionBox  string `yaml:"prediction_box"`
	Support        string `yaml:"support"`
	Resistance     string `yaml:"resistance"`
	Marker         string `yaml:"marker"`
	MarkerText     string `yaml:"marker_text"`
	Crosshair      string `yaml:"crosshair"`
	HighConfidence string `yaml:"high_confidence"`
	LowConfidence  string `yaml:"low_confidence"`
}

// DefaultPalette is the dark exchange theme.
func DefaultPalette() Palette {
	return Palette{
		Background:     "#0b0e11",
		Grid:           "#ffffff0d",
		Label:          "#848e9c",
		Bullish:        "#00ff88",
		Bearish:        "#ff3333",
		Prediction:     "#ffd700",
		PredictionBox:  "#ffd70033",
		Support:        "#4ecdc4",
		Resistance:     "#ff6b6b",
		Marker:         "#fcd535",
		MarkerText:     "#000000",
		Crosshair:      "#ffffff33",
		HighConfidence: "#00ff88",
		LowConfidence:  "#ffaa00",
	}
}

// withDefaults fills empty entries from DefaultPalette.
func (p Palette) withDefaults() Palette {
	d := DefaultPalette()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&p.Background, d.Background)
	fill(&p.Grid, d.Grid)
	fill(&p.Label, d.Label)
	fill(&p.Bullish, d.Bullish)
	fill(&p.Bearish, d.Bearish)
	fill(&p.Prediction, d.Prediction)
	fill(&p.PredictionBox, d.PredictionBox)
	fill(&p.Support, d.Support)
	fill(&p.Resistance, d.Resistance)
	fill(&p.Marker, d.Marker)
	fill(&p.MarkerText, d.MarkerText)
	fill(&p.Crosshair, d.Crosshair)
	fill(&p.HighConfidence, d.HighConfidence)
	fill(&p.LowConfidence, d.LowConfidence)
	return p
}

// Validate reports the first entry that is not a parseable hex colour.
func (p Palette) Validate() error {
	for name, v := range map[string]string{
		"background": p.Background, "grid": p.Grid, "label": p.Label,
		"bullish": p.Bullish, "bearish": p.Bearish, "prediction": p.Prediction,
		"prediction_box": p.PredictionBox, "support": p.Support, "resistance": p.Resistance,
		"marker": p.Marker, "marker_text": p.MarkerText, "crosshair": p.Crosshair,
		"high_confidence": p.HighConfidence, "low_confidence": p.LowConfidence,
	} {
		if v == "" {
			continue
		}
		if _, err := ParseHex(v); err != nil {
			return fmt.Errorf("palette.%s: %w", name, err)
		}
	}
	return nil
}

// ParseHex parses #rgb, #rrggbb or #rrggbbaa into a colour.
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// mustHex falls back to opaque black for unparseable entries.
func mustHex(s string) color.NRGBA {
	c, err := ParseHex(s)
	if err != nil {
		return color.NRGBA{A: 0xff}
	}
	return c
}
