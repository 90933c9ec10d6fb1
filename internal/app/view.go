package app

import (
	"bytes"
	"context"

	"CryptoPulse/internal/chart"
)

// ChartPNG encodes the current chart raster.
func (a *App) ChartPNG(ctx context.Context) ([]byte, error) {
	var (
		buf    bytes.Buffer
		encErr error
	)
	if err := a.do(ctx, func() { encErr = a.renderer.EncodePNG(&buf) }); err != nil {
		return nil, err
	}
	if encErr != nil {
		return nil, encErr
	}
	return buf.Bytes(), nil
}

// PointerMove tracks the pointer in client coordinates relative to bounds.
func (a *App) PointerMove(ctx context.Context, clientX, clientY float64, bounds chart.Rect) error {
	return a.do(ctx, func() { a.renderer.PointerMove(clientX, clientY, bounds) })
}

// PointerLeave clears the crosshair.
func (a *App) PointerLeave(ctx context.Context) error {
	return a.do(ctx, a.renderer.PointerLeave)
}

// Resize changes the logical viewport and device pixel ratio.
func (a *App) Resize(ctx context.Context, width, height int, pixelRatio float64) error {
	if width <= 0 || height <= 0 || !(pixelRatio > 0) {
		return ErrInvalidViewport
	}
	return a.do(ctx, func() { a.renderer.Resize(width, height, pixelRatio) })
}

// Viewport returns the renderer's current options.
func (a *App) Viewport(ctx context.Context) (chart.Options, error) {
	var opts chart.Options
	if err := a.do(ctx, func() { opts = a.renderer.Options() }); err != nil {
		return chart.Options{}, err
	}
	return opts, nil
}
