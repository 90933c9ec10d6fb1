// Package app is the application context: it owns the prediction engine, the
// chart renderer and the selected coin, and serializes every mutation through
// a single consumer loop.
package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"CryptoPulse/internal/chart"
	"CryptoPulse/internal/collector"
	"CryptoPulse/internal/metrics"
	"CryptoPulse/internal/model"
	"CryptoPulse/internal/notifier"
	"CryptoPulse/internal/recorder"
	"CryptoPulse/internal/strategy"
	"CryptoPulse/internal/wallet"
)

var (
	ErrNoSelection     = errors.New("app: no coin selected")
	ErrUnknownCoin     = errors.New("app: unknown coin")
	ErrInvalidViewport = errors.New("app: viewport dimensions must be positive")
	ErrInvalidSide     = errors.New("app: order side must be buy or sell")
)

const alertRetries = 3

// MarketSource is the market data collaborator.
type MarketSource interface {
	Markets(ctx context.Context) ([]model.Coin, collector.Source)
	Candles(ctx context.Context, coinID string, days int) ([]model.Candle, collector.Source)
}

// Deps wires the collaborators. Markets and Wallet are required.
type Deps struct {
	Markets  MarketSource
	Wallet   *wallet.Manager
	Recorder recorder.Recorder
	Notifier notifier.Notifier
	Metrics  *metrics.Metrics

	Chart           chart.Options
	SurfaceFactory  chart.SurfaceFactory
	HistoryCapacity int
	CandleDays      int
	DefaultCoin     string
	Jitter          strategy.Jitter
	Now             func() time.Time
}

// App is constructed once in main and shared by the scheduler, dashboard and
// bot commands. Fields below msgs are owned by the Run goroutine.
type App struct {
	deps Deps
	msgs chan func()

	runCtx     context.Context
	engine     *strategy.Engine
	renderer   *chart.Renderer
	markets    []model.Coin
	selected   *model.Coin
	candles    []model.Candle
	lastSample time.Time
	lastSignal model.Signal
}

// New creates the application context. Run must be started before any other
// method is called.
func New(deps Deps) *App {
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New(nil)
	}
	if deps.HistoryCapacity <= 0 {
		deps.HistoryCapacity = strategy.HistoryCapacity
	}
	if deps.CandleDays <= 0 {
		deps.CandleDays = 1
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.SurfaceFactory == nil {
		deps.SurfaceFactory = chart.NewRasterSurface
	}

	a := &App{
		deps:   deps,
		msgs:   make(chan func(), 64),
		runCtx: context.Background(),
	}
	a.engine = a.newEngine()
	a.renderer = chart.NewRendererWithSurface(deps.Chart, deps.SurfaceFactory)
	a.renderer.OnDraw(deps.Metrics.DrawsTotal.Inc)
	return a
}

func (a *App) newEngine() *strategy.Engine {
	e := strategy.NewEngine(a.deps.HistoryCapacity, a.deps.Jitter)
	e.SetClock(a.deps.Now)
	return e
}

// Run drains the message queue until ctx is cancelled. It is the only
// goroutine that touches the engine, renderer and selection.
func (a *App) Run(ctx context.Context) error {
	a.runCtx = ctx
	log.Info().Msg("app loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("app loop stopped")
			return nil
		case fn := <-a.msgs:
			fn()
		}
	}
}

// Request states for do.
const (
	requestPending int32 = iota
	requestRunning
	requestAbandoned
)

// do runs fn on the consumer goroutine and waits for it to finish. When ctx
// ends first, fn either never runs or has already completed by the time do
// returns, so callers may read what fn wrote only on a nil error.
func (a *App) do(ctx context.Context, fn func()) error {
	var state atomic.Int32
	done := make(chan struct{})
	msg := func() {
		if !state.CompareAndSwap(requestPending, requestRunning) {
			return
		}
		defer close(done)
		fn()
	}

	select {
	case a.msgs <- msg:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		if state.CompareAndSwap(requestPending, requestAbandoned) {
			return ctx.Err()
		}
		// Already running; closures do no I/O, so wait it out.
		<-done
		return nil
	}
}
