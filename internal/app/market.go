package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"CryptoPulse/internal/collector"
	"CryptoPulse/internal/model"
	"CryptoPulse/internal/notifier"
	"CryptoPulse/internal/recorder"
	"CryptoPulse/internal/series"
)

// RefreshMarkets is the market poll job. It fetches the listing, feeds the
// selected coin's price to the engine when the quote changed, and selects a
// default coin on first load.
func (a *App) RefreshMarkets(ctx context.Context) error {
	coins, src := a.deps.Markets.Markets(ctx)
	log.Debug().Int("coins", len(coins)).Str("source", string(src)).Msg("markets refreshed")

	var autoSelect string
	err := a.do(ctx, func() {
		a.markets = coins
		if a.selected == nil {
			autoSelect = a.defaultCoin()
			return
		}
		if coin, ok := collector.FindCoin(coins, a.selected.ID); ok {
			a.selected = &coin
			a.sample(coin)
		}
	})
	if err != nil {
		return err
	}
	if autoSelect != "" {
		return a.SelectCoin(ctx, autoSelect)
	}
	return nil
}

// defaultCoin picks the configured coin when listed, otherwise the first one.
func (a *App) defaultCoin() string {
	if len(a.markets) == 0 {
		return ""
	}
	if _, ok := collector.FindCoin(a.markets, a.deps.DefaultCoin); ok {
		return a.deps.DefaultCoin
	}
	return a.markets[0].ID
}

// sample feeds a genuine new quote to the engine. Repeated quotes with the
// same last-updated time are skipped.
func (a *App) sample(coin model.Coin) {
	if !coin.LastUpdated.IsZero() && coin.LastUpdated.Equal(a.lastSample) {
		return
	}
	a.lastSample = coin.LastUpdated

	if err := a.engine.AddDataPoint(coin.CurrentPrice, coin.TotalVolume); err != nil {
		var verr *series.ValidationError
		if errors.As(err, &verr) {
			a.deps.Metrics.ObservationsRejected.Inc()
			log.Warn().Err(err).Str("coin", coin.ID).Msg("rejected observation")
			return
		}
		log.Error().Err(err).Str("coin", coin.ID).Msg("add data point")
		return
	}
	a.deps.Metrics.ObservationsTotal.Inc()

	ind, _ := a.engine.Indicators()
	pred, ready := a.engine.Prediction()
	if !ready {
		return
	}
	a.deps.Metrics.PredictionsTotal.Inc()
	a.deps.Metrics.LastConfidence.Set(float64(pred.Confidence))
	a.deps.Metrics.LastPredictedPrice.Set(pred.NextPrice)

	if pred.Signal != a.lastSignal && notifier.IsStrongSignal(pred.Signal) {
		a.alert(notifier.FormatSignalAlert(coin, ind, pred, a.deps.Now()))
	}
	a.lastSignal = pred.Signal
}

// alert sends in the background so the consumer loop never blocks on I/O.
func (a *App) alert(text string) {
	if a.deps.Notifier == nil {
		return
	}
	ctx := a.runCtx
	go func() {
		if err := a.deps.Notifier.SendWithRetry(ctx, text, alertRetries); err != nil {
			log.Error().Err(err).Msg("send signal alert")
		}
	}()
}

// SelectCoin switches the selected coin. The engine history is reset when
// the coin changes, candles are loaded and the chart is redrawn.
func (a *App) SelectCoin(ctx context.Context, coinID string) error {
	var (
		coin  model.Coin
		found bool
	)
	if err := a.do(ctx, func() { coin, found = collector.FindCoin(a.markets, coinID) }); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownCoin, coinID)
	}

	candles, src := a.deps.Markets.Candles(ctx, coinID, a.deps.CandleDays)
	log.Info().Str("coin", coinID).Int("candles", len(candles)).Str("source", string(src)).Msg("coin selected")

	return a.do(ctx, func() {
		if a.selected == nil || a.selected.ID != coin.ID {
			a.engine = a.newEngine()
			a.lastSample = time.Time{}
			a.lastSignal = ""
		}
		a.selected = &coin
		a.sample(coin)
		a.candles = candles
		a.redraw()
	})
}

// RefreshCandles is the prediction tick job. It reloads candles for the
// selected coin, redraws the chart and records a snapshot once the engine is
// warmed up.
func (a *App) RefreshCandles(ctx context.Context) error {
	var coinID string
	if err := a.do(ctx, func() {
		if a.selected != nil {
			coinID = a.selected.ID
		}
	}); err != nil {
		return err
	}
	if coinID == "" {
		return nil
	}

	candles, _ := a.deps.Markets.Candles(ctx, coinID, a.deps.CandleDays)

	var snap *recorder.PredictionSnapshot
	err := a.do(ctx, func() {
		if a.selected == nil || a.selected.ID != coinID {
			return
		}
		a.candles = candles
		a.redraw()

		ind, _ := a.engine.Indicators()
		if pred, ready := a.engine.Prediction(); ready {
			snap = &recorder.PredictionSnapshot{
				CoinID:     coinID,
				Price:      a.selected.CurrentPrice,
				Indicators: ind,
				Prediction: pred,
				RecordedAt: a.deps.Now(),
			}
		}
	})
	if err != nil {
		return err
	}
	if snap != nil {
		if err := a.deps.Recorder.RecordPrediction(snap); err != nil {
			log.Error().Err(err).Str("coin", coinID).Msg("record prediction")
		}
	}
	return nil
}

// redraw pushes the current candles and prediction to the renderer.
func (a *App) redraw() {
	var pred *model.Prediction
	if p, ready := a.engine.Prediction(); ready {
		pred = &p
	}
	a.renderer.UpdateData(a.candles, pred)
}

// Markets returns the listing filtered and searched.
func (a *App) Markets(ctx context.Context, filter collector.Filter, query string) ([]model.Coin, error) {
	var coins []model.Coin
	if err := a.do(ctx, func() { coins = append([]model.Coin(nil), a.markets...) }); err != nil {
		return nil, err
	}
	return collector.SearchCoins(collector.FilterCoins(coins, filter), query), nil
}

// Selected returns the selected coin.
func (a *App) Selected(ctx context.Context) (model.Coin, error) {
	var coin *model.Coin
	if err := a.do(ctx, func() { coin = a.selected }); err != nil {
		return model.Coin{}, err
	}
	if coin == nil {
		return model.Coin{}, ErrNoSelection
	}
	return *coin, nil
}

// Panel builds the prediction panel for the selected coin.
func (a *App) Panel(ctx context.Context) (notifier.Panel, error) {
	var (
		panel notifier.Panel
		ok    bool
	)
	err := a.do(ctx, func() {
		if a.selected == nil {
			return
		}
		ind, _ := a.engine.Indicators()
		pred, ready := a.engine.Prediction()
		panel, ok = notifier.BuildPanel(*a.selected, ind, pred, ready), true
	})
	if err != nil {
		return notifier.Panel{}, err
	}
	if !ok {
		return notifier.Panel{}, ErrNoSelection
	}
	return panel, nil
}

// History returns recorded prediction snapshots for a coin, newest first.
func (a *App) History(coinID string, limit int) ([]recorder.PredictionSnapshot, error) {
	return a.deps.Recorder.RecentPredictions(coinID, limit)
}
