package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"CryptoPulse/internal/collector"
	"CryptoPulse/internal/model"
	"CryptoPulse/internal/recorder"
)

// OrderRequest is a simulated market order. Amount is the quote currency to
// spend for a buy and the coin quantity for a sell.
type OrderRequest struct {
	CoinID string          `json:"coin_id"`
	Side   model.OrderSide `json:"side"`
	Amount decimal.Decimal `json:"amount"`
}

// PlaceOrder fills req at the coin's latest listed price.
func (a *App) PlaceOrder(ctx context.Context, req OrderRequest) (model.Order, error) {
	if req.Side != model.SideBuy && req.Side != model.SideSell {
		return model.Order{}, ErrInvalidSide
	}

	var (
		coin  model.Coin
		found bool
	)
	if err := a.do(ctx, func() { coin, found = collector.FindCoin(a.markets, req.CoinID) }); err != nil {
		return model.Order{}, err
	}
	if !found {
		return model.Order{}, fmt.Errorf("%w: %s", ErrUnknownCoin, req.CoinID)
	}
	price := decimal.NewFromFloat(coin.CurrentPrice)

	var (
		order model.Order
		err   error
	)
	if req.Side == model.SideBuy {
		order, err = a.deps.Wallet.Buy(req.CoinID, price, req.Amount)
	} else {
		order, err = a.deps.Wallet.Sell(req.CoinID, price, req.Amount)
	}
	if err != nil {
		return model.Order{}, err
	}

	a.deps.Metrics.OrdersTotal.WithLabelValues(string(order.Side)).Inc()
	balance, _ := a.deps.Wallet.GetState().Balance.Float64()
	if err := a.deps.Recorder.RecordOrder(&recorder.OrderEvent{Order: order, BalanceAfter: balance}); err != nil {
		log.Error().Err(err).Str("order", order.ID).Msg("record order")
	}
	log.Info().Str("order", order.ID).Str("coin", order.CoinID).Str("side", string(order.Side)).
		Str("quantity", order.Quantity.String()).Str("price", order.Price.String()).Msg("order filled")
	return order, nil
}

// Wallet returns a snapshot of the simulated wallet.
func (a *App) Wallet() model.WalletState {
	return a.deps.Wallet.GetState()
}

// Prices returns the latest listed price per coin.
func (a *App) Prices(ctx context.Context) (map[string]float64, error) {
	prices := map[string]float64{}
	err := a.do(ctx, func() {
		for _, c := range a.markets {
			prices[c.ID] = c.CurrentPrice
		}
	})
	if err != nil {
		return nil, err
	}
	return prices, nil
}
