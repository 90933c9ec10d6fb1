package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"CryptoPulse/internal/collector"
	"CryptoPulse/internal/notifier"
)

const (
	commandTimeout = 10 * time.Second
	marketsListed  = 10
)

// HandleCommand answers a bot command.
func (a *App) HandleCommand(command, args string) string {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch command {
	case "prediction":
		if args != "" {
			if err := a.SelectCoin(ctx, args); err != nil {
				return "Unknown coin: " + args
			}
		}
		panel, err := a.Panel(ctx)
		if errors.Is(err, ErrNoSelection) {
			return "No coin selected yet."
		}
		if err != nil {
			log.Error().Err(err).Msg("prediction command")
			return "Prediction unavailable."
		}
		return notifier.FormatPanel(panel)
	case "wallet":
		prices, err := a.Prices(ctx)
		if err != nil {
			log.Error().Err(err).Msg("wallet command")
		}
		return notifier.FormatWallet(a.Wallet(), prices)
	case "markets":
		coins, err := a.Markets(ctx, collector.ParseFilter(args), "")
		if err != nil {
			log.Error().Err(err).Msg("markets command")
			return "Markets unavailable."
		}
		return notifier.FormatMarkets(coins, marketsListed)
	default:
		return "Commands:\n/prediction [coin]\n/wallet\n/markets [all|gainers|losers|volume]"
	}
}
