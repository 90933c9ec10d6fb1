package notifier

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"CryptoPulse/internal/calculator"
	"CryptoPulse/internal/format"
	"CryptoPulse/internal/model"
)

// Panel is the display-ready prediction panel for the selected coin. Class
// fields carry the styling hint for each value.
type Panel struct {
	CoinID          string  `json:"coin_id"`
	Pair            string  `json:"pair"`
	Ready           bool    `json:"ready"`
	Current         string  `json:"current"`
	Predicted       string  `json:"predicted,omitempty"`
	PredictedClass  string  `json:"predicted_class,omitempty"`
	Confidence      string  `json:"confidence,omitempty"`
	ConfidenceClass string  `json:"confidence_class,omitempty"`
	Signal          string  `json:"signal,omitempty"`
	SignalClass     string  `json:"signal_class,omitempty"`
	RSI             string  `json:"rsi,omitempty"`
	RSIClass        string  `json:"rsi_class,omitempty"`
	Trend           string  `json:"trend,omitempty"`
	TrendClass      string  `json:"trend_class,omitempty"`
	Support         string  `json:"support,omitempty"`
	Resistance      string  `json:"resistance,omitempty"`
	RangePosition   float64 `json:"range_position"`
}

// Pair renders a coin symbol as its USDT trading pair.
func Pair(symbol string) string {
	return strings.ToUpper(symbol) + "/USDT"
}

// SignalLabel renders strong_buy as "STRONG BUY".
func SignalLabel(s model.Signal) string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

// ConfidenceClass buckets a confidence score into high, medium or low.
func ConfidenceClass(confidence int) string {
	switch {
	case confidence > 70:
		return "high"
	case confidence > 50:
		return "medium"
	default:
		return "low"
	}
}

// RSIClass flags overbought and oversold readings.
func RSIClass(rsi float64) string {
	switch {
	case rsi > 70:
		return "overbought"
	case rsi < 30:
		return "oversold"
	default:
		return ""
	}
}

func trendEmoji(t model.Trend) string {
	switch t {
	case model.TrendUp:
		return "📈"
	case model.TrendDown:
		return "📉"
	default:
		return "→"
	}
}

// BuildPanel assembles the panel. Before the engine is warmed up only the
// current price is filled.
func BuildPanel(coin model.Coin, ind model.Indicators, pred model.Prediction, ready bool) Panel {
	p := Panel{
		CoinID:  coin.ID,
		Pair:    Pair(coin.Symbol),
		Ready:   ready,
		Current: "$" + format.Price(coin.CurrentPrice),
	}
	if !ready {
		return p
	}

	if pred.NextPrice > 0 && coin.CurrentPrice > 0 {
		change := (pred.NextPrice - coin.CurrentPrice) / coin.CurrentPrice * 100
		arrow, class := "↗", "positive"
		if change < 0 {
			arrow, class = "↘", "negative"
		}
		p.Predicted = fmt.Sprintf("$%s %s %.2f%%", format.Price(pred.NextPrice), arrow, math.Abs(change))
		p.PredictedClass = class
	}

	p.Confidence = fmt.Sprintf("%d%%", pred.Confidence)
	p.ConfidenceClass = ConfidenceClass(pred.Confidence)
	p.Signal = SignalLabel(pred.Signal)
	p.SignalClass = string(pred.Signal)
	p.RSI = fmt.Sprintf("%d", int(math.Round(ind.RSI)))
	p.RSIClass = RSIClass(ind.RSI)
	p.Trend = trendEmoji(pred.Trend) + " " + strings.ToUpper(string(pred.Trend))
	p.TrendClass = string(pred.Trend)
	p.Support = "$" + format.Price(pred.Support)
	p.Resistance = "$" + format.Price(pred.Resistance)

	if pos, err := calculator.CalculateRangePosition(coin.CurrentPrice, pred.Resistance, pred.Support); err == nil {
		p.RangePosition = pos
	}
	return p
}

// FormatPanel formats the panel as a Telegram HTML message.
func FormatPanel(p Panel) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔮 <b>%s Prediction</b>\n\n", p.Pair))
	b.WriteString(fmt.Sprintf("Current: %s\n", p.Current))
	if !p.Ready {
		b.WriteString("\nCollecting data, prediction not ready yet.")
		return b.String()
	}
	if p.Predicted != "" {
		b.WriteString(fmt.Sprintf("Predicted: %s\n", p.Predicted))
	}
	b.WriteString(fmt.Sprintf("Confidence: %s (%s)\n", p.Confidence, p.ConfidenceClass))
	b.WriteString(fmt.Sprintf("Signal: <b>%s</b>\n", p.Signal))
	rsi := p.RSI
	if p.RSIClass != "" {
		rsi += " " + p.RSIClass
	}
	b.WriteString(fmt.Sprintf("RSI: %s\n", rsi))
	b.WriteString(fmt.Sprintf("Trend: %s\n", p.Trend))
	b.WriteString(fmt.Sprintf("Support: %s | Resistance: %s\n", p.Support, p.Resistance))
	b.WriteString(fmt.Sprintf("Range position: %.0f%%", p.RangePosition*100))
	return b.String()
}

// IsStrongSignal reports whether s warrants an alert.
func IsStrongSignal(s model.Signal) bool {
	return s == model.SignalStrongBuy || s == model.SignalStrongSell
}

// FormatSignalAlert formats a strong signal notification.
func FormatSignalAlert(coin model.Coin, ind model.Indicators, pred model.Prediction, at time.Time) string {
	icon := "🟢"
	if pred.Signal == model.SignalStrongSell {
		icon = "🔴"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n\n", icon, SignalLabel(pred.Signal), Pair(coin.Symbol)))
	b.WriteString(fmt.Sprintf("Price: $%s\n", format.Price(coin.CurrentPrice)))
	b.WriteString(fmt.Sprintf("Next: $%s (%d%% confidence)\n", format.Price(pred.NextPrice), pred.Confidence))
	b.WriteString(fmt.Sprintf("RSI: %.1f | Trend: %s\n", ind.RSI, strings.ToUpper(string(pred.Trend))))
	b.WriteString(fmt.Sprintf("Support: $%s | Resistance: $%s\n", format.Price(pred.Support), format.Price(pred.Resistance)))
	b.WriteString(fmt.Sprintf("\n%s", at.Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatWallet formats the wallet balance and holdings. prices marks
// holdings to market where available.
func FormatWallet(state model.WalletState, prices map[string]float64) string {
	var b strings.Builder
	b.WriteString("👛 <b>Wallet</b>\n\n")
	b.WriteString(fmt.Sprintf("Balance: $%s\n", state.Balance.StringFixed(2)))

	ids := make([]string, 0, len(state.Holdings))
	for id := range state.Holdings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := state.Balance
	for _, id := range ids {
		qty := state.Holdings[id]
		line := fmt.Sprintf("  %s: %s", id, qty.String())
		if price, ok := prices[id]; ok && price > 0 {
			value := qty.Mul(decimal.NewFromFloat(price))
			total = total.Add(value)
			line += fmt.Sprintf(" ($%s)", value.StringFixed(2))
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(fmt.Sprintf("Equity: $%s\n", total.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Orders: %d", len(state.Orders)))
	return b.String()
}

// FormatMarkets lists the first n coins with price and 24h change.
func FormatMarkets(coins []model.Coin, n int) string {
	var b strings.Builder
	b.WriteString("📊 <b>Markets</b>\n\n")
	if len(coins) == 0 {
		b.WriteString("No market data.")
		return b.String()
	}
	for i, c := range coins {
		if i >= n {
			break
		}
		b.WriteString(fmt.Sprintf("%d. %s $%s (%s)\n", i+1, Pair(c.Symbol), format.Price(c.CurrentPrice), format.Percent(c.PriceChangePct24h)))
	}
	return strings.TrimRight(b.String(), "\n")
}
