package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"CryptoPulse/internal/model"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoFetcher implements Fetcher using the CoinGecko public API.
type CoinGeckoFetcher struct {
	BaseURL    string
	APIKey     string
	Client     *http.Client
	MaxRetries int
	RetryBase  time.Duration
}

// NewCoinGeckoFetcher creates a new fetcher with optional proxy support.
func NewCoinGeckoFetcher(baseURL, apiKey, proxyURL string, timeout time.Duration) *CoinGeckoFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CoinGeckoFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		MaxRetries: 3,
		RetryBase:  time.Second,
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// geckoCoin is the response row of /coins/markets.
type geckoCoin struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	TotalVolume              *float64 `json:"total_volume"`
	MarketCap                *float64 `json:"market_cap"`
	LastUpdated              string   `json:"last_updated"`
	SparklineIn7d            *struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (f *CoinGeckoFetcher) FetchMarkets(ctx context.Context) ([]model.Coin, error) {
	endpoint := f.BaseURL + "/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=100&page=1&sparkline=true&price_change_percentage=24h,7d"

	var rows []geckoCoin
	if err := f.getJSON(ctx, endpoint, &rows); err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	coins := make([]model.Coin, 0, len(rows))
	for _, r := range rows {
		c := model.Coin{
			ID:                r.ID,
			Symbol:            r.Symbol,
			Name:              r.Name,
			Image:             r.Image,
			CurrentPrice:      deref(r.CurrentPrice),
			PriceChangePct24h: deref(r.PriceChangePercentage24h),
			TotalVolume:       deref(r.TotalVolume),
			MarketCap:         deref(r.MarketCap),
		}
		if r.SparklineIn7d != nil {
			c.Sparkline = r.SparklineIn7d.Price
		}
		if ts, err := time.Parse(time.RFC3339, r.LastUpdated); err == nil {
			c.LastUpdated = ts
		}
		coins = append(coins, c)
	}
	return coins, nil
}

func (f *CoinGeckoFetcher) FetchCandles(ctx context.Context, coinID string, days int) ([]model.Candle, error) {
	if days <= 0 {
		days = 1
	}
	endpoint := fmt.Sprintf("%s/coins/%s/ohlc?vs_currency=usd&days=%d", f.BaseURL, url.PathEscape(coinID), days)

	// Each row is [time_ms, open, high, low, close].
	var rows [][]float64
	if err := f.getJSON(ctx, endpoint, &rows); err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", coinID, err)
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, r := range rows {
		if len(r) < 5 {
			continue
		}
		candles = append(candles, model.Candle{
			Time:  time.UnixMilli(int64(r[0])),
			Open:  r[1],
			High:  r[2],
			Low:   r[3],
			Close: r[4],
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}

// getJSON performs a GET with bounded retry. Attempt i waits 2^i × RetryBase
// before the next one; the last error is returned after MaxRetries attempts.
func (f *CoinGeckoFetcher) getJSON(ctx context.Context, endpoint string, out any) error {
	retries := max(f.MaxRetries, 1)
	var lastErr error
	for i := 0; i < retries; i++ {
		lastErr = f.getOnce(ctx, endpoint, out)
		if lastErr == nil {
			return nil
		}
		log.Warn().Err(lastErr).Int("attempt", i+1).Str("url", endpoint).Msg("coingecko request failed")
		if i == retries-1 {
			break
		}
		delay := time.Duration(1<<i) * f.RetryBase
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

func (f *CoinGeckoFetcher) getOnce(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return fmt.Errorf("coingecko fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("coingecko read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("coingecko: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("coingecko decode: %w", err)
	}
	return nil
}
