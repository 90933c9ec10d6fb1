package collector

import (
	"sort"
	"strings"

	"CryptoPulse/internal/model"
)

// Filter selects and orders the market listing.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterGainers Filter = "gainers"
	FilterLosers  Filter = "losers"
	FilterVolume  Filter = "volume"
)

// ParseFilter maps a query value to a Filter; unknown values mean all.
func ParseFilter(s string) Filter {
	switch f := Filter(strings.ToLower(s)); f {
	case FilterGainers, FilterLosers, FilterVolume:
		return f
	default:
		return FilterAll
	}
}

// FilterCoins returns a new slice: gainers sorted by 24h change descending,
// losers ascending, volume by total volume descending. The input is not
// modified.
func FilterCoins(coins []model.Coin, f Filter) []model.Coin {
	out := make([]model.Coin, 0, len(coins))
	switch f {
	case FilterGainers:
		for _, c := range coins {
			if c.PriceChangePct24h > 0 {
				out = append(out, c)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceChangePct24h > out[j].PriceChangePct24h })
	case FilterLosers:
		for _, c := range coins {
			if c.PriceChangePct24h < 0 {
				out = append(out, c)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceChangePct24h < out[j].PriceChangePct24h })
	case FilterVolume:
		out = append(out, coins...)
		sort.SliceStable(out, func(i, j int) bool { return out[i].TotalVolume > out[j].TotalVolume })
	default:
		out = append(out, coins...)
	}
	return out
}

// SearchCoins keeps coins whose name or symbol contains query, ignoring case.
// An empty query matches everything.
func SearchCoins(coins []model.Coin, query string) []model.Coin {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Coin, 0, len(coins))
	for _, c := range coins {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) || strings.Contains(strings.ToLower(c.Symbol), q) {
			out = append(out, c)
		}
	}
	return out
}

// FindCoin returns the coin with the given ID.
func FindCoin(coins []model.Coin, id string) (model.Coin, bool) {
	for _, c := range coins {
		if c.ID == id {
			return c, true
		}
	}
	return model.Coin{}, false
}
