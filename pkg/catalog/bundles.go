package catalog

import (
	"sort"

	"github.com/shopspring/decimal"
)

// BundleSize is the number of coins in a derived bundle.
const BundleSize = 5

// DefaultMinimumBuy is the minimum spend (in the settlement stable) for a
// bundle purchase.
const DefaultMinimumBuy = 10

// Bundle is a read-only top-N grouping of coins by one ranking metric, with
// averaged aggregate stats. Recomputed whenever the catalog refreshes.
type Bundle struct {
	Name       string          `json:"name"`
	Images     []string        `json:"images"`
	MinimumBuy int             `json:"minimumBuy"`
	MarketCap  decimal.Decimal `json:"marketCap"`
	Change     decimal.Decimal `json:"change"`
	Volume24h  decimal.Decimal `json:"v24hVolume"`
	Coins      []Coin          `json:"coins"`
}

func num(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func mean(coins []Coin, field func(Coin) decimal.Decimal) decimal.Decimal {
	if len(coins) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, c := range coins {
		sum = sum.Add(field(c))
	}
	return sum.Div(decimal.NewFromInt(int64(len(coins))))
}

func makeBundle(name string, coins []Coin) Bundle {
	images := make([]string, 0, len(coins))
	for _, c := range coins {
		images = append(images, c.IconURL)
	}
	return Bundle{
		Name:       name,
		Images:     images,
		MinimumBuy: DefaultMinimumBuy,
		MarketCap:  mean(coins, func(c Coin) decimal.Decimal { return num(c.MarketCap) }),
		Change:     mean(coins, func(c Coin) decimal.Decimal { return num(c.Change) }),
		Volume24h:  mean(coins, func(c Coin) decimal.Decimal { return num(c.Volume24h) }),
		Coins:      coins,
	}
}

// sortedBy returns a copy of coins ordered by the given numeric key
func sortedBy(coins []Coin, desc bool, key func(Coin) decimal.Decimal) []Coin {
	out := make([]Coin, len(coins))
	copy(out, coins)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := key(out[i]), key(out[j])
		if desc {
			return a.GreaterThan(b)
		}
		return a.LessThan(b)
	})
	return out
}

func topN(coins []Coin, n int) []Coin {
	if len(coins) > n {
		return coins[:n]
	}
	return coins
}

// CoinBundles derives the seven standard ranked bundles from a coin list.
func CoinBundles(coins []Coin) []Bundle {
	rank := func(c Coin) decimal.Decimal { return decimal.NewFromInt(int64(c.Rank)) }
	volume := func(c Coin) decimal.Decimal { return num(c.Volume24h) }
	marketCap := func(c Coin) decimal.Decimal { return num(c.MarketCap) }
	change := func(c Coin) decimal.Decimal { return num(c.Change) }
	listedAt := func(c Coin) decimal.Decimal { return decimal.NewFromInt(c.ListedAt) }

	return []Bundle{
		makeBundle("Top Trending", topN(sortedBy(coins, false, rank), BundleSize)),
		makeBundle("Top Volume", topN(sortedBy(coins, true, volume), BundleSize)),
		makeBundle("Top Market Cap", topN(sortedBy(coins, true, marketCap), BundleSize)),
		makeBundle("Top Gainers", topN(sortedBy(coins, true, change), BundleSize)),
		makeBundle("Top Losers", topN(sortedBy(coins, false, change), BundleSize)),
		makeBundle("Newest", topN(sortedBy(coins, true, listedAt), BundleSize)),
		makeBundle("Oldest", topN(sortedBy(coins, false, listedAt), BundleSize)),
	}
}

// TagBundles derives one bundle per distinct tag label, each holding the
// tag's top coins by market cap.
func TagBundles(coins []Coin) []Bundle {
	byTag := make(map[string][]Coin)
	var order []string
	for _, c := range coins {
		if c.Tag == "" {
			continue
		}
		if _, seen := byTag[c.Tag]; !seen {
			order = append(order, c.Tag)
		}
		byTag[c.Tag] = append(byTag[c.Tag], c)
	}
	sort.Strings(order)

	bundles := make([]Bundle, 0, len(order))
	for _, tag := range order {
		members := sortedBy(byTag[tag], true, func(c Coin) decimal.Decimal { return num(c.MarketCap) })
		bundles = append(bundles, makeBundle(tag, topN(members, BundleSize)))
	}
	return bundles
}
