package catalog

import (
	"context"
	"fmt"
	"strings"

	"nomis/pkg/chains"
)

// Coin is a catalog entry with its chain-specific address resolved
type Coin struct {
	UUID      string   `json:"uuid"`
	Symbol    string   `json:"symbol"`
	Name      string   `json:"name"`
	IconURL   string   `json:"iconUrl"`
	Rank      int      `json:"rank"`
	Price     string   `json:"price"`
	MarketCap string   `json:"marketCap"`
	Change    string   `json:"change"`
	Volume24h string   `json:"24hVolume"`
	ListedAt  int64    `json:"listedAt"`
	Address   string   `json:"address"`
	Tag       string   `json:"tag,omitempty"`
	Decimals  int      `json:"decimals,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// Catalog holds the deduplicated token list for one chain. A failed refresh
// leaves the previous state in place.
type Catalog struct {
	client *Client
	cache  *Cache
	chain  chains.Network

	coins  []Coin
	byAddr map[string]*Coin
}

// New creates a catalog for the given chain
func New(client *Client, chain chains.Network) *Catalog {
	return &Catalog{
		client: client,
		chain:  chain,
		byAddr: make(map[string]*Coin),
	}
}

// WithCache attaches a local cache used as a fallback when the API errors
func (c *Catalog) WithCache(cache *Cache) *Catalog {
	c.cache = cache
	return c
}

// addressForChain resolves the contract address for a chain from
// "<chain>/<address>" entries. Returns "" when no entry matches.
func addressForChain(contractAddresses []string, chain string) string {
	prefix := strings.ToLower(chain) + "/"
	for _, entry := range contractAddresses {
		if strings.HasPrefix(strings.ToLower(entry), prefix) {
			return strings.ToLower(entry[len(prefix):])
		}
	}
	return ""
}

// resolve converts wire coins into catalog entries: dedupe by uuid (first
// occurrence wins) and pin each coin's address for the active chain.
func resolve(raw []apiCoin, chain string) []Coin {
	seen := make(map[string]bool, len(raw))
	coins := make([]Coin, 0, len(raw))
	for _, t := range raw {
		if t.UUID == "" || seen[t.UUID] {
			continue
		}
		seen[t.UUID] = true

		addr := addressForChain(t.ContractAddresses, chain)
		if addr == "" {
			addr = chains.NativeAddress
		}

		var tag string
		if len(t.Tags) > 0 {
			tag = t.Tags[0]
		}

		coins = append(coins, Coin{
			UUID:      t.UUID,
			Symbol:    t.Symbol,
			Name:      t.Name,
			IconURL:   t.IconURL,
			Rank:      t.Rank,
			Price:     t.Price,
			MarketCap: t.MarketCap,
			Change:    t.Change,
			Volume24h: t.Volume24h,
			ListedAt:  t.ListedAt,
			Address:   addr,
			Tag:       tag,
			Tags:      t.Tags,
		})
	}
	return coins
}

// Refresh fetches the token list for the catalog's chain. On failure the
// cached copy is served when available; otherwise the previous in-memory
// state is kept and the error returned.
func (c *Catalog) Refresh(ctx context.Context, tags []string) error {
	raw, err := c.client.FetchCoins(ctx, c.chain.Slug, tags, DefaultLimit)
	if err != nil {
		if c.cache != nil {
			if cached, cacheErr := c.cache.Get(c.chain.Slug, tags); cacheErr == nil {
				c.install(resolve(cached, c.chain.Slug))
				return nil
			}
		}
		return fmt.Errorf("failed to fetch market tokens: %w", err)
	}

	if c.cache != nil {
		_ = c.cache.Put(c.chain.Slug, tags, raw)
	}
	c.install(resolve(raw, c.chain.Slug))
	return nil
}

func (c *Catalog) install(coins []Coin) {
	byAddr := make(map[string]*Coin, len(coins))
	for i := range coins {
		if _, dup := byAddr[coins[i].Address]; !dup {
			byAddr[coins[i].Address] = &coins[i]
		}
	}
	c.coins = coins
	c.byAddr = byAddr
}

// Coins returns the current token list
func (c *Catalog) Coins() []Coin {
	return c.coins
}

// Chain returns the catalog's network
func (c *Catalog) Chain() chains.Network {
	return c.chain
}

// Lookup finds a coin by its contract address (case-insensitive)
func (c *Catalog) Lookup(address string) (*Coin, bool) {
	coin, ok := c.byAddr[strings.ToLower(address)]
	return coin, ok
}

// BySymbol finds a coin by symbol (case-insensitive, exact match)
func (c *Catalog) BySymbol(symbol string) (*Coin, bool) {
	for i := range c.coins {
		if strings.EqualFold(c.coins[i].Symbol, symbol) {
			return &c.coins[i], true
		}
	}
	return nil, false
}

// DecimalsOr returns the catalog's decimals for an address, or def when the
// token is unknown or carries no decimals metadata.
func (c *Catalog) DecimalsOr(address string, def int) int {
	if coin, ok := c.Lookup(address); ok && coin.Decimals > 0 {
		return coin.Decimals
	}
	return def
}

// StableAddress resolves a settlement stablecoin for the catalog's chain,
// preferring the catalog listing over the built-in fallback table.
func (c *Catalog) StableAddress(symbol chains.StableSymbol) (string, error) {
	if coin, ok := c.BySymbol(string(symbol)); ok && coin.Address != "" {
		return coin.Address, nil
	}
	if addr := chains.StableFallback(c.chain.ChainID, symbol); addr != "" {
		return strings.ToLower(addr), nil
	}
	return "", fmt.Errorf("%s address not found for chain %s", symbol, c.chain.Slug)
}
