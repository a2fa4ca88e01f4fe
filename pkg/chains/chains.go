package chains

import "strings"

// Network describes a supported EVM network
type Network struct {
	Label    string
	Slug     string // Coinranking blockchain filter value
	ChainID  int64
	Explorer string
}

// NativeAddress is the placeholder used when a coin has no contract on the
// active chain (native assets).
const NativeAddress = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

var networks = []Network{
	{Label: "Ethereum", Slug: "ethereum", ChainID: 1, Explorer: "https://etherscan.io"},
	{Label: "Polygon", Slug: "polygon", ChainID: 137, Explorer: "https://polygonscan.com"},
	{Label: "Sonic", Slug: "sonic", ChainID: 146, Explorer: "https://sonicscan.org"},
	{Label: "BASE", Slug: "base", ChainID: 8453, Explorer: "https://basescan.org"},
	{Label: "Arbitrum", Slug: "arbitrum", ChainID: 42161, Explorer: "https://arbiscan.io"},
	{Label: "Optimism", Slug: "optimism", ChainID: 10, Explorer: "https://optimistic.etherscan.io"},
}

// Default is the network assumed when none is selected.
var Default = networks[0]

// All returns the supported network table
func All() []Network {
	return networks
}

// ByID looks up a network by chain id
func ByID(chainID int64) (Network, bool) {
	for _, n := range networks {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return Network{}, false
}

// BySlug looks up a network by its slug (case-insensitive)
func BySlug(slug string) (Network, bool) {
	for _, n := range networks {
		if strings.EqualFold(n.Slug, slug) {
			return n, true
		}
	}
	return Network{}, false
}

// StableSymbol identifies a supported settlement stablecoin
type StableSymbol string

const (
	StableUSDC  StableSymbol = "USDC"
	StableUSDT  StableSymbol = "USDT"
	StablePYUSD StableSymbol = "PYUSD"
)

// stableFallbacks maps chain id to well-known stablecoin contract addresses,
// used when the market catalog does not list the symbol for the chain.
var stableFallbacks = map[int64]map[StableSymbol]string{
	1: {
		StableUSDC:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		StableUSDT:  "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		StablePYUSD: "0x6c3ea9036406852006290770BEdFcAbA0e23A0e8",
	},
	10: {
		StableUSDC: "0x7F5c764cBc14f9669B88837ca1490cCa17c31607",
		StableUSDT: "0x94b008aA00579c1307B0EF2c499aD98a8ce58e58",
	},
	42161: {
		StableUSDC: "0xaf88d065e77c8cc2239327c5edb3a432268e5831",
		StableUSDT: "0xfd086bc7cd5c481dcc9c85ebe478a1c0b69fcbb9",
	},
	8453: {
		StableUSDC: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	},
	137: {
		StableUSDC: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		StableUSDT: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F",
	},
}

// StableFallback returns the well-known address for a stablecoin on a chain,
// or "" when none is known.
func StableFallback(chainID int64, symbol StableSymbol) string {
	return stableFallbacks[chainID][symbol]
}

// StableOption is a settlement stablecoin available on a chain
type StableOption struct {
	Symbol  StableSymbol
	Address string
}

// StableOptions lists the stablecoins usable on a chain. PYUSD is only
// offered on Ethereum mainnet.
func StableOptions(chainID int64) []StableOption {
	var opts []StableOption
	for _, sym := range []StableSymbol{StableUSDC, StableUSDT, StablePYUSD} {
		if sym == StablePYUSD && chainID != 1 {
			continue
		}
		if addr := StableFallback(chainID, sym); addr != "" {
			opts = append(opts, StableOption{Symbol: sym, Address: addr})
		}
	}
	return opts
}
