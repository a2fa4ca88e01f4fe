package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"nomis/config"
	"nomis/pkg/cart"
	"nomis/pkg/catalog"
	"nomis/pkg/chains"
)

var chainFlag string

var rootCmd = &cobra.Command{
	Use:   "nomis",
	Short: "A portfolio dashboard for bundled token swaps via the Odos aggregator",
	Long: `nomis is a command-line portfolio dashboard: browse curated token
bundles, build buy and sell carts, and execute the whole cart as a single
aggregated swap through Odos.

Examples:
  nomis tokens
  nomis bundles --tags
  nomis cart add 0xa0b8...eb48 --amount 25
  nomis quote buy
  nomis swap buy --slippage 1
  nomis positions 0xYourWallet`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&chainFlag, "chain", chains.Default.Slug, "Network to operate on (ethereum, polygon, sonic, base, arbitrum, optimism)")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}

func newSpinner(suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + suffix
	return s
}

func selectedChain() (chains.Network, error) {
	chain, ok := chains.BySlug(chainFlag)
	if !ok {
		return chains.Network{}, fmt.Errorf("unsupported chain: %s", chainFlag)
	}
	return chain, nil
}

// buildCatalog wires the token catalog for the chain, with the local cache
// attached when a cache path is configured.
func buildCatalog(cfg *config.Config, chain chains.Network) *catalog.Catalog {
	client := catalog.NewClient(&catalog.ClientConfig{
		BaseURL: cfg.CoinrankingBaseURL,
		APIKey:  cfg.CoinrankingAPIKey,
	})
	cat := catalog.New(client, chain)
	if cfg.CachePath != "" {
		if cache, err := catalog.OpenCache(cfg.CachePath); err == nil {
			cat.WithCache(cache)
		}
	}
	return cat
}

// openCart loads the persisted cart so consecutive invocations share state
func openCart() (*cart.Cart, error) {
	store, err := cart.NewStore("")
	if err != nil {
		return nil, err
	}
	return cart.Open(store)
}
