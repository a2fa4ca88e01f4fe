package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nomis/config"
	"nomis/pkg/catalog"
)

var bundlesByTag bool

var bundlesCmd = &cobra.Command{
	Use:   "bundles",
	Short: "Show curated token bundles for the selected chain",
	Long: `Show the curated token bundles built from the live catalog: trending,
volume, market cap, gainers, losers, newest and oldest listings. With --tags
the catalog is grouped into one bundle per Coinranking tag instead.

Examples:
  nomis bundles
  nomis bundles --chain base
  nomis bundles --tags`,
	Run: runBundles,
}

func init() {
	rootCmd.AddCommand(bundlesCmd)

	bundlesCmd.Flags().BoolVar(&bundlesByTag, "tags", false, "Group bundles by Coinranking tag")
}

func runBundles(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	chain, err := selectedChain()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cat := buildCatalog(cfg, chain)

	s := newSpinner("Building bundles...")
	if !jsonOutput {
		s.Start()
	}

	err = cat.Refresh(context.Background(), nil)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	var bundles []catalog.Bundle
	if bundlesByTag {
		bundles = catalog.TagBundles(cat.Coins())
	} else {
		bundles = catalog.CoinBundles(cat.Coins())
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(bundles, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayBundles(bundles)
	}
}

func displayBundles(bundles []catalog.Bundle) {
	if len(bundles) == 0 {
		fmt.Println("\nNot enough catalog data to build bundles.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                          TOKEN BUNDLES")
	fmt.Println(strings.Repeat("=", 70))

	for _, b := range bundles {
		fmt.Printf("\n  %s\n", color.CyanString(b.Name))
		fmt.Printf("    Avg Market Cap:  %s\n", b.MarketCap.String())
		fmt.Printf("    Avg Change:      %s%%\n", b.Change.String())
		fmt.Printf("    Avg 24h Volume:  %s\n", b.Volume24h.String())
		fmt.Printf("    Minimum Buy:     $%d\n", b.MinimumBuy)

		symbols := make([]string, 0, len(b.Coins))
		for _, c := range b.Coins {
			symbols = append(symbols, c.Symbol)
		}
		fmt.Printf("    Tokens:          %s\n", color.YellowString(strings.Join(symbols, ", ")))
	}
	fmt.Println()
}
