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

var (
	filterTags   []string
	filterSymbol string
)

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List the token catalog for the selected chain",
	Long: `List the Coinranking token catalog for the selected chain.

You can filter tokens by tag or symbol.

Examples:
  nomis tokens
  nomis tokens --chain base
  nomis tokens --tag meme --tag defi
  nomis tokens --symbol USDC`,
	Run: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringArrayVar(&filterTags, "tag", nil, "Filter by Coinranking tag (repeatable)")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runTokens(cmd *cobra.Command, args []string) {
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

	s := newSpinner("Fetching token catalog...")
	if !jsonOutput {
		s.Start()
	}

	err = cat.Refresh(context.Background(), filterTags)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	coins := cat.Coins()
	if filterSymbol != "" {
		var filtered []catalog.Coin
		for _, coin := range coins {
			if strings.Contains(strings.ToUpper(coin.Symbol), strings.ToUpper(filterSymbol)) {
				filtered = append(filtered, coin)
			}
		}
		coins = filtered
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(coins, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayCoins(coins, chain.Label)
	}
}

func displayCoins(coins []catalog.Coin, chainLabel string) {
	if len(coins) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                         %s TOKENS", strings.ToUpper(chainLabel))
	fmt.Println(strings.Repeat("=", 90))

	fmt.Printf("\n  %-5s %-10s %-28s %-14s %-14s %s\n", "RANK", "SYMBOL", "NAME", "PRICE", "CHANGE", "ADDRESS")
	fmt.Println("  " + strings.Repeat("-", 86))

	for _, coin := range coins {
		name := coin.Name
		if len(name) > 26 {
			name = name[:25] + "…"
		}
		addr := coin.Address
		if len(addr) > 14 {
			addr = addr[:10] + "…" + addr[len(addr)-4:]
		}
		fmt.Printf("  %-5d %-10s %-28s %-14s %-14s %s\n",
			coin.Rank,
			color.YellowString(coin.Symbol),
			name,
			coin.Price,
			coin.Change,
			addr,
		)
	}

	fmt.Printf("\nTotal: %d tokens\n\n", len(coins))
}
