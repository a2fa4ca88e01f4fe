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
	"nomis/pkg/moralis"
)

var includeSpam bool

var positionsCmd = &cobra.Command{
	Use:   "positions [wallet]",
	Short: "Show a wallet's token holdings",
	Long: `Show a wallet's token holdings on the selected chain, with balances
and USD valuations from Moralis. Tokens flagged as possible spam are hidden
unless --include-spam is set.

Examples:
  nomis positions 0xYourWallet
  nomis positions --chain base
  nomis positions --include-spam`,
	Args: cobra.MaximumNArgs(1),
	Run:  runPositions,
}

func init() {
	rootCmd.AddCommand(positionsCmd)

	positionsCmd.Flags().BoolVar(&includeSpam, "include-spam", false, "Include tokens flagged as possible spam")
}

func runPositions(cmd *cobra.Command, args []string) {
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

	wallet := cfg.WalletAddress
	if len(args) == 1 {
		wallet = args[0]
	}
	if wallet == "" {
		printError(fmt.Errorf("wallet address required: pass it as an argument or set wallet_address in config"))
		os.Exit(1)
	}

	client := moralis.NewClient(&moralis.ClientConfig{
		BaseURL: cfg.MoralisBaseURL,
		APIKey:  cfg.MoralisAPIKey,
	})

	s := newSpinner("Fetching wallet positions...")
	if !jsonOutput {
		s.Start()
	}

	// Moralis accepts hex chain ids for every chain it indexes
	positions, err := client.Positions(context.Background(), wallet, fmt.Sprintf("0x%x", chain.ChainID), moralis.PositionsOptions{IncludeSpam: includeSpam})
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(positions, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayPositions(positions, wallet, chain.Label)
	}
}

func displayPositions(positions []moralis.Position, wallet, chainLabel string) {
	if len(positions) == 0 {
		fmt.Println("\nNo token holdings found.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
	color.Green("                         WALLET POSITIONS")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("\n  Wallet:  %s\n", color.CyanString(wallet))
	fmt.Printf("  Chain:   %s\n\n", chainLabel)

	fmt.Printf("  %-10s %-16s %-14s %-14s %s\n", "SYMBOL", "BALANCE", "PRICE", "VALUE", "24H")
	fmt.Println("  " + strings.Repeat("-", 76))

	for _, p := range positions {
		change := fmt.Sprintf("%+.2f%%", p.Change24h)
		if p.Change24h < 0 {
			change = color.RedString(change)
		} else {
			change = color.GreenString(change)
		}
		fmt.Printf("  %-10s %-16s $%-13.4f $%-13.2f %s\n",
			color.YellowString(p.Symbol),
			p.FormattedAmount,
			p.USDPrice,
			p.USDValue,
			change,
		)
	}

	fmt.Printf("\n  Total Value: %s\n\n", color.GreenString("$%.2f", moralis.TotalValue(positions)))
}
