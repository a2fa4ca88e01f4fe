package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nomis/config"
	"nomis/pkg/cart"
	"nomis/pkg/catalog"
	"nomis/pkg/chains"
	"nomis/pkg/odos"
	"nomis/pkg/swap"
	"nomis/pkg/types"
)

var (
	slippageFlag  float64
	walletFlag    string
	watchQuotes   bool
	watchInterval int
)

var quoteCmd = &cobra.Command{
	Use:   "quote <buy|sell> [token]",
	Short: "Quote the cart through the Odos aggregator",
	Long: `Quote the current cart through the Odos aggregator without executing
anything. A buy quote spends the settlement stable across the buy cart in
proportion to each token's value; a sell quote converts the sell cart back
into the stable. With a token argument, a single-token quote is fetched
instead.

Examples:
  nomis quote buy
  nomis quote sell
  nomis quote buy PEPE
  nomis quote buy --slippage 1`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().Float64Var(&slippageFlag, "slippage", 0, "Slippage limit percent (default from config)")
	quoteCmd.Flags().StringVar(&walletFlag, "wallet", "", "Wallet address the quote is priced for")
	quoteCmd.Flags().BoolVarP(&watchQuotes, "watch", "w", false, "Keep re-quoting as prices move")
	quoteCmd.Flags().IntVar(&watchInterval, "interval", 10, "Re-quote interval in seconds (when watching)")
}

// quoteSetup wires the pipeline shared by the quote and swap commands
func quoteSetup(refresh bool) (*swap.Pipeline, *cart.Cart, *catalog.Catalog, chains.Network, error) {
	chain, err := selectedChain()
	if err != nil {
		return nil, nil, nil, chains.Network{}, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, chains.Network{}, err
	}

	wallet := walletFlag
	if wallet == "" {
		wallet = cfg.WalletAddress
	}
	if wallet == "" {
		return nil, nil, nil, chains.Network{}, fmt.Errorf("wallet address required: set wallet_address in config or pass --wallet")
	}

	slippage := slippageFlag
	if slippage == 0 {
		slippage = cfg.SlippagePercent
	}

	c, err := openCart()
	if err != nil {
		return nil, nil, nil, chains.Network{}, err
	}

	cat := buildCatalog(cfg, chain)
	if refresh {
		if err := cat.Refresh(context.Background(), nil); err != nil {
			return nil, nil, nil, chains.Network{}, err
		}
	}

	client := odos.NewClient(&odos.ClientConfig{BaseURL: cfg.OdosBaseURL})
	pipeline := swap.NewPipeline(client, cat, c, swap.RequestParams{
		ChainID:         chain.ChainID,
		UserAddr:        wallet,
		SlippagePercent: slippage,
		ReferralCode:    cfg.ReferralCode,
	})
	return pipeline, c, cat, chain, nil
}

func quoteModeFor(arg string) (types.QuoteMode, error) {
	switch strings.ToLower(arg) {
	case "buy":
		return types.ModeBuy, nil
	case "sell":
		return types.ModeSell, nil
	default:
		return "", fmt.Errorf("invalid quote side %q: must be buy or sell", arg)
	}
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	mode, err := quoteModeFor(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	var tokenAddress string
	if len(args) == 2 {
		token, err := resolveToken(args[1])
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		tokenAddress = token.Address
		mode = types.ModePerToken
	}

	s := newSpinner("Fetching quote...")
	if !jsonOutput {
		s.Start()
	}

	pipeline, _, _, _, err := quoteSetup(true)
	var quote *odos.NormalizedQuote
	if err == nil {
		quote, err = pipeline.GetQuote(context.Background(), mode, tokenAddress)
	}
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if watchQuotes {
		watchQuoteUpdates(pipeline, mode, tokenAddress, args[0], jsonOutput)
		return
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayQuote(quote, args[0])
	}
}

func displayQuote(quote *odos.NormalizedQuote, side string) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      %s QUOTE", strings.ToUpper(side))
	fmt.Println(strings.Repeat("=", 60))

	for _, in := range quote.InputTokens {
		fmt.Printf("\n  In:               %s (%s base units)\n", formatAmount(in.HumanAmount), string(in.Amount))
		fmt.Printf("  Token:            %s\n", color.CyanString(in.GetAddress()))
	}

	fmt.Printf("\n  Net Out Value:    $%s\n", formatAmount(quote.NetOutValue))
	fmt.Printf("  Gas Estimate:     $%s\n", formatAmount(quote.GasEstimateValue))
	if quote.PathID != "" {
		fmt.Printf("  Path ID:          %s\n", quote.PathID)
	}
	if quote.DegradedPrecision {
		color.Yellow("\n  Some amounts were approximated from non-integer API data.")
	}
	fmt.Println()
}

func formatAmount(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}

// watchQuoteUpdates keeps re-quoting on an interval. The quoter collapses
// rapid triggers and discards superseded responses, so slow answers never
// overwrite fresher ones.
func watchQuoteUpdates(pipeline *swap.Pipeline, mode types.QuoteMode, tokenAddress, side string, jsonOutput bool) {
	quoter := swap.NewQuoter(pipeline, swap.DefaultDebounce)
	quoter.OnQuote = func(_ types.QuoteMode, _ string, quote *odos.NormalizedQuote) {
		if jsonOutput {
			jsonData, _ := json.MarshalIndent(quote, "", "  ")
			fmt.Println(string(jsonData))
			return
		}
		fmt.Printf("\n[%s] refreshed\n", time.Now().Format("15:04:05"))
		displayQuote(quote, side)
	}
	quoter.OnError = func(err error) {
		printError(err)
	}
	defer quoter.Stop()

	if !jsonOutput {
		fmt.Printf("\nWatching quotes every %d seconds. Press Ctrl+C to stop.\n", watchInterval)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nStopped watching.")
			return
		case <-ticker.C:
			quoter.Trigger(ctx, mode, tokenAddress)
		}
	}
}
