package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nomis/config"
	"nomis/pkg/executor"
	"nomis/pkg/odos"
	"nomis/pkg/swap"
	"nomis/pkg/types"
)

var (
	noConfirm    bool
	simulateOnly bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <buy|sell> [token]",
	Short: "Execute the cart as an aggregated swap",
	Long: `Execute the current cart as a single aggregated swap through Odos:
fetch a quote, assemble the transaction, set up any required token
allowances, and submit it on-chain.

The selected network must be configured with an RPC URL and private key.
A successful swap clears the cart; a failed one leaves it for retry.

Examples:
  nomis swap buy
  nomis swap sell --slippage 1
  nomis swap buy --simulate
  nomis swap buy --yes`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runSwapCart,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().Float64Var(&slippageFlag, "slippage", 0, "Slippage limit percent (default from config)")
	swapCmd.Flags().StringVar(&walletFlag, "wallet", "", "Wallet address (defaults to the configured signer)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapCmd.Flags().BoolVar(&simulateOnly, "simulate", false, "Assemble with simulation only, do not submit")
}

func runSwapCart(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
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

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	chain, err := selectedChain()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	netCfg, err := cfg.Network(chain.Slug)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	exec, err := executor.NewEVMExecutor(netCfg, chain.Slug)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer exec.Close()

	if walletFlag == "" {
		walletFlag = exec.Address().Hex()
	}

	// Quote
	s := newSpinner("Fetching quote...")
	if !jsonOutput {
		s.Start()
	}
	pipeline, _, _, _, err := quoteSetup(true)
	var quote *odos.NormalizedQuote
	if err == nil {
		pipeline.SetExecutor(exec)
		quote, err = pipeline.GetQuote(context.Background(), mode, tokenAddress)
	}
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if verbose {
		quoteJSON, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Printf("\nQuote received:\n%s\n", string(quoteJSON))
	}

	if !jsonOutput {
		displayQuote(quote, args[0])
	}

	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	// Assemble
	s = newSpinner("Assembling transaction...")
	if !jsonOutput {
		s.Start()
	}
	assembled, err := pipeline.AssembleTransaction(context.Background(), quote, mode, tokenAddress, simulateOnly)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if simulateOnly {
		if jsonOutput {
			jsonData, _ := json.MarshalIndent(assembled, "", "  ")
			fmt.Println(string(jsonData))
		} else {
			printSuccess(color.GreenString("Simulation assembled. Target: %s", assembled.CallTarget()))
		}
		return
	}

	// Execute
	s = newSpinner("Submitting swap...")
	if !jsonOutput {
		s.Start()
	}
	hash, err := pipeline.ExecuteSwap(context.Background(), swap.ExecuteOptions{
		Mode:         mode,
		TokenAddress: tokenAddress,
		Assembled:    assembled,
	})
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		if !jsonOutput {
			color.Yellow("The cart was kept so you can retry.\n")
		}
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"tx_hash": hash,
			"status":  "submitted",
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	color.Green("\n✓ Swap submitted!")
	fmt.Printf("  Transaction Hash: %s\n", color.CyanString(hash))
	fmt.Printf("  Explorer:         %s/tx/%s\n", chain.Explorer, hash)
	fmt.Println("\nYou can check the transaction with:")
	color.Cyan("  nomis status %s\n", hash)
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
