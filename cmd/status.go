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
	"nomis/pkg/executor"
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a submitted transaction",
	Long: `Check the status of a submitted transaction on the selected chain.

Examples:
  nomis status 0x1234...abcd
  nomis status 0x1234...abcd --chain base`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	txHash := args[0]
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

	s := newSpinner("Checking transaction...")
	if !jsonOutput {
		s.Start()
	}

	info, err := exec.TransactionInfo(context.Background(), txHash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(info, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Hash:      %s\n", color.CyanString(txHash))
	for _, key := range []string{"status", "block_number", "gas_used", "to", "value", "pending"} {
		if v, ok := info[key]; ok {
			fmt.Printf("  %-12s %v\n", key+":", v)
		}
	}
	fmt.Printf("\n  Explorer:  %s/tx/%s\n\n", chain.Explorer, txHash)
}
