package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nomis/config"
	"nomis/pkg/verify"
)

var waitForProof bool

var verifyCmd = &cobra.Command{
	Use:   "verify [wallet]",
	Short: "Run the Self identity-verification flow",
	Long: `Run the Self identity-verification flow. Prints a universal link to
open in the Self mobile app; the passport proof requires minimum age 18,
an OFAC check and a disclosed nationality, and is written to the on-chain
registry.

With --wait the command polls the registry until the proof lands.

Examples:
  nomis verify 0xYourWallet
  nomis verify --wait`,
	Args: cobra.MaximumNArgs(1),
	Run:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().BoolVarP(&waitForProof, "wait", "w", false, "Poll the registry until verification lands on-chain")
}

func runVerify(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	wallet := cfg.WalletAddress
	if len(args) == 1 {
		wallet = args[0]
	}

	session := verify.NewSession(cfg.Verify, wallet)
	link, err := session.UniversalLink()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	registry, err := verify.NewRegistry(cfg.Verify)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	addr := common.HexToAddress(session.UserID)

	// already verified wallets skip the app flow entirely
	verified, err := registry.IsVerified(context.Background(), addr)
	if err == nil && verified {
		if jsonOutput {
			jsonData, _ := json.MarshalIndent(map[string]interface{}{"wallet": session.UserID, "verified": true}, "", "  ")
			fmt.Println(string(jsonData))
		} else {
			printSuccess(color.GreenString("✓ %s is already verified.", session.UserID))
		}
		return
	}

	if jsonOutput {
		output := map[string]interface{}{
			"wallet":   session.UserID,
			"verified": false,
			"link":     link,
			"session":  session,
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		fmt.Println("\n" + strings.Repeat("=", 70))
		color.Green("                     IDENTITY VERIFICATION")
		fmt.Println(strings.Repeat("=", 70))
		fmt.Printf("\n  Wallet:   %s\n", color.CyanString(session.UserID))
		fmt.Printf("  App:      %s\n", session.AppName)
		fmt.Printf("  Scope:    %s\n", session.Scope)
		fmt.Println("\nOpen this link on your phone with the Self app installed:")
		color.Cyan("\n  %s\n", link)
	}

	if !waitForProof {
		return
	}

	s := newSpinner("Waiting for the proof to land on-chain...")
	if !jsonOutput {
		s.Start()
	}
	verified, err = registry.PollUntilVerified(context.Background(), addr, verify.DefaultPollInterval, verify.DefaultPollAttempts)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if !verified {
		printError(fmt.Errorf("verification did not complete in time; run 'nomis verify' again to re-check"))
		os.Exit(1)
	}

	printSuccess(color.GreenString("✓ Verification complete."))
}
