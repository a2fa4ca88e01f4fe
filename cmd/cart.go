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
	"nomis/pkg/cart"
	"nomis/pkg/catalog"
	"nomis/pkg/parser"
	"nomis/pkg/types"
)

var cartSide string

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the buy and sell carts",
	Long: `Manage the buy and sell carts. The cart persists between invocations,
so you can build it up across several commands before quoting or swapping.

Each side holds at most five tokens.

Examples:
  nomis cart add 25 PEPE
  nomis cart add WETH --side sell
  nomis cart amount PEPE 50
  nomis cart remove PEPE
  nomis cart show
  nomis cart clear`,
}

var cartAddCmd = &cobra.Command{
	Use:   "add [amount] <token>",
	Short: "Add a token to the cart",
	Args:  cobra.RangeArgs(1, 2),
	Run:   runCartAdd,
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <token>",
	Short: "Remove a token from the cart",
	Args:  cobra.ExactArgs(1),
	Run:   runCartRemove,
}

var cartAmountCmd = &cobra.Command{
	Use:   "amount <token> <amount>",
	Short: "Set the spend amount for a cart token",
	Args:  cobra.ExactArgs(2),
	Run:   runCartAmount,
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current cart",
	Run:   runCartShow,
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty both cart sides",
	Run:   runCartClear,
}

func init() {
	rootCmd.AddCommand(cartCmd)
	cartCmd.AddCommand(cartAddCmd, cartRemoveCmd, cartAmountCmd, cartShowCmd, cartClearCmd)

	cartCmd.PersistentFlags().StringVar(&cartSide, "side", "buy", "Cart side: buy or sell")
}

// resolveToken turns a symbol or address argument into a cart token, using
// the live catalog for symbol lookups and metadata.
func resolveToken(ref string) (types.Token, error) {
	chain, err := selectedChain()
	if err != nil {
		return types.Token{}, err
	}
	cfg, err := config.Load()
	if err != nil {
		return types.Token{}, err
	}

	cat := buildCatalog(cfg, chain)

	s := newSpinner("Looking up token...")
	s.Start()
	refreshErr := cat.Refresh(context.Background(), nil)
	s.Stop()

	var coin *catalog.Coin
	var ok bool
	if parser.IsAddress(ref) {
		coin, ok = cat.Lookup(ref)
		if !ok {
			// an unknown address is still addable, without metadata
			return types.Token{Address: strings.ToLower(ref)}, nil
		}
	} else {
		coin, ok = cat.BySymbol(parser.NormalizeTokenSymbol(ref))
		if !ok {
			if refreshErr != nil {
				return types.Token{}, refreshErr
			}
			return types.Token{}, fmt.Errorf("token %s not found in catalog", ref)
		}
	}

	return types.Token{
		Address:  coin.Address,
		Symbol:   coin.Symbol,
		Name:     coin.Name,
		Decimals: coin.Decimals,
		Price:    coin.Price,
		IconURL:  coin.IconURL,
	}, nil
}

func runCartAdd(cmd *cobra.Command, args []string) {
	entry, err := parser.ParseCartCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	token, err := resolveToken(entry.Token)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	c, err := openCart()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	switch cartSide {
	case "buy":
		err = c.AddBuy(token)
	case "sell":
		err = c.AddSell(token)
	default:
		err = fmt.Errorf("invalid side %q: must be buy or sell", cartSide)
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if entry.Amount != "" {
		if err := c.SetAmount(token.Address, entry.Amount); err != nil {
			printError(err)
			os.Exit(1)
		}
	}

	label := token.Symbol
	if label == "" {
		label = token.Address
	}
	printSuccess(color.GreenString("Added %s to the %s cart.", label, cartSide))
}

func runCartRemove(cmd *cobra.Command, args []string) {
	c, err := openCart()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	address := cartAddressFor(c, args[0])
	switch cartSide {
	case "buy":
		err = c.RemoveBuy(address)
	case "sell":
		err = c.RemoveSell(address)
	default:
		err = fmt.Errorf("invalid side %q: must be buy or sell", cartSide)
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Removed %s from the %s cart.", args[0], cartSide))
}

func runCartAmount(cmd *cobra.Command, args []string) {
	c, err := openCart()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	address := cartAddressFor(c, args[0])
	if err := c.SetAmount(address, args[1]); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Set %s amount to %s.", args[0], args[1]))
}

// cartAddressFor resolves a symbol against what is already in the cart so
// remove and amount work without a catalog round trip.
func cartAddressFor(c *cart.Cart, ref string) string {
	if parser.IsAddress(ref) {
		return ref
	}
	symbol := parser.NormalizeTokenSymbol(ref)
	for _, t := range append(c.BuyTokens(), c.SellTokens()...) {
		if strings.EqualFold(t.Symbol, symbol) {
			return t.Address
		}
	}
	return ref
}

func runCartShow(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	c, err := openCart()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		output := map[string]interface{}{
			"buy":  c.BuyTokens(),
			"sell": c.SellTokens(),
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	if c.Empty() {
		fmt.Println("\nThe cart is empty.")
		return
	}

	displayCartSide("BUY CART", c.BuyTokens())
	displayCartSide("SELL CART", c.SellTokens())
	fmt.Println()
}

func displayCartSide(title string, tokens []types.Token) {
	if len(tokens) == 0 {
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                      %s", title)
	fmt.Println(strings.Repeat("=", 60))

	for _, t := range tokens {
		label := t.Symbol
		if label == "" {
			label = t.Address
		}
		fmt.Printf("  %-10s amount: %-12s %s\n", color.YellowString(label), t.Amount, t.Address)
	}
}

func runCartClear(cmd *cobra.Command, args []string) {
	c, err := openCart()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if err := c.Clear(); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess("Cart cleared.")
}
