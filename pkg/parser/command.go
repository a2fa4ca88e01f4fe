package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// CartEntry is a parsed cart instruction: which token and, for buys, how
// much of the settlement stable to spend on it.
type CartEntry struct {
	Amount string
	Token  string // symbol or 0x address, as given
}

var (
	// <amount> <token>, e.g. "25 PEPE", "0.5 WETH", "100 0xa0b8...eb48"
	amountTokenPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+(\S+)$`)
	// bare token, e.g. "PEPE" or "0xa0b8...eb48"
	tokenPattern = regexp.MustCompile(`^(\S+)$`)
)

// ParseCartCommand parses a cart instruction.
// Examples:
//   - "25 PEPE"       buy $25 worth of PEPE
//   - "PEPE"          add PEPE with no amount yet
//   - "0.5 0xa0b8..." amounts work with raw addresses too
func ParseCartCommand(command string) (*CartEntry, error) {
	command = strings.TrimSpace(command)

	if matches := amountTokenPattern.FindStringSubmatch(command); matches != nil {
		return &CartEntry{Amount: matches[1], Token: matches[2]}, nil
	}
	if matches := tokenPattern.FindStringSubmatch(command); matches != nil {
		return &CartEntry{Token: matches[1]}, nil
	}
	return nil, fmt.Errorf("invalid cart command format. Expected: '[amount] <token>' (e.g., '25 PEPE')")
}

// IsAddress reports whether a token reference is a hex contract address
// rather than a symbol.
func IsAddress(token string) bool {
	return strings.HasPrefix(strings.ToLower(token), "0x")
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Handle common aliases
	aliases := map[string]string{
		"ETHEREUM": "ETH",
		"MATIC":    "POL",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
