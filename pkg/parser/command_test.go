package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCartCommand(t *testing.T) {
	tests := []struct {
		input  string
		amount string
		token  string
	}{
		{"25 PEPE", "25", "PEPE"},
		{"0.5 WETH", "0.5", "WETH"},
		{"100 0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "100", "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"},
		{"PEPE", "", "PEPE"},
		{"  25   PEPE  ", "25", "PEPE"},
	}

	for _, tt := range tests {
		entry, err := ParseCartCommand(tt.input)
		require.NoError(t, err, tt.input)
		require.Equal(t, tt.amount, entry.Amount, tt.input)
		require.Equal(t, tt.token, entry.Token, tt.input)
	}
}

func TestParseCartCommandInvalid(t *testing.T) {
	for _, input := range []string{"", "25 PEPE extra", "two words three"} {
		_, err := ParseCartCommand(input)
		require.Error(t, err, input)
	}
}

func TestIsAddress(t *testing.T) {
	require.True(t, IsAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"))
	require.True(t, IsAddress("0XA0B86991C6218B36C1D19D4A2E9EB0CE3606EB48"))
	require.False(t, IsAddress("PEPE"))
}

func TestNormalizeTokenSymbol(t *testing.T) {
	require.Equal(t, "ETH", NormalizeTokenSymbol("ethereum"))
	require.Equal(t, "POL", NormalizeTokenSymbol("matic"))
	require.Equal(t, "PEPE", NormalizeTokenSymbol(" pepe "))
}
