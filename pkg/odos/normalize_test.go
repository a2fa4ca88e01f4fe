package odos

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) *QuoteResponse {
	t.Helper()
	var q QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &q))
	return &q
}

func TestNormalizeDefaultsToZero(t *testing.T) {
	n := NormalizeQuote(decode(t, `{}`), nil, "")
	require.Equal(t, 0.0, n.GasEstimateValue)
	require.Equal(t, 0.0, n.NetOutValue)
	require.Empty(t, n.OutValues)
	require.Empty(t, n.InputTokens)
	require.Equal(t, "", n.PathID)
}

func TestNormalizeGasAliases(t *testing.T) {
	n := NormalizeQuote(decode(t, `{"gasEstimateValue": 1.25}`), nil, "")
	require.Equal(t, 1.25, n.GasEstimateValue)

	n = NormalizeQuote(decode(t, `{"gasEstimate": 2.5}`), nil, "")
	require.Equal(t, 2.5, n.GasEstimateValue)
}

func TestNormalizeNetOutFromOutputTokens(t *testing.T) {
	raw := `{"outputTokens":[
		{"tokenAddress":"0xAAA","amount":"5000000"},
		{"tokenAddress":"0xBBB","amount":"7000000"}
	]}`
	lookup := func(addr string, def int) int { return 6 }

	n := NormalizeQuote(decode(t, raw), lookup, "0xBBB")
	require.InDelta(t, 7.0, n.NetOutValue, 1e-12)

	// unknown preferred address falls back to the first output
	n = NormalizeQuote(decode(t, raw), lookup, "0xCCC")
	require.InDelta(t, 5.0, n.NetOutValue, 1e-12)
}

func TestNormalizeNonNumericAmountDoesNotFail(t *testing.T) {
	raw := `{"outputTokens":[{"tokenAddress":"0xAAA","amount":"garbage"}],
		"inputTokens":[{"tokenAddress":"0xBBB","amount":"2.5e6"}]}`
	n := NormalizeQuote(decode(t, raw), func(string, int) int { return 6 }, "0xAAA")

	require.Equal(t, 0.0, n.NetOutValue)
	require.Len(t, n.InputTokens, 1)
	require.InDelta(t, 2.5, n.InputTokens[0].HumanAmount, 1e-9)
	require.True(t, n.DegradedPrecision)
}

func TestNormalizeInputHumanAmounts(t *testing.T) {
	raw := `{"inputs":[{"token":"0xUSDC","amount":"20000000"}]}`
	lookup := func(addr string, def int) int {
		if addr == "0xUSDC" {
			return 6
		}
		return def
	}
	n := NormalizeQuote(decode(t, raw), lookup, "")
	require.Len(t, n.InputTokens, 1)
	require.InDelta(t, 20.0, n.InputTokens[0].HumanAmount, 1e-12)
	require.False(t, n.DegradedPrecision)
}

func TestNormalizeOutValues(t *testing.T) {
	n := NormalizeQuote(decode(t, `{"outValues":["1.5", 2, "bad"]}`), nil, "")
	require.Equal(t, []float64{1.5, 2, 0}, n.OutValues)
}

func TestPathIDAliases(t *testing.T) {
	require.Equal(t, "p1", decode(t, `{"pathId":"p1","id":"x"}`).PathID())
	require.Equal(t, "p2", decode(t, `{"id":"p2"}`).PathID())
	require.Equal(t, "p3", decode(t, `{"quoteId":"p3"}`).PathID())
	require.Equal(t, "p4", decode(t, `{"path":{"id":"p4"}}`).PathID())
	require.Equal(t, "", decode(t, `{}`).PathID())
}

func TestNormalizeNilQuote(t *testing.T) {
	n := NormalizeQuote(nil, nil, "")
	require.Equal(t, 0.0, n.NetOutValue)
}
