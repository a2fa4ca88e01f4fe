package odos

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// DecimalsFunc resolves a token's decimals from the catalog, falling back to
// def for unknown tokens.
type DecimalsFunc func(address string, def int) int

// NormalizedInput is a quote input with its amount made human-readable
type NormalizedInput struct {
	TokenAmount
	HumanAmount float64 `json:"humanAmount"`
}

// NormalizedQuote is the flat numeric view of a quote. Every field is
// defined; missing or malformed data collapses to zero rather than failing.
type NormalizedQuote struct {
	Raw              *QuoteResponse    `json:"-"`
	GasEstimateValue float64           `json:"gasEstimateValue"`
	NetOutValue      float64           `json:"netOutValue"`
	OutValues        []float64         `json:"outValues"`
	InputTokens      []NormalizedInput `json:"inputTokens"`
	PathID           string            `json:"pathId"`

	// DegradedPrecision is set when a base-unit amount failed big-integer
	// parsing and the float fallback was used.
	DegradedPrecision bool `json:"-"`
}

func parseFloatOr(s string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// humanize converts a base-unit integer string to a float amount. The exact
// big-integer path is preferred; a malformed amount falls back to float
// division, trading precision for availability.
func humanize(amount string, decimals int) (val float64, degraded bool) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, false
	}
	if v, ok := new(big.Int).SetString(amount, 10); ok {
		f := new(big.Float).SetInt(v)
		f.Quo(f, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))
		out, _ := f.Float64()
		return out, false
	}
	return parseFloatOr(amount, 0) / math.Pow(10, float64(decimals)), true
}

// NormalizeQuote flattens a raw aggregator quote into defined numerics.
// preferredOutput selects which output token netOutValue is derived from;
// its decimals come from the catalog (default 6, the stables' precision).
func NormalizeQuote(q *QuoteResponse, decimalsOf DecimalsFunc, preferredOutput string) *NormalizedQuote {
	n := &NormalizedQuote{Raw: q, OutValues: []float64{}}
	if q == nil {
		return n
	}
	if decimalsOf == nil {
		decimalsOf = func(string, int) int { return 18 }
	}

	switch {
	case q.GasEstimateValue != nil:
		n.GasEstimateValue = *q.GasEstimateValue
	case q.GasEstimate != nil:
		n.GasEstimateValue = *q.GasEstimate
	}

	outAddr := strings.ToLower(preferredOutput)
	outDecimals := 18
	if outAddr != "" {
		outDecimals = decimalsOf(preferredOutput, 6)
	}

	if len(q.OutputTokens) > 0 {
		chosen := q.OutputTokens[0]
		for _, o := range q.OutputTokens {
			if strings.ToLower(o.GetAddress()) == outAddr {
				chosen = o
				break
			}
		}
		if chosen.Amount != "" {
			val, degraded := humanize(string(chosen.Amount), outDecimals)
			n.NetOutValue = val
			n.DegradedPrecision = n.DegradedPrecision || degraded
		} else if q.NetOutValue != nil {
			n.NetOutValue = *q.NetOutValue
		}
	} else if q.NetOutValue != nil {
		n.NetOutValue = *q.NetOutValue
	}

	for _, v := range q.OutValues {
		n.OutValues = append(n.OutValues, parseFloatOr(string(v), 0))
	}

	inputs := q.GetInputTokens()
	n.InputTokens = make([]NormalizedInput, 0, len(inputs))
	for _, it := range inputs {
		dec := it.Decimals
		if dec <= 0 {
			dec = 18
		}
		dec = decimalsOf(it.GetAddress(), dec)
		val, degraded := humanize(string(it.Amount), dec)
		n.DegradedPrecision = n.DegradedPrecision || degraded
		n.InputTokens = append(n.InputTokens, NormalizedInput{TokenAmount: it, HumanAmount: val})
	}

	n.PathID = q.PathID()
	return n
}
