// Package swap drives the quote, assemble, execute pipeline against the
// aggregator and the connected wallet.
package swap

import (
	"fmt"
	"math/big"

	"nomis/pkg/odos"
	"nomis/pkg/types"
	"nomis/pkg/units"
)

// DefaultSlippagePercent is applied when the caller does not override it.
const DefaultSlippagePercent = 0.5

// RequestParams carries the cart-independent pieces of a quote request
type RequestParams struct {
	ChainID         int64
	UserAddr        string
	SlippagePercent float64
	ReferralCode    int64
}

func (p RequestParams) slippage() float64 {
	if p.SlippagePercent > 0 {
		return p.SlippagePercent
	}
	return DefaultSlippagePercent
}

// BuildBuyRequest builds the quote body for a multi-token buy: the total
// spend in the settlement stable, partitioned across the cart tokens in
// proportion to each token's value (amount x price), computed in exact
// fixed-point arithmetic.
func BuildBuyRequest(tokens []types.Token, stableAddr string, stableDecimals int, params RequestParams) (*odos.QuoteRequest, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("buy cart is empty")
	}

	perToken := make([]*big.Int, len(tokens))
	total := new(big.Int)
	for i, t := range tokens {
		u, err := units.MulToUnits(t.Amount, t.Price, stableDecimals)
		if err != nil {
			u = new(big.Int)
		}
		perToken[i] = u
		total.Add(total, u)
	}
	if total.Sign() <= 0 {
		return nil, fmt.Errorf("missing price or amount data for tokens")
	}

	parts, err := units.SplitProportions(perToken)
	if err != nil {
		return nil, err
	}

	outputs := make([]odos.OutputToken, len(tokens))
	for i, t := range tokens {
		outputs[i] = odos.OutputToken{
			TokenAddress: t.Address,
			Proportion:   units.ProportionFloat(parts[i]),
		}
	}

	return &odos.QuoteRequest{
		ChainID:              params.ChainID,
		Compact:              true,
		InputTokens:          []odos.InputToken{{TokenAddress: stableAddr, Amount: total.String()}},
		OutputTokens:         outputs,
		SlippageLimitPercent: params.slippage(),
		UserAddr:             params.UserAddr,
		ReferralCode:         params.ReferralCode,
	}, nil
}

// BuildSellRequest builds the quote body for selling cart tokens into the
// settlement stable. Tokens with a zero, empty, or unparseable amount are
// skipped.
func BuildSellRequest(tokens []types.Token, decimalsOf odos.DecimalsFunc, stableAddr string, params RequestParams) (*odos.QuoteRequest, error) {
	var inputs []odos.InputToken
	for _, t := range tokens {
		dec := t.Decimals
		if dec <= 0 {
			dec = 18
		}
		if decimalsOf != nil {
			dec = decimalsOf(t.Address, dec)
		}
		u, err := units.ToUnits(t.Amount, dec)
		if err != nil || u.Sign() <= 0 {
			continue
		}
		inputs = append(inputs, odos.InputToken{TokenAddress: t.Address, Amount: u.String()})
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no sell amounts set")
	}

	return &odos.QuoteRequest{
		ChainID:              params.ChainID,
		Compact:              true,
		InputTokens:          inputs,
		OutputTokens:         []odos.OutputToken{{TokenAddress: stableAddr, Proportion: 1}},
		SlippageLimitPercent: params.slippage(),
		UserAddr:             params.UserAddr,
		ReferralCode:         params.ReferralCode,
	}, nil
}

// BuildPerTokenRequest builds the quote body for buying a single token with
// a fixed spend of the settlement stable.
func BuildPerTokenRequest(tokenAddr, spend string, stableAddr string, stableDecimals int, params RequestParams) (*odos.QuoteRequest, error) {
	if tokenAddr == "" {
		return nil, fmt.Errorf("token address required")
	}
	u, err := units.ToUnits(spend, stableDecimals)
	if err != nil {
		return nil, fmt.Errorf("invalid spend amount: %w", err)
	}
	if u.Sign() <= 0 {
		return nil, fmt.Errorf("spend amount must be greater than 0")
	}

	return &odos.QuoteRequest{
		ChainID:              params.ChainID,
		Compact:              true,
		InputTokens:          []odos.InputToken{{TokenAddress: stableAddr, Amount: u.String()}},
		OutputTokens:         []odos.OutputToken{{TokenAddress: tokenAddr, Proportion: 1}},
		SlippageLimitPercent: params.slippage(),
		UserAddr:             params.UserAddr,
		ReferralCode:         params.ReferralCode,
	}, nil
}
