// Package units converts human decimal amounts to integer token base units
// without going through floating point.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ProportionDecimals is the fixed-point precision used when partitioning a
// spend across output tokens.
const ProportionDecimals = 18

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
	ten = big.NewInt(10)
)

// Scale returns 10^decimals
func Scale(decimals int) *big.Int {
	return new(big.Int).Exp(ten, big.NewInt(int64(decimals)), nil)
}

// Decimal is an exact decimal value: Int / Scale
type Decimal struct {
	Int   *big.Int
	Scale *big.Int
}

// ParseDecimal parses a non-negative decimal string exactly. Empty input
// parses as zero.
func ParseDecimal(s string) (Decimal, error) {
	str := strings.TrimSpace(s)
	if str == "" {
		return Decimal{Int: new(big.Int), Scale: new(big.Int).Set(one)}, nil
	}

	whole, frac, hasDot := strings.Cut(str, ".")
	if strings.Contains(frac, ".") {
		return Decimal{}, fmt.Errorf("invalid decimal %q: multiple dots", s)
	}
	if whole == "" {
		whole = "0" // ".5" case
	}
	if !hasDot {
		frac = ""
	}

	combined := whole + frac
	v, ok := new(big.Int).SetString(combined, 10)
	if !ok || v.Sign() < 0 {
		return Decimal{}, fmt.Errorf("invalid decimal %q", s)
	}

	scale := Scale(len(frac))
	return Decimal{Int: v, Scale: scale}, nil
}

// MulToUnits multiplies two decimal strings (typically amount x price) and
// scales the product into 10^decimals base units, rounding half-up at the
// final division.
func MulToUnits(a, b string, decimals int) (*big.Int, error) {
	da, err := ParseDecimal(a)
	if err != nil {
		return nil, err
	}
	db, err := ParseDecimal(b)
	if err != nil {
		return nil, err
	}

	productInt := new(big.Int).Mul(da.Int, db.Int)
	productScale := new(big.Int).Mul(da.Scale, db.Scale)

	// (productInt * 10^decimals + productScale/2) / productScale
	numerator := new(big.Int).Mul(productInt, Scale(decimals))
	numerator.Add(numerator, new(big.Int).Div(productScale, two))
	return numerator.Div(numerator, productScale), nil
}

// ToUnits converts a decimal amount string to base units, truncating
// fractional digits beyond the token's precision.
func ToUnits(amount string, decimals int) (*big.Int, error) {
	d, err := ParseDecimal(amount)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).Mul(d.Int, Scale(decimals))
	return v.Div(v, d.Scale), nil
}

// FromUnits converts base units back to an exact human-readable decimal.
func FromUnits(x *big.Int, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(x, -int32(decimals))
}

// FromUnitsFloat converts base units to a float64, accepting precision loss.
func FromUnitsFloat(x *big.Int, decimals int) float64 {
	f, _ := FromUnits(x, decimals).Float64()
	return f
}

// SplitProportions partitions the given per-token base-unit values into
// 18-decimal fixed-point proportions of their total. The parts always sum
// to exactly 10^18; any rounding remainder is applied to the last entry.
func SplitProportions(perToken []*big.Int) ([]*big.Int, error) {
	if len(perToken) == 0 {
		return nil, fmt.Errorf("no tokens to partition")
	}

	total := new(big.Int)
	for _, u := range perToken {
		if u != nil {
			total.Add(total, u)
		}
	}
	if total.Sign() <= 0 {
		return nil, fmt.Errorf("missing price or amount data for tokens")
	}

	scale := Scale(ProportionDecimals)
	parts := make([]*big.Int, len(perToken))
	sum := new(big.Int)
	for i, u := range perToken {
		if u == nil {
			u = new(big.Int)
		}
		p := new(big.Int).Mul(u, scale)
		p.Div(p, total)
		parts[i] = p
		sum.Add(sum, p)
	}

	if rem := new(big.Int).Sub(scale, sum); rem.Sign() != 0 {
		parts[len(parts)-1].Add(parts[len(parts)-1], rem)
	}
	return parts, nil
}

// ProportionFloat converts an 18-decimal fixed-point proportion to a float
// for the aggregator request body.
func ProportionFloat(part *big.Int) float64 {
	return FromUnitsFloat(part, ProportionDecimals)
}
