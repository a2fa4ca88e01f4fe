package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in    string
		int_  string
		scale string
	}{
		{"", "0", "1"},
		{"0", "0", "1"},
		{"10", "10", "1"},
		{"1.5", "15", "10"},
		{".5", "5", "10"},
		{"0.000001", "1", "1000000"},
		{"123.456", "123456", "1000"},
	}
	for _, tt := range tests {
		d, err := ParseDecimal(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.int_, d.Int.String(), tt.in)
		require.Equal(t, tt.scale, d.Scale.String(), tt.in)
	}
}

func TestParseDecimalRejectsGarbage(t *testing.T) {
	for _, in := range []string{"abc", "1.2.3", "-5", "1e5"} {
		_, err := ParseDecimal(in)
		require.Error(t, err, in)
	}
}

func TestMulToUnits(t *testing.T) {
	// 10 tokens at $2 settled in a 6-decimal stable
	got, err := MulToUnits("10", "2", 6)
	require.NoError(t, err)
	require.Equal(t, "20000000", got.String())
}

func TestMulToUnitsRoundsHalfUp(t *testing.T) {
	// 0.0000005 at scale 6 sits exactly on the boundary
	got, err := MulToUnits("0.0000005", "1", 6)
	require.NoError(t, err)
	require.Equal(t, "1", got.String())

	got, err = MulToUnits("0.0000004", "1", 6)
	require.NoError(t, err)
	require.Equal(t, "0", got.String())
}

func TestToUnitsTruncatesExcessPrecision(t *testing.T) {
	got, err := ToUnits("1.2345678", 6)
	require.NoError(t, err)
	require.Equal(t, "1234567", got.String())

	got, err = ToUnits("2", 18)
	require.NoError(t, err)
	require.Equal(t, "2000000000000000000", got.String())
}

func TestSplitProportionsSumsToUnit(t *testing.T) {
	// Three uneven weights that do not divide 10^18 evenly
	in := []*big.Int{big.NewInt(1), big.NewInt(1), big.NewInt(1)}
	parts, err := SplitProportions(in)
	require.NoError(t, err)

	sum := new(big.Int)
	for _, p := range parts {
		sum.Add(sum, p)
	}
	require.Equal(t, Scale(ProportionDecimals).String(), sum.String())

	// remainder lands on the last entry
	require.Equal(t, parts[0].String(), parts[1].String())
	require.Equal(t, 1, parts[2].Cmp(parts[0]))
}

func TestSplitProportionsWeighted(t *testing.T) {
	in := []*big.Int{big.NewInt(3), big.NewInt(1)}
	parts, err := SplitProportions(in)
	require.NoError(t, err)
	require.Equal(t, "750000000000000000", parts[0].String())
	require.Equal(t, "250000000000000000", parts[1].String())
}

func TestSplitProportionsZeroTotal(t *testing.T) {
	_, err := SplitProportions([]*big.Int{big.NewInt(0), big.NewInt(0)})
	require.Error(t, err)
}

func TestFromUnits(t *testing.T) {
	v := big.NewInt(20000000)
	require.Equal(t, "20", FromUnits(v, 6).String())
	require.InDelta(t, 20.0, FromUnitsFloat(v, 6), 1e-12)
}
