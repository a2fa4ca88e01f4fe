package cart

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nomis/pkg/types"
)

func TestAddBuyIsIdempotent(t *testing.T) {
	c := New()
	require.NoError(t, c.AddBuy(types.Token{Address: "0xAAA", Symbol: "AAA"}))
	require.NoError(t, c.AddBuy(types.Token{Address: "0xaaa", Symbol: "AAA"}))
	require.Len(t, c.BuyTokens(), 1)
}

func TestCartCapsAtFive(t *testing.T) {
	c := New()
	for i := 0; i < MaxCartSize; i++ {
		require.NoError(t, c.AddBuy(types.Token{Address: fmt.Sprintf("0x%d", i)}))
	}
	err := c.AddBuy(types.Token{Address: "0xoverflow"})
	require.Error(t, err)
	require.Len(t, c.BuyTokens(), MaxCartSize)

	// re-adding an existing entry is still a no-op, not a cap error
	require.NoError(t, c.AddBuy(types.Token{Address: "0x0"}))
}

func TestRemoveBuyClearsAmount(t *testing.T) {
	c := New()
	require.NoError(t, c.AddBuy(types.Token{Address: "0xAAA"}))
	require.NoError(t, c.SetAmount("0xAAA", "12.5"))
	require.Equal(t, "12.5", c.Amount("0xaaa"))

	require.NoError(t, c.RemoveBuy("0xAAA"))
	require.Empty(t, c.BuyTokens())
	require.Equal(t, "", c.Amount("0xAAA"))
}

func TestBuyTokensCarryAmounts(t *testing.T) {
	c := New()
	require.NoError(t, c.AddBuy(types.Token{Address: "0xAAA", Amount: "3"}))
	require.NoError(t, c.AddBuy(types.Token{Address: "0xBBB"}))
	require.NoError(t, c.SetAmount("0xAAA", "10"))

	tokens := c.BuyTokens()
	require.Equal(t, "10", tokens[0].Amount) // amounts map wins
	require.Equal(t, "0", tokens[1].Amount)  // default
}

func TestClear(t *testing.T) {
	c := New()
	require.NoError(t, c.AddBuy(types.Token{Address: "0xAAA"}))
	require.NoError(t, c.AddSell(types.Token{Address: "0xBBB"}))
	require.NoError(t, c.SetAmount("0xAAA", "1"))

	require.NoError(t, c.Clear())
	require.True(t, c.Empty())
	require.Equal(t, "", c.Amount("0xAAA"))
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	store, err := NewStore(path)
	require.NoError(t, err)

	c, err := Open(store)
	require.NoError(t, err)
	require.NoError(t, c.AddBuy(types.Token{Address: "0xAAA", Symbol: "AAA"}))
	require.NoError(t, c.SetAmount("0xAAA", "2.5"))

	reopened, err := Open(store)
	require.NoError(t, err)
	tokens := reopened.BuyTokens()
	require.Len(t, tokens, 1)
	require.Equal(t, "2.5", tokens[0].Amount)
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	c, err := Open(store)
	require.NoError(t, err)
	require.True(t, c.Empty())
}
