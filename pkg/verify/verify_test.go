package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nomis/config"
)

func verifyConfig() config.VerifyConfig {
	return config.VerifyConfig{
		ContractAddress: "0x1111111111111111111111111111111111111111",
		RPCUrl:          "https://forno.celo-sepolia.celo-testnet.org",
		AppName:         "Nomis Verify",
		Scope:           "proof-of-human-nomis",
		EndpointType:    "staging_celo",
	}
}

func TestNewSession(t *testing.T) {
	s := NewSession(verifyConfig(), "0xABCDEF0123456789abcdef0123456789ABCDEF01")

	require.Equal(t, 2, s.Version)
	require.Equal(t, "Nomis Verify", s.AppName)
	require.Equal(t, "proof-of-human-nomis", s.Scope)
	require.Equal(t, "0x1111111111111111111111111111111111111111", s.Endpoint)
	require.Equal(t, "staging_celo", s.EndpointType)
	require.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", s.UserID)
	require.Equal(t, "hex", s.UserIDType)

	require.Equal(t, 18, s.Disclosures.MinimumAge)
	require.True(t, s.Disclosures.OFAC)
	require.True(t, s.Disclosures.Nationality)
	require.Equal(t, []string{"USA"}, s.Disclosures.ExcludedCountries)
}

func TestNewSessionNoWallet(t *testing.T) {
	s := NewSession(verifyConfig(), "")
	require.Equal(t, ZeroAddress, s.UserID)
}

func TestUniversalLink(t *testing.T) {
	s := NewSession(verifyConfig(), "0xabc")

	link, err := s.UniversalLink()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://redirect.self.xyz?selfApp="))

	u, err := url.Parse(link)
	require.NoError(t, err)

	var decoded Session
	require.NoError(t, json.Unmarshal([]byte(u.Query().Get("selfApp")), &decoded))
	require.Equal(t, *s, decoded)
}

// fakeCaller answers registry views with canned return data
type fakeCaller struct {
	calls   int
	results []([]byte)
	err     error
}

func (f *fakeCaller) CallContract(_ context.Context, _ ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i], nil
}

func boolWord(v bool) []byte {
	out := make([]byte, 32)
	if v {
		out[31] = 1
	}
	return out
}

func TestIsVerified(t *testing.T) {
	caller := &fakeCaller{results: [][]byte{boolWord(true)}}
	reg, err := newRegistry(caller, common.HexToAddress("0x1111111111111111111111111111111111111111"))
	require.NoError(t, err)

	verified, err := reg.IsVerified(context.Background(), common.HexToAddress("0xabc"))
	require.NoError(t, err)
	require.True(t, verified)
}

func TestIsVerifiedCallError(t *testing.T) {
	caller := &fakeCaller{err: fmt.Errorf("connection refused")}
	reg, err := newRegistry(caller, common.Address{})
	require.NoError(t, err)

	_, err = reg.IsVerified(context.Background(), common.Address{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
}

func TestScope(t *testing.T) {
	word := make([]byte, 32)
	word[31] = 42
	caller := &fakeCaller{results: [][]byte{word}}
	reg, err := newRegistry(caller, common.Address{})
	require.NoError(t, err)

	scope, err := reg.Scope(context.Background())
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), scope)
}

func TestPollUntilVerified(t *testing.T) {
	// unverified twice, then verified
	caller := &fakeCaller{results: [][]byte{boolWord(false), boolWord(false), boolWord(true)}}
	reg, err := newRegistry(caller, common.Address{})
	require.NoError(t, err)

	verified, err := reg.PollUntilVerified(context.Background(), common.Address{}, time.Millisecond, 5)
	require.NoError(t, err)
	require.True(t, verified)
	require.Equal(t, 3, caller.calls)
}

func TestPollUntilVerifiedGivesUp(t *testing.T) {
	caller := &fakeCaller{results: [][]byte{boolWord(false)}}
	reg, err := newRegistry(caller, common.Address{})
	require.NoError(t, err)

	verified, err := reg.PollUntilVerified(context.Background(), common.Address{}, time.Millisecond, 3)
	require.NoError(t, err)
	require.False(t, verified)
	require.Equal(t, 3, caller.calls)
}

func TestPollUntilVerifiedContextCancelled(t *testing.T) {
	caller := &fakeCaller{results: [][]byte{boolWord(false)}}
	reg, err := newRegistry(caller, common.Address{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = reg.PollUntilVerified(ctx, common.Address{}, time.Hour, 5)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBlockedNationality(t *testing.T) {
	require.True(t, BlockedNationality("USA"))
	require.True(t, BlockedNationality("usa"))
	require.False(t, BlockedNationality("FRA"))
	require.False(t, BlockedNationality(""))
}
