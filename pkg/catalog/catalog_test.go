package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nomis/pkg/chains"
)

func TestAddressForChain(t *testing.T) {
	addrs := []string{"polygon/0xAAA", "ethereum/0xBbB", "base/0xCCC"}
	require.Equal(t, "0xbbb", addressForChain(addrs, "ethereum"))
	require.Equal(t, "0xaaa", addressForChain(addrs, "Polygon"))
	require.Equal(t, "", addressForChain(addrs, "sonic"))
	require.Equal(t, "", addressForChain(nil, "ethereum"))
}

func TestResolveDedupesAndDefaultsAddress(t *testing.T) {
	raw := []apiCoin{
		{UUID: "u1", Symbol: "ETH"},
		{UUID: "u1", Symbol: "ETH-DUP"},
		{UUID: "u2", Symbol: "PEPE", ContractAddresses: []string{"ethereum/0xDEF"}, Tags: []string{"meme", "erc20"}},
	}
	coins := resolve(raw, "ethereum")
	require.Len(t, coins, 2)
	require.Equal(t, chains.NativeAddress, coins[0].Address)
	require.Equal(t, "0xdef", coins[1].Address)
	require.Equal(t, "meme", coins[1].Tag)
}

func TestRefreshAndLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "ethereum", r.URL.Query().Get("blockchains[]"))
		w.Write([]byte(`{"status":"success","data":{"coins":[
			{"uuid":"u1","symbol":"USDC","price":"1.0","contractAddresses":["ethereum/0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"]},
			{"uuid":"u2","symbol":"PEPE","price":"0.00001","contractAddresses":["ethereum/0xPEPE"]}
		]}}`))
	}))
	defer srv.Close()

	eth, _ := chains.BySlug("ethereum")
	cat := New(NewClient(&ClientConfig{BaseURL: srv.URL}), eth)
	require.NoError(t, cat.Refresh(context.Background(), nil))
	require.Len(t, cat.Coins(), 2)

	coin, ok := cat.Lookup("0xPEPE")
	require.True(t, ok)
	require.Equal(t, "PEPE", coin.Symbol)

	// catalog listing wins over the fallback table
	addr, err := cat.StableAddress(chains.StableUSDC)
	require.NoError(t, err)
	require.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", addr)
}

func TestStableAddressFallback(t *testing.T) {
	eth, _ := chains.BySlug("ethereum")
	cat := New(NewClient(nil), eth)
	addr, err := cat.StableAddress(chains.StableUSDT)
	require.NoError(t, err)
	require.Equal(t, "0xdac17f958d2ee523a2206206994597c13d831ec7", addr)
}

func TestRefreshKeepsStateOnFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"status":"success","data":{"coins":[{"uuid":"u1","symbol":"AAA"}]}}`))
	}))
	defer srv.Close()

	eth, _ := chains.BySlug("ethereum")
	cat := New(NewClient(&ClientConfig{BaseURL: srv.URL}), eth)
	require.NoError(t, cat.Refresh(context.Background(), nil))

	err := cat.Refresh(context.Background(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limited")
	require.Len(t, cat.Coins(), 1)
}

func TestRefreshFallsBackToCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"success","data":{"coins":[{"uuid":"u1","symbol":"AAA"}]}}`))
	}))
	defer srv.Close()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	eth, _ := chains.BySlug("ethereum")
	cat := New(NewClient(&ClientConfig{BaseURL: srv.URL}), eth).WithCache(cache)
	require.NoError(t, cat.Refresh(context.Background(), nil))

	// API now failing; the cached copy keeps the catalog alive
	require.NoError(t, cat.Refresh(context.Background(), nil))
	require.Len(t, cat.Coins(), 1)
}
