package swap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nomis/pkg/cart"
	"nomis/pkg/catalog"
	"nomis/pkg/chains"
	"nomis/pkg/odos"
	"nomis/pkg/types"
)

func quoterFixture(t *testing.T, handler http.HandlerFunc) (*Pipeline, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)

	chain, ok := chains.BySlug("ethereum")
	require.True(t, ok)

	client := odos.NewClient(&odos.ClientConfig{BaseURL: srv.URL})
	cat := catalog.New(nil, chain)

	c := cart.New()
	require.NoError(t, c.AddBuy(types.Token{Address: "0xaaa", Symbol: "AAA", Amount: "10", Price: "2"}))

	p := NewPipeline(client, cat, c, RequestParams{ChainID: chain.ChainID, UserAddr: "0xme"})
	return p, srv.Close
}

func TestQuoterLastRequestWins(t *testing.T) {
	var calls atomic.Int64
	p, closeSrv := quoterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			// first request stalls past the second trigger
			select {
			case <-r.Context().Done():
				return
			case <-time.After(2 * time.Second):
			}
			json.NewEncoder(w).Encode(map[string]any{"pathId": "first"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"pathId": "second"})
	})
	defer closeSrv()

	q := NewQuoter(p, 10*time.Millisecond)
	applied := make(chan string, 4)
	q.OnQuote = func(_ types.QuoteMode, _ string, quote *odos.NormalizedQuote) {
		applied <- quote.PathID
	}

	ctx := context.Background()
	q.Trigger(ctx, types.ModeBuy, "")

	// let the first request get in flight, then supersede it
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	q.Trigger(ctx, types.ModeBuy, "")

	select {
	case id := <-applied:
		require.Equal(t, "second", id)
	case <-time.After(3 * time.Second):
		t.Fatal("no quote applied")
	}

	got := p.Quote(types.ModeBuy, "")
	require.NotNil(t, got)
	require.Equal(t, "second", got.PathID)

	// the superseded first result must never surface
	select {
	case id := <-applied:
		t.Fatalf("stale quote applied: %s", id)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestQuoterDebounceCollapsesTriggers(t *testing.T) {
	var calls atomic.Int64
	p, closeSrv := quoterFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"pathId": "only"})
	})
	defer closeSrv()

	q := NewQuoter(p, 50*time.Millisecond)
	applied := make(chan struct{}, 4)
	q.OnQuote = func(types.QuoteMode, string, *odos.NormalizedQuote) { applied <- struct{}{} }

	ctx := context.Background()
	// three triggers inside one debounce window
	q.Trigger(ctx, types.ModeBuy, "")
	q.Trigger(ctx, types.ModeBuy, "")
	q.Trigger(ctx, types.ModeBuy, "")

	select {
	case <-applied:
	case <-time.After(2 * time.Second):
		t.Fatal("no quote applied")
	}
	require.Equal(t, int64(1), calls.Load())
}

func TestQuoterStop(t *testing.T) {
	var calls atomic.Int64
	p, closeSrv := quoterFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{"pathId": "x"})
	})
	defer closeSrv()

	q := NewQuoter(p, 20*time.Millisecond)
	q.Trigger(context.Background(), types.ModeBuy, "")
	q.Stop()

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int64(0), calls.Load())
	require.Nil(t, p.Quote(types.ModeBuy, ""))
}

func TestQuoterErrorCallback(t *testing.T) {
	p, closeSrv := quoterFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no viable path", http.StatusBadRequest)
	})
	defer closeSrv()

	q := NewQuoter(p, 10*time.Millisecond)
	errs := make(chan error, 1)
	q.OnError = func(err error) { errs <- err }

	q.Trigger(context.Background(), types.ModeBuy, "")

	select {
	case err := <-errs:
		require.Contains(t, err.Error(), "no viable path")
	case <-time.After(2 * time.Second):
		t.Fatal("no error surfaced")
	}
	require.Contains(t, p.LastError(), "no viable path")
}
