package swap

import (
	"context"
	"errors"
	"sync"
	"time"

	"nomis/pkg/odos"
	"nomis/pkg/types"
)

// DefaultDebounce is how long the quoter waits after the last cart change
// before fetching a fresh quote.
const DefaultDebounce = 500 * time.Millisecond

// Quoter refreshes quotes as the cart changes. Rapid triggers collapse into
// one request after the debounce window, an in-flight request is cancelled
// when a newer trigger arrives, and only the latest request's result is
// applied.
type Quoter struct {
	pipeline *Pipeline
	debounce time.Duration

	OnQuote func(mode types.QuoteMode, tokenAddress string, quote *odos.NormalizedQuote)
	OnError func(err error)

	mu     sync.Mutex
	timer  *time.Timer
	cancel context.CancelFunc
	gen    uint64
}

func NewQuoter(pipeline *Pipeline, debounce time.Duration) *Quoter {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Quoter{pipeline: pipeline, debounce: debounce}
}

// Trigger schedules a quote refresh for the mode. Each call resets the
// debounce timer and invalidates any earlier pending or in-flight refresh.
func (q *Quoter) Trigger(ctx context.Context, mode types.QuoteMode, tokenAddress string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.gen++
	gen := q.gen

	if q.timer != nil {
		q.timer.Stop()
	}
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}

	q.timer = time.AfterFunc(q.debounce, func() {
		q.fetch(ctx, gen, mode, tokenAddress)
	})
}

// Stop cancels any pending or in-flight refresh
func (q *Quoter) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	if q.cancel != nil {
		q.cancel()
		q.cancel = nil
	}
}

func (q *Quoter) fetch(ctx context.Context, gen uint64, mode types.QuoteMode, tokenAddress string) {
	q.mu.Lock()
	if gen != q.gen {
		q.mu.Unlock()
		return
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.mu.Unlock()
	defer cancel()

	quote, err := q.pipeline.QuoteOnce(fetchCtx, mode, tokenAddress)

	q.mu.Lock()
	stale := gen != q.gen
	q.mu.Unlock()
	if stale || errors.Is(err, context.Canceled) {
		// superseded by a newer trigger
		return
	}

	if err != nil {
		q.pipeline.setError(err)
		if q.OnError != nil {
			q.OnError(err)
		}
		return
	}

	q.pipeline.setError(nil)
	q.pipeline.applyQuote(mode, tokenAddress, quote)
	if q.OnQuote != nil {
		q.OnQuote(mode, tokenAddress, quote)
	}
}
