package swap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"nomis/pkg/cart"
	"nomis/pkg/catalog"
	"nomis/pkg/chains"
	"nomis/pkg/executor"
	"nomis/pkg/odos"
	"nomis/pkg/types"
)

// maxApprovals bounds how many approvals one swap will set up.
const maxApprovals = 5

// ChainExecutor is the on-chain surface the pipeline needs. Satisfied by
// executor.EVMExecutor.
type ChainExecutor interface {
	Address() common.Address
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	ApproveCalldata(spender common.Address, amount *big.Int) ([]byte, error)
	EnsureAllowance(ctx context.Context, token, spender common.Address, required *big.Int) error
	SendCall(ctx context.Context, to common.Address, data []byte, value *big.Int) (string, error)
}

// ExecuteOptions tunes a single swap execution
type ExecuteOptions struct {
	Mode         types.QuoteMode
	TokenAddress string
	Assembled    *odos.AssembleResponse
}

// Pipeline holds the per-cart swap state: the latest normalized quotes and
// the assembled transaction waiting for execution.
type Pipeline struct {
	client  *odos.Client
	catalog *catalog.Catalog
	cart    *cart.Cart
	params  RequestParams

	buyStable  chains.StableSymbol
	sellStable chains.StableSymbol

	exec  ChainExecutor
	batch executor.BatchSender

	mu             sync.Mutex
	buyQuote       *odos.NormalizedQuote
	sellQuote      *odos.NormalizedQuote
	perTokenQuotes map[string]*odos.NormalizedQuote
	assembled      *odos.AssembleResponse
	lastError      string
}

// NewPipeline wires the swap pipeline for one cart on one chain
func NewPipeline(client *odos.Client, cat *catalog.Catalog, c *cart.Cart, params RequestParams) *Pipeline {
	return &Pipeline{
		client:         client,
		catalog:        cat,
		cart:           c,
		params:         params,
		buyStable:      chains.StableUSDC,
		sellStable:     chains.StableUSDC,
		perTokenQuotes: make(map[string]*odos.NormalizedQuote),
	}
}

// SetStables selects the settlement stablecoins for buys and sells
func (p *Pipeline) SetStables(buy, sell chains.StableSymbol) {
	p.buyStable = buy
	p.sellStable = sell
}

// SetExecutor attaches the on-chain executor used at execution time
func (p *Pipeline) SetExecutor(exec ChainExecutor) {
	p.exec = exec
}

// SetBatchSender attaches a smart-wallet batch sender. When present,
// approvals and the swap run as one atomic operation.
func (p *Pipeline) SetBatchSender(batch executor.BatchSender) {
	p.batch = batch
}

// LastError returns the most recent pipeline error message, "" when none.
func (p *Pipeline) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastError
}

func (p *Pipeline) setError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		p.lastError = ""
	} else {
		p.lastError = err.Error()
	}
}

func (p *Pipeline) decimalsOf(address string, def int) int {
	if p.catalog == nil {
		return def
	}
	return p.catalog.DecimalsOr(address, def)
}

// QuoteOnce fetches and normalizes a quote for the mode without touching
// pipeline state. Used by the debounced quoter, which applies results only
// when they are still current.
func (p *Pipeline) QuoteOnce(ctx context.Context, mode types.QuoteMode, tokenAddress string) (*odos.NormalizedQuote, error) {
	if p.params.UserAddr == "" {
		return nil, fmt.Errorf("chain or wallet missing")
	}
	if p.catalog == nil || p.params.ChainID == 0 {
		return nil, fmt.Errorf("chain or wallet missing")
	}

	var req *odos.QuoteRequest
	var preferredOutput string
	var err error

	switch mode {
	case types.ModeBuy:
		var stableAddr string
		stableAddr, err = p.catalog.StableAddress(p.buyStable)
		if err != nil {
			return nil, err
		}
		dec := p.decimalsOf(stableAddr, 6)
		req, err = BuildBuyRequest(p.cart.BuyTokens(), stableAddr, dec, p.params)
	case types.ModeSell:
		var stableAddr string
		stableAddr, err = p.catalog.StableAddress(p.sellStable)
		if err != nil {
			return nil, err
		}
		preferredOutput = stableAddr
		req, err = BuildSellRequest(p.cart.SellTokens(), p.decimalsOf, stableAddr, p.params)
	case types.ModePerToken:
		var stableAddr string
		stableAddr, err = p.catalog.StableAddress(p.buyStable)
		if err != nil {
			return nil, err
		}
		spend := p.cart.Amount(tokenAddress)
		if spend == "" {
			spend = "1"
		}
		req, err = BuildPerTokenRequest(tokenAddress, spend, stableAddr, p.decimalsOf(stableAddr, 6), p.params)
	default:
		return nil, fmt.Errorf("unknown quote mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	raw, err := p.client.Quote(ctx, req)
	if err != nil {
		return nil, err
	}
	return odos.NormalizeQuote(raw, p.decimalsOf, preferredOutput), nil
}

// applyQuote stores a normalized quote as the current one for its mode
func (p *Pipeline) applyQuote(mode types.QuoteMode, tokenAddress string, quote *odos.NormalizedQuote) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch mode {
	case types.ModeBuy:
		p.buyQuote = quote
	case types.ModeSell:
		p.sellQuote = quote
	case types.ModePerToken:
		p.perTokenQuotes[strings.ToLower(tokenAddress)] = quote
	}
}

// GetQuote fetches a quote and records it as current. A cancelled context
// propagates as context.Canceled; callers treat that as a silent no-op.
func (p *Pipeline) GetQuote(ctx context.Context, mode types.QuoteMode, tokenAddress string) (*odos.NormalizedQuote, error) {
	quote, err := p.QuoteOnce(ctx, mode, tokenAddress)
	if err != nil {
		if ctx.Err() == nil {
			p.setError(err)
		}
		return nil, err
	}
	p.setError(nil)
	p.applyQuote(mode, tokenAddress, quote)
	return quote, nil
}

// Quote returns the stored quote for a mode, nil when absent
func (p *Pipeline) Quote(mode types.QuoteMode, tokenAddress string) *odos.NormalizedQuote {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch mode {
	case types.ModeSell:
		return p.sellQuote
	case types.ModePerToken:
		return p.perTokenQuotes[strings.ToLower(tokenAddress)]
	default:
		return p.buyQuote
	}
}

// AssembleTransaction converts the given quote (or the stored one for the
// mode) into a submittable transaction via the aggregator.
func (p *Pipeline) AssembleTransaction(ctx context.Context, quote *odos.NormalizedQuote, mode types.QuoteMode, tokenAddress string, simulate bool) (*odos.AssembleResponse, error) {
	if quote == nil {
		quote = p.Quote(mode, tokenAddress)
	}
	if quote == nil {
		err := fmt.Errorf("requested quote not available")
		p.setError(err)
		return nil, err
	}
	if quote.PathID == "" {
		err := fmt.Errorf("quote missing id")
		p.setError(err)
		return nil, err
	}

	assembled, err := p.client.Assemble(ctx, p.params.UserAddr, quote.PathID, simulate)
	if err != nil {
		p.setError(err)
		p.mu.Lock()
		p.assembled = nil
		p.mu.Unlock()
		return nil, err
	}

	p.setError(nil)
	p.mu.Lock()
	p.assembled = assembled
	p.mu.Unlock()
	return assembled, nil
}

// approval is a resolved ERC-20 approval requirement
type approval struct {
	token   common.Address
	spender common.Address
	amount  *big.Int
}

// resolveApprovals picks the approval source in priority order: assembled
// approvals, assembled input tokens, quote approvals, quote input tokens.
// The first non-empty source wins.
func resolveApprovals(assembled *odos.AssembleResponse, quote *odos.NormalizedQuote, swapTarget string) []approval {
	push := func(out []approval, token, spender string) []approval {
		if token == "" || spender == "" || len(out) >= maxApprovals {
			return out
		}
		return append(out, approval{
			token:   common.HexToAddress(token),
			spender: common.HexToAddress(spender),
			amount:  executor.MaxUint256,
		})
	}

	var out []approval
	if aps := assembled.GetApprovals(); len(aps) > 0 {
		for _, a := range aps {
			out = push(out, a.GetToken(), a.GetSpender(swapTarget))
		}
		return out
	}
	if its := assembled.GetInputTokens(); len(its) > 0 {
		for _, it := range its {
			out = push(out, it.GetAddress(), swapTarget)
		}
		return out
	}
	if quote != nil {
		if aps := quote.Raw.GetApprovals(); len(aps) > 0 {
			for _, a := range aps {
				out = push(out, a.GetToken(), a.GetSpender(swapTarget))
			}
			return out
		}
		for _, it := range quote.InputTokens {
			out = push(out, it.GetAddress(), swapTarget)
		}
	}
	return out
}

// ExecuteSwap submits the assembled transaction. With a batch sender the
// needed approvals and the swap go out as one atomic operation; otherwise
// (or when the batched path fails) approvals and the swap run as sequential
// plain transactions, each awaited for one confirmation. Success clears the
// cart; failure keeps it for retry.
func (p *Pipeline) ExecuteSwap(ctx context.Context, opts ExecuteOptions) (string, error) {
	hash, err := p.executeSwap(ctx, opts)
	if err != nil {
		p.setError(err)
		return "", err
	}

	p.setError(nil)
	if clearErr := p.cart.Clear(); clearErr != nil {
		return hash, fmt.Errorf("swap sent as %s but clearing cart failed: %w", hash, clearErr)
	}
	p.mu.Lock()
	p.buyQuote = nil
	p.sellQuote = nil
	p.perTokenQuotes = make(map[string]*odos.NormalizedQuote)
	p.assembled = nil
	p.mu.Unlock()
	return hash, nil
}

func (p *Pipeline) executeSwap(ctx context.Context, opts ExecuteOptions) (string, error) {
	assembled := opts.Assembled
	if assembled == nil {
		p.mu.Lock()
		assembled = p.assembled
		p.mu.Unlock()
	}
	if assembled == nil {
		return "", fmt.Errorf("no assembled transaction; run assemble first")
	}

	target := assembled.CallTarget()
	calldata := assembled.CallData()
	if target == "" || calldata == "" {
		return "", fmt.Errorf("assemble response missing to/data")
	}
	to := common.HexToAddress(target)
	data := common.FromHex(calldata)
	value := assembled.CallValue()

	quote := p.Quote(opts.Mode, opts.TokenAddress)
	approvals := resolveApprovals(assembled, quote, target)

	if p.batch != nil {
		hash, err := p.executeBatched(ctx, to, data, value, approvals)
		if err == nil {
			return hash, nil
		}
		// batched path failed; fall back to sequential plain transactions
	}

	if p.exec == nil {
		return "", fmt.Errorf("signer/provider required to send transaction")
	}

	inputs := inputTokensFor(quote, assembled)
	for _, ap := range approvals {
		required := requiredAmountFor(ap.token, inputs)
		if err := p.exec.EnsureAllowance(ctx, ap.token, ap.spender, required); err != nil {
			return "", err
		}
	}

	return p.exec.SendCall(ctx, to, data, value)
}

func inputTokensFor(quote *odos.NormalizedQuote, assembled *odos.AssembleResponse) []odos.TokenAmount {
	if quote != nil && len(quote.InputTokens) > 0 {
		out := make([]odos.TokenAmount, len(quote.InputTokens))
		for i, it := range quote.InputTokens {
			out[i] = it.TokenAmount
		}
		return out
	}
	return assembled.GetInputTokens()
}

// requiredAmountFor picks the exact allowance a token needs from the swap
// inputs, defaulting to unlimited when no amount is determinable.
func requiredAmountFor(token common.Address, inputs []odos.TokenAmount) *big.Int {
	for _, it := range inputs {
		if common.HexToAddress(it.GetAddress()) != token {
			continue
		}
		if required, ok := new(big.Int).SetString(string(it.Amount), 10); ok && required.Sign() > 0 {
			return required
		}
	}
	return executor.MaxUint256
}

// executeBatched assembles approve calls for approvals lacking allowance and
// submits them with the swap as one user operation.
func (p *Pipeline) executeBatched(ctx context.Context, to common.Address, data []byte, value *big.Int, approvals []approval) (string, error) {
	if p.exec == nil {
		return "", fmt.Errorf("executor required to encode approvals")
	}

	var calls []executor.Call
	owner := p.exec.Address()
	for _, ap := range approvals {
		current, err := p.exec.Allowance(ctx, ap.token, owner, ap.spender)
		if err != nil {
			current = new(big.Int)
		}
		required := ap.amount
		if required == nil || required.Sign() <= 0 {
			required = executor.MaxUint256
		}
		if current.Cmp(required) < 0 {
			calldata, err := p.exec.ApproveCalldata(ap.spender, required)
			if err != nil {
				return "", err
			}
			calls = append(calls, executor.Call{To: ap.token, Data: calldata, Value: new(big.Int)})
		}
	}

	calls = append(calls, executor.Call{To: to, Data: data, Value: value})
	return p.batch.SendBatch(ctx, calls)
}
