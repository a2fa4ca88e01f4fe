package swap

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nomis/pkg/cart"
	"nomis/pkg/executor"
	"nomis/pkg/odos"
	"nomis/pkg/types"
)

type sentCall struct {
	to    common.Address
	data  []byte
	value *big.Int
}

type ensuredAllowance struct {
	token    common.Address
	spender  common.Address
	required *big.Int
}

type fakeExec struct {
	addr       common.Address
	allowances map[common.Address]*big.Int
	sent       []sentCall
	ensured    []ensuredAllowance
	sendErr    error
}

func (f *fakeExec) Address() common.Address { return f.addr }

func (f *fakeExec) Allowance(_ context.Context, token, _, _ common.Address) (*big.Int, error) {
	if a, ok := f.allowances[token]; ok {
		return new(big.Int).Set(a), nil
	}
	return new(big.Int), nil
}

func (f *fakeExec) ApproveCalldata(spender common.Address, amount *big.Int) ([]byte, error) {
	return []byte(fmt.Sprintf("approve:%s:%s", spender.Hex(), amount.String())), nil
}

func (f *fakeExec) EnsureAllowance(_ context.Context, token, spender common.Address, required *big.Int) error {
	f.ensured = append(f.ensured, ensuredAllowance{token: token, spender: spender, required: required})
	return nil
}

func (f *fakeExec) SendCall(_ context.Context, to common.Address, data []byte, value *big.Int) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, sentCall{to: to, data: data, value: value})
	return "0xhash", nil
}

type fakeBatch struct {
	calls [][]executor.Call
	err   error
}

func (f *fakeBatch) SendBatch(_ context.Context, calls []executor.Call) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, calls)
	return "0xbatch", nil
}

func assembleFromJSON(t *testing.T, body string) *odos.AssembleResponse {
	t.Helper()
	var out odos.AssembleResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return &out
}

func cartWith(t *testing.T, tokens ...types.Token) *cart.Cart {
	t.Helper()
	c := cart.New()
	for _, tok := range tokens {
		require.NoError(t, c.AddBuy(tok))
	}
	return c
}

func TestExecuteSwapMissingCallFields(t *testing.T) {
	fe := &fakeExec{}
	c := cartWith(t, types.Token{Address: "0xaaa", Symbol: "AAA"})
	p := NewPipeline(nil, nil, c, RequestParams{ChainID: 1, UserAddr: "0xme"})
	p.SetExecutor(fe)

	assembled := assembleFromJSON(t, `{"gas": 100}`)

	_, err := p.ExecuteSwap(context.Background(), ExecuteOptions{Mode: types.ModeBuy, Assembled: assembled})
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing to/data")

	// nothing submitted, cart untouched
	require.Empty(t, fe.sent)
	require.Empty(t, fe.ensured)
	require.False(t, c.Empty())
}

func TestExecuteSwapNoAssembled(t *testing.T) {
	p := NewPipeline(nil, nil, cart.New(), RequestParams{ChainID: 1, UserAddr: "0xme"})
	p.SetExecutor(&fakeExec{})

	_, err := p.ExecuteSwap(context.Background(), ExecuteOptions{Mode: types.ModeBuy})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no assembled transaction")
}

func TestExecuteSwapSequential(t *testing.T) {
	fe := &fakeExec{}
	c := cartWith(t, types.Token{Address: "0xaaa", Symbol: "AAA"})
	p := NewPipeline(nil, nil, c, RequestParams{ChainID: 1, UserAddr: "0xme"})
	p.SetExecutor(fe)

	assembled := assembleFromJSON(t, `{
		"transaction": {"to": "0x1111111111111111111111111111111111111111", "data": "0xdeadbeef", "value": "5"}
	}`)

	hash, err := p.ExecuteSwap(context.Background(), ExecuteOptions{Mode: types.ModeBuy, Assembled: assembled})
	require.NoError(t, err)
	require.Equal(t, "0xhash", hash)

	require.Len(t, fe.sent, 1)
	require.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), fe.sent[0].to)
	require.Equal(t, common.FromHex("0xdeadbeef"), fe.sent[0].data)
	require.Equal(t, big.NewInt(5), fe.sent[0].value)

	// success clears the cart
	require.True(t, c.Empty())
}

func TestExecuteSwapFailureKeepsCart(t *testing.T) {
	fe := &fakeExec{sendErr: fmt.Errorf("insufficient funds")}
	c := cartWith(t, types.Token{Address: "0xaaa", Symbol: "AAA"})
	p := NewPipeline(nil, nil, c, RequestParams{ChainID: 1, UserAddr: "0xme"})
	p.SetExecutor(fe)

	assembled := assembleFromJSON(t, `{"to": "0x1111111111111111111111111111111111111111", "data": "0x01"}`)

	_, err := p.ExecuteSwap(context.Background(), ExecuteOptions{Mode: types.ModeBuy, Assembled: assembled})
	require.Error(t, err)
	require.False(t, c.Empty())
	require.Equal(t, "insufficient funds", p.LastError())
}

func TestExecuteSwapEnsuresAllowances(t *testing.T) {
	fe := &fakeExec{}
	c := cartWith(t, types.Token{Address: "0xaaa"})
	p := NewPipeline(nil, nil, c, RequestParams{ChainID: 1, UserAddr: "0xme"})
	p.SetExecutor(fe)

	assembled := assembleFromJSON(t, `{
		"to": "0x1111111111111111111111111111111111111111",
		"data": "0x01",
		"inputTokens": [{"tokenAddress": "0x2222222222222222222222222222222222222222", "amount": "500"}]
	}`)

	_, err := p.ExecuteSwap(context.Background(), ExecuteOptions{
		Mode:      types.ModeBuy,
		Assembled: assembled,
	})
	require.NoError(t, err)

	// allowance covers the exact input amount, spender is the call target
	require.Len(t, fe.ensured, 1)
	require.Equal(t, common.HexToAddress("0x2222222222222222222222222222222222222222"), fe.ensured[0].token)
	require.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), fe.ensured[0].spender)
	require.Equal(t, big.NewInt(500), fe.ensured[0].required)
	require.Len(t, fe.sent, 1)
}

func TestExecuteSwapBatched(t *testing.T) {
	fe := &fakeExec{}
	fb := &fakeBatch{}
	c := cartWith(t, types.Token{Address: "0xaaa"})
	p := NewPipeline(nil, nil, c, RequestParams{ChainID: 1, UserAddr: "0xme"})
	p.SetExecutor(fe)
	p.SetBatchSender(fb)

	assembled := assembleFromJSON(t, `{
		"to": "0x1111111111111111111111111111111111111111",
		"data": "0x01",
		"approvalData": [{
			"tokenAddress": "0x2222222222222222222222222222222222222222",
			"spenderAddress": "0x3333333333333333333333333333333333333333"
		}]
	}`)

	hash, err := p.ExecuteSwap(context.Background(), ExecuteOptions{Mode: types.ModeBuy, Assembled: assembled})
	require.NoError(t, err)
	require.Equal(t, "0xbatch", hash)

	require.Len(t, fb.calls, 1)
	// one approve plus the swap itself
	require.Len(t, fb.calls[0], 2)
	require.Equal(t, common.HexToAddress("0x2222222222222222222222222222222222222222"), fb.calls[0][0].To)
	require.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), fb.calls[0][1].To)

	// nothing went through the sequential path
	require.Empty(t, fe.sent)
	require.True(t, c.Empty())
}

func TestExecuteSwapBatchSkipsSufficientAllowance(t *testing.T) {
	token := common.HexToAddress("0x2222222222222222222222222222222222222222")
	fe := &fakeExec{allowances: map[common.Address]*big.Int{token: executor.MaxUint256}}
	fb := &fakeBatch{}
	p := NewPipeline(nil, nil, cart.New(), RequestParams{ChainID: 1, UserAddr: "0xme"})
	p.SetExecutor(fe)
	p.SetBatchSender(fb)

	assembled := assembleFromJSON(t, `{
		"to": "0x1111111111111111111111111111111111111111",
		"data": "0x01",
		"approvalData": [{"tokenAddress": "0x2222222222222222222222222222222222222222"}]
	}`)

	_, err := p.ExecuteSwap(context.Background(), ExecuteOptions{Mode: types.ModeBuy, Assembled: assembled})
	require.NoError(t, err)
	require.Len(t, fb.calls[0], 1) // swap only
}

func TestExecuteSwapBatchFallsBackToSequential(t *testing.T) {
	fe := &fakeExec{}
	fb := &fakeBatch{err: fmt.Errorf("wallet cannot batch")}
	c := cartWith(t, types.Token{Address: "0xaaa"})
	p := NewPipeline(nil, nil, c, RequestParams{ChainID: 1, UserAddr: "0xme"})
	p.SetExecutor(fe)
	p.SetBatchSender(fb)

	assembled := assembleFromJSON(t, `{"to": "0x1111111111111111111111111111111111111111", "data": "0x01"}`)

	hash, err := p.ExecuteSwap(context.Background(), ExecuteOptions{Mode: types.ModeBuy, Assembled: assembled})
	require.NoError(t, err)
	require.Equal(t, "0xhash", hash)
	require.Len(t, fe.sent, 1)
	require.True(t, c.Empty())
}

func TestResolveApprovalsPriority(t *testing.T) {
	target := "0x1111111111111111111111111111111111111111"

	t.Run("assembled approvals win", func(t *testing.T) {
		assembled := assembleFromJSON(t, `{
			"approvalData": [{"tokenAddress": "0xaaa0000000000000000000000000000000000000", "spenderAddress": "0xbbb0000000000000000000000000000000000000"}],
			"inputTokens": [{"tokenAddress": "0xccc0000000000000000000000000000000000000", "amount": "1"}]
		}`)
		got := resolveApprovals(assembled, nil, target)
		require.Len(t, got, 1)
		require.Equal(t, common.HexToAddress("0xaaa0000000000000000000000000000000000000"), got[0].token)
		require.Equal(t, common.HexToAddress("0xbbb0000000000000000000000000000000000000"), got[0].spender)
		require.Equal(t, executor.MaxUint256, got[0].amount)
	})

	t.Run("assembled input tokens next", func(t *testing.T) {
		assembled := assembleFromJSON(t, `{
			"inputTokens": [{"tokenAddress": "0xccc0000000000000000000000000000000000000", "amount": "1"}]
		}`)
		got := resolveApprovals(assembled, nil, target)
		require.Len(t, got, 1)
		require.Equal(t, common.HexToAddress("0xccc0000000000000000000000000000000000000"), got[0].token)
		require.Equal(t, common.HexToAddress(target), got[0].spender)
	})

	t.Run("quote approvals next", func(t *testing.T) {
		assembled := assembleFromJSON(t, `{}`)
		var raw odos.QuoteResponse
		require.NoError(t, json.Unmarshal([]byte(`{
			"approvalData": {"token": "0xddd0000000000000000000000000000000000000", "spender": "0xeee0000000000000000000000000000000000000"}
		}`), &raw))
		quote := &odos.NormalizedQuote{Raw: &raw}
		got := resolveApprovals(assembled, quote, target)
		require.Len(t, got, 1)
		require.Equal(t, common.HexToAddress("0xddd0000000000000000000000000000000000000"), got[0].token)
		require.Equal(t, common.HexToAddress("0xeee0000000000000000000000000000000000000"), got[0].spender)
	})

	t.Run("quote input tokens last", func(t *testing.T) {
		assembled := assembleFromJSON(t, `{}`)
		var raw odos.QuoteResponse
		quote := &odos.NormalizedQuote{
			Raw: &raw,
			InputTokens: []odos.NormalizedInput{
				{TokenAmount: odos.TokenAmount{TokenAddress: "0xfff0000000000000000000000000000000000000"}},
			},
		}
		got := resolveApprovals(assembled, quote, target)
		require.Len(t, got, 1)
		require.Equal(t, common.HexToAddress("0xfff0000000000000000000000000000000000000"), got[0].token)
		require.Equal(t, common.HexToAddress(target), got[0].spender)
	})

	t.Run("capped at five", func(t *testing.T) {
		assembled := assembleFromJSON(t, `{"approvalData": [
			{"tokenAddress": "0x0000000000000000000000000000000000000001"},
			{"tokenAddress": "0x0000000000000000000000000000000000000002"},
			{"tokenAddress": "0x0000000000000000000000000000000000000003"},
			{"tokenAddress": "0x0000000000000000000000000000000000000004"},
			{"tokenAddress": "0x0000000000000000000000000000000000000005"},
			{"tokenAddress": "0x0000000000000000000000000000000000000006"},
			{"tokenAddress": "0x0000000000000000000000000000000000000007"}
		]}`)
		got := resolveApprovals(assembled, nil, target)
		require.Len(t, got, maxApprovals)
	})
}
