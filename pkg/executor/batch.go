package executor

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Call is one call in a batched smart-wallet operation
type Call struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// BatchSender submits several calls as one atomic user operation. The
// concrete implementation comes from the connected smart-contract wallet
// provider; when the wallet cannot batch, the pipeline falls back to
// sequential plain transactions.
type BatchSender interface {
	// SendBatch submits the calls atomically and returns the user-operation
	// hash.
	SendBatch(ctx context.Context, calls []Call) (string, error)
}
