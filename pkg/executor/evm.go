// Package executor submits swap and approval transactions on EVM networks.
package executor

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"nomis/config"
)

// ERC20 function ABI used for approvals and allowance reads
const erc20ABI = `[
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}
]`

// MaxUint256 is the unlimited-approval amount
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// EVMExecutor signs and submits transactions on one EVM network
type EVMExecutor struct {
	networkName string
	network     config.NetworkConfig
	client      *ethclient.Client
	privateKey  *ecdsa.PrivateKey
	erc20       abi.ABI
}

// NewEVMExecutor connects to a configured network
func NewEVMExecutor(cfg config.NetworkConfig, networkName string) (*EVMExecutor, error) {
	if cfg.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured for network %s", networkName)
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key not configured for network %s", networkName)
	}

	client, err := ethclient.Dial(cfg.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &EVMExecutor{
		networkName: networkName,
		network:     cfg,
		client:      client,
		privateKey:  privateKey,
		erc20:       parsedABI,
	}, nil
}

// Address returns the sender address derived from the configured key
func (e *EVMExecutor) Address() common.Address {
	return crypto.PubkeyToAddress(e.privateKey.PublicKey)
}

// ChainID returns the configured chain id
func (e *EVMExecutor) ChainID() int64 {
	return e.network.ChainID
}

func (e *EVMExecutor) gasPrice(ctx context.Context) (*big.Int, error) {
	if e.network.GasPrice != nil {
		return big.NewInt(*e.network.GasPrice), nil
	}
	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return gasPrice, nil
}

func (e *EVMExecutor) gasLimit(ctx context.Context, msg ethereum.CallMsg, fallback uint64) uint64 {
	if e.network.GasLimit != nil {
		return *e.network.GasLimit
	}
	estimated, err := e.client.EstimateGas(ctx, msg)
	if err != nil {
		return fallback
	}
	return estimated * 120 / 100 // 20% buffer
}

// SendCall signs and submits a contract call, waiting for one confirmation.
// Returns the transaction hash.
func (e *EVMExecutor) SendCall(ctx context.Context, to common.Address, data []byte, value *big.Int) (string, error) {
	from := e.Address()
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := e.client.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := e.gasPrice(ctx)
	if err != nil {
		return "", err
	}

	gasLimit := e.gasLimit(ctx, ethereum.CallMsg{From: from, To: &to, Data: data, Value: value}, 500000)

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(e.network.ChainID)), e.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, e.client, signedTx)
	if err != nil {
		return "", fmt.Errorf("failed waiting for confirmation: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("transaction %s reverted", signedTx.Hash().Hex())
	}

	return signedTx.Hash().Hex(), nil
}

// Allowance reads the current ERC-20 allowance of spender over owner's tokens
func (e *EVMExecutor) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := e.erc20.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance data: %w", err)
	}

	result, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call allowance: %w", err)
	}
	return new(big.Int).SetBytes(result), nil
}

// ApproveCalldata encodes approve(spender, amount)
func (e *EVMExecutor) ApproveCalldata(spender common.Address, amount *big.Int) ([]byte, error) {
	data, err := e.erc20.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve data: %w", err)
	}
	return data, nil
}

// EnsureAllowance makes sure spender can move at least required of token.
// A non-zero but insufficient allowance is reset to zero first; tokens like
// USDT reject approvals over an existing one. Each step waits for one
// confirmation.
func (e *EVMExecutor) EnsureAllowance(ctx context.Context, token, spender common.Address, required *big.Int) error {
	current, err := e.Allowance(ctx, token, e.Address(), spender)
	if err != nil {
		return err
	}
	if current.Cmp(required) >= 0 {
		return nil
	}

	if current.Sign() != 0 {
		data, err := e.ApproveCalldata(spender, new(big.Int))
		if err != nil {
			return err
		}
		if _, err := e.SendCall(ctx, token, data, nil); err != nil {
			return fmt.Errorf("failed to reset allowance: %w", err)
		}
	}

	data, err := e.ApproveCalldata(spender, required)
	if err != nil {
		return err
	}
	if _, err := e.SendCall(ctx, token, data, nil); err != nil {
		return fmt.Errorf("failed to approve: %w", err)
	}
	return nil
}

// TransactionInfo retrieves information about a transaction
func (e *EVMExecutor) TransactionInfo(ctx context.Context, txHash string) (map[string]interface{}, error) {
	hash := common.HexToHash(txHash)

	tx, isPending, err := e.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	receipt, err := e.client.TransactionReceipt(ctx, hash)
	if err != nil && !isPending {
		return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
	}

	info := map[string]interface{}{
		"hash":      tx.Hash().Hex(),
		"nonce":     tx.Nonce(),
		"gas_price": tx.GasPrice().String(),
		"gas_limit": tx.Gas(),
		"to":        "",
		"value":     tx.Value().String(),
		"pending":   isPending,
	}
	if tx.To() != nil {
		info["to"] = tx.To().Hex()
	}
	if receipt != nil {
		info["block_number"] = receipt.BlockNumber.Uint64()
		info["gas_used"] = receipt.GasUsed
		info["status"] = receipt.Status
	}
	return info, nil
}

// Close closes the client connection
func (e *EVMExecutor) Close() {
	if e.client != nil {
		e.client.Close()
	}
}
