// Package verify integrates the Self identity-verification flow: it builds
// the session handed to the Self mobile app and reads the verification
// result back from the on-chain registry.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"nomis/config"
)

const (
	// DefaultMinimumAge is the age disclosure required from the passport proof.
	DefaultMinimumAge = 18

	// redirectBase is the Self universal-link host the mobile app handles.
	redirectBase = "https://redirect.self.xyz"

	// ZeroAddress is used as the session user id when no wallet is connected.
	ZeroAddress = "0x0000000000000000000000000000000000000000"

	// DefaultPollInterval and DefaultPollAttempts bound how long we wait for
	// the proof to land on-chain after the app reports success.
	DefaultPollInterval = 2500 * time.Millisecond
	DefaultPollAttempts = 24
)

// registryABI covers the two views the dashboard reads
const registryABI = `[
	{"name":"isVerified","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"scope","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

// Disclosures lists what the passport proof must reveal or attest
type Disclosures struct {
	MinimumAge        int      `json:"minimumAge"`
	OFAC              bool     `json:"ofac"`
	ExcludedCountries []string `json:"excludedCountries"`
	Nationality       bool     `json:"nationality"`
}

// DefaultDisclosures returns the dashboard's verification policy
func DefaultDisclosures() Disclosures {
	return Disclosures{
		MinimumAge:        DefaultMinimumAge,
		OFAC:              true,
		ExcludedCountries: []string{"USA"},
		Nationality:       true,
	}
}

// Session is the configuration handed to the Self app, via QR code or
// universal link.
type Session struct {
	Version      int         `json:"version"`
	AppName      string      `json:"appName"`
	Scope        string      `json:"scope"`
	Endpoint     string      `json:"endpoint"`
	EndpointType string      `json:"endpointType"`
	UserID       string      `json:"userId"`
	UserIDType   string      `json:"userIdType"`
	Disclosures  Disclosures `json:"disclosures"`
}

// NewSession builds a verification session for the wallet. An empty wallet
// falls back to the zero address so the flow can start before connecting.
func NewSession(cfg config.VerifyConfig, wallet string) *Session {
	userID := strings.ToLower(wallet)
	if userID == "" {
		userID = ZeroAddress
	}
	return &Session{
		Version:      2,
		AppName:      cfg.AppName,
		Scope:        cfg.Scope,
		Endpoint:     strings.ToLower(cfg.ContractAddress),
		EndpointType: cfg.EndpointType,
		UserID:       userID,
		UserIDType:   "hex",
		Disclosures:  DefaultDisclosures(),
	}
}

// UniversalLink encodes the session as a redirect.self.xyz link the Self
// mobile app opens directly.
func (s *Session) UniversalLink() (string, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	return redirectBase + "?selfApp=" + url.QueryEscape(string(payload)), nil
}

// contractCaller is the read-only chain surface the registry needs.
// Satisfied by ethclient.Client.
type contractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Registry reads verification state from the on-chain Self registry
type Registry struct {
	caller   contractCaller
	contract common.Address
	abi      abi.ABI
}

// NewRegistry connects to the registry contract over the configured RPC
func NewRegistry(cfg config.VerifyConfig) (*Registry, error) {
	if cfg.ContractAddress == "" {
		return nil, fmt.Errorf("verification contract address is required")
	}
	if cfg.RPCUrl == "" {
		return nil, fmt.Errorf("verification RPC URL is required")
	}

	client, err := ethclient.Dial(cfg.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to verification RPC: %w", err)
	}
	return newRegistry(client, common.HexToAddress(cfg.ContractAddress))
}

func newRegistry(caller contractCaller, contract common.Address) (*Registry, error) {
	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry ABI: %w", err)
	}
	return &Registry{caller: caller, contract: contract, abi: parsed}, nil
}

func (r *Registry) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := r.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", method, err)
	}
	return r.abi.Unpack(method, out)
}

// IsVerified reports whether the wallet holds a valid verification
func (r *Registry) IsVerified(ctx context.Context, wallet common.Address) (bool, error) {
	out, err := r.call(ctx, "isVerified", wallet)
	if err != nil {
		return false, err
	}
	if len(out) != 1 {
		return false, fmt.Errorf("unexpected isVerified result")
	}
	verified, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isVerified result type %T", out[0])
	}
	return verified, nil
}

// Scope returns the registry's configured proof scope
func (r *Registry) Scope(ctx context.Context) (*big.Int, error) {
	out, err := r.call(ctx, "scope")
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected scope result")
	}
	scope, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected scope result type %T", out[0])
	}
	return scope, nil
}

// PollUntilVerified polls the registry until the wallet turns verified or
// attempts run out. The proof lands on-chain a little after the app reports
// success, hence the polling.
func (r *Registry) PollUntilVerified(ctx context.Context, wallet common.Address, interval time.Duration, attempts int) (bool, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if attempts <= 0 {
		attempts = DefaultPollAttempts
	}

	for i := 0; i < attempts; i++ {
		verified, err := r.IsVerified(ctx, wallet)
		if err == nil && verified {
			return true, nil
		}
		if i == attempts-1 {
			return false, err
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(interval):
		}
	}
	return false, nil
}

// BlockedNationality reports whether a disclosed nationality is excluded by
// the verification policy.
func BlockedNationality(nationality string) bool {
	for _, c := range DefaultDisclosures().ExcludedCountries {
		if strings.EqualFold(nationality, c) {
			return true
		}
	}
	return false
}
