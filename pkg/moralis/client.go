// Package moralis fetches wallet token balances from the Moralis
// deep-index API.
package moralis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the Moralis deep-index API endpoint.
	DefaultBaseURL = "https://deep-index.moralis.io"

	defaultTimeout = 30 * time.Second
)

// ClientConfig contains configuration for the Moralis client
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a Moralis API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Moralis API client
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{}
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     config.APIKey,
		httpClient: httpClient,
	}
}

// walletToken is one entry of the wallet tokens response
type walletToken struct {
	TokenAddress          string  `json:"token_address"`
	Symbol                string  `json:"symbol"`
	Name                  string  `json:"name"`
	Logo                  string  `json:"logo"`
	Decimals              int     `json:"decimals"`
	Balance               string  `json:"balance"`
	BalanceFormatted      string  `json:"balance_formatted"`
	USDPrice              float64 `json:"usd_price"`
	USDValue              float64 `json:"usd_value"`
	USDPrice24hrPctChange float64 `json:"usd_price_24hr_percent_change"`
	PossibleSpam          bool    `json:"possible_spam"`
	NativeToken           bool    `json:"native_token"`
}

type walletTokensResponse struct {
	Result []walletToken `json:"result"`
}

// Position is one wallet holding with its market data
type Position struct {
	TokenAddress    string
	Symbol          string
	Name            string
	Logo            string
	Decimals        int
	Balance         string
	FormattedAmount string
	USDPrice        float64
	USDValue        float64
	Change24h       float64
	PossibleSpam    bool
	Native          bool
}

// PositionsOptions filters a wallet positions request
type PositionsOptions struct {
	// IncludeSpam keeps tokens Moralis flags as possible spam.
	IncludeSpam bool
}

// Positions returns the wallet's token holdings on the given chain. chain is
// a Moralis chain name such as "eth", "polygon", "base".
func (c *Client) Positions(ctx context.Context, wallet, chain string, opts PositionsOptions) ([]Position, error) {
	if wallet == "" {
		return nil, fmt.Errorf("wallet address is required")
	}
	if chain == "" {
		return nil, fmt.Errorf("chain is required")
	}

	endpoint := fmt.Sprintf("%s/api/v2.2/wallets/%s/tokens?chain=%s", c.baseURL, url.PathEscape(wallet), url.QueryEscape(chain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("moralis API error (status %d): %s", resp.StatusCode, string(data))
	}

	var wire walletTokensResponse
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	positions := make([]Position, 0, len(wire.Result))
	for _, t := range wire.Result {
		if t.PossibleSpam && !opts.IncludeSpam {
			continue
		}
		positions = append(positions, Position{
			TokenAddress:    t.TokenAddress,
			Symbol:          t.Symbol,
			Name:            t.Name,
			Logo:            t.Logo,
			Decimals:        t.Decimals,
			Balance:         t.Balance,
			FormattedAmount: t.BalanceFormatted,
			USDPrice:        t.USDPrice,
			USDValue:        t.USDValue,
			Change24h:       t.USDPrice24hrPctChange,
			PossibleSpam:    t.PossibleSpam,
			Native:          t.NativeToken,
		})
	}
	return positions, nil
}

// TotalValue sums the USD value of the positions
func TotalValue(positions []Position) float64 {
	var total float64
	for _, p := range positions {
		total += p.USDValue
	}
	return total
}
