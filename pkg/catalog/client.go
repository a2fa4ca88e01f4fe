// Package catalog maintains the per-chain list of tradable tokens fetched
// from the Coinranking market-data API, and derives ranked bundles from it.
package catalog

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
	// DefaultBaseURL is the Coinranking API endpoint.
	DefaultBaseURL = "https://api.coinranking.com"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultLimit is the maximum number of coins fetched per chain.
	DefaultLimit = 100
)

// Client is a Coinranking API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ClientConfig contains configuration for the Coinranking client
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new Coinranking API client
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = &ClientConfig{}
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     config.APIKey,
	}
}

// apiCoin is the wire shape of a Coinranking coin. Numeric fields arrive as
// strings.
type apiCoin struct {
	UUID              string   `json:"uuid"`
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	IconURL           string   `json:"iconUrl"`
	Rank              int      `json:"rank"`
	Price             string   `json:"price"`
	MarketCap         string   `json:"marketCap"`
	Change            string   `json:"change"`
	Volume24h         string   `json:"24hVolume"`
	ListedAt          int64    `json:"listedAt"`
	ContractAddresses []string `json:"contractAddresses"`
	Tags              []string `json:"tags"`
}

type coinsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Coins []apiCoin `json:"coins"`
	} `json:"data"`
}

// FetchCoins retrieves up to limit coins for a blockchain, optionally
// filtered by tags.
func (c *Client) FetchCoins(ctx context.Context, chain string, tags []string, limit int) ([]apiCoin, error) {
	if chain == "" {
		return nil, fmt.Errorf("chain is required")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := url.Values{}
	query.Add("blockchains[]", chain)
	for _, tag := range tags {
		query.Add("tags[]", tag)
	}
	query.Set("limit", fmt.Sprintf("%d", limit))

	requestURL := fmt.Sprintf("%s/v2/coins?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-access-token", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("coinranking returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed coinsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode coins response: %w", err)
	}
	return parsed.Data.Coins, nil
}
