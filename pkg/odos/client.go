// Package odos provides a client for the Odos smart order routing API and
// the normalizer that flattens its quote payloads.
package odos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the Odos API endpoint.
	DefaultBaseURL = "https://api.odos.xyz"

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	quotePath    = "/sor/quote/v2"
	assemblePath = "/sor/assemble"
)

// Client is an Odos API client
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientConfig contains configuration for the Odos client
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a new Odos API client
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
	}
}

// post sends a JSON body and decodes the response into out. Non-2xx status
// surfaces the response body text as the error. A cancelled context comes
// back as context.Canceled so callers can treat supersession as a no-op.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("odos returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Quote requests a swap quote
func (c *Client) Quote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	if len(req.InputTokens) == 0 {
		return nil, fmt.Errorf("at least one input token is required")
	}
	if len(req.OutputTokens) == 0 {
		return nil, fmt.Errorf("at least one output token is required")
	}
	if req.UserAddr == "" {
		return nil, fmt.Errorf("user address is required")
	}

	var quote QuoteResponse
	if err := c.post(ctx, quotePath, req, &quote); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &quote, nil
}

// Assemble converts a priced quote into a submittable transaction
func (c *Client) Assemble(ctx context.Context, userAddr, pathID string, simulate bool) (*AssembleResponse, error) {
	if pathID == "" {
		return nil, fmt.Errorf("quote missing id")
	}
	if userAddr == "" {
		return nil, fmt.Errorf("user address is required")
	}

	req := AssembleRequest{UserAddr: userAddr, PathID: pathID, Simulate: simulate}
	var assembled AssembleResponse
	if err := c.post(ctx, assemblePath, &req, &assembled); err != nil {
		return nil, fmt.Errorf("failed to assemble transaction: %w", err)
	}
	return &assembled, nil
}
