// Package cart tracks the tokens a user has queued for buying or selling,
// plus the per-token amount entries typed against them.
package cart

import (
	"fmt"
	"strings"
	"sync"

	"nomis/pkg/types"
)

// MaxCartSize caps how many tokens can sit on either side of the cart.
const MaxCartSize = 5

// State is the serializable cart content
type State struct {
	BuyTokens  []types.Token     `json:"buy_tokens"`
	SellTokens []types.Token     `json:"sell_tokens"`
	Amounts    map[string]string `json:"amounts"`
}

// Cart is the in-memory cart service, optionally backed by a file store so
// separate CLI invocations share one cart.
type Cart struct {
	mu    sync.RWMutex
	state State
	store *Store
}

// New creates an empty cart
func New() *Cart {
	return &Cart{state: State{Amounts: make(map[string]string)}}
}

// Open creates a cart backed by the given store, loading any saved state.
func Open(store *Store) (*Cart, error) {
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	if state.Amounts == nil {
		state.Amounts = make(map[string]string)
	}
	return &Cart{state: state, store: store}, nil
}

func (c *Cart) persist() error {
	if c.store == nil {
		return nil
	}
	return c.store.Save(c.state)
}

func hasToken(list []types.Token, address string) bool {
	for _, t := range list {
		if strings.EqualFold(t.Address, address) {
			return true
		}
	}
	return false
}

func removeToken(list []types.Token, address string) []types.Token {
	out := list[:0]
	for _, t := range list {
		if !strings.EqualFold(t.Address, address) {
			out = append(out, t)
		}
	}
	return out
}

// AddBuy queues a token for buying. Adding an address already present is a
// no-op; a sixth token is rejected.
func (c *Cart) AddBuy(token types.Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hasToken(c.state.BuyTokens, token.Address) {
		return nil
	}
	if len(c.state.BuyTokens) >= MaxCartSize {
		return fmt.Errorf("buy cart is full (max %d tokens)", MaxCartSize)
	}
	c.state.BuyTokens = append(c.state.BuyTokens, token)
	return c.persist()
}

// AddSell queues a token for selling, with the same duplicate and size rules
// as AddBuy.
func (c *Cart) AddSell(token types.Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hasToken(c.state.SellTokens, token.Address) {
		return nil
	}
	if len(c.state.SellTokens) >= MaxCartSize {
		return fmt.Errorf("sell cart is full (max %d tokens)", MaxCartSize)
	}
	c.state.SellTokens = append(c.state.SellTokens, token)
	return c.persist()
}

// RemoveBuy drops a token from the buy side along with its amount entry
func (c *Cart) RemoveBuy(address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.BuyTokens = removeToken(c.state.BuyTokens, address)
	delete(c.state.Amounts, strings.ToLower(address))
	return c.persist()
}

// RemoveSell drops a token from the sell side
func (c *Cart) RemoveSell(address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.SellTokens = removeToken(c.state.SellTokens, address)
	return c.persist()
}

// SetAmount records the human amount string for a token address
func (c *Cart) SetAmount(address, amount string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Amounts[strings.ToLower(address)] = amount
	return c.persist()
}

// Amount returns the recorded amount for an address, or "" when unset
func (c *Cart) Amount(address string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Amounts[strings.ToLower(address)]
}

// Clear empties both sides and all amounts
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = State{Amounts: make(map[string]string)}
	return c.persist()
}

// BuyTokens returns the buy side with each token's amount filled in from the
// amounts map (falling back to the token's own amount, then "0").
func (c *Cart) BuyTokens() []types.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.withAmounts(c.state.BuyTokens)
}

// SellTokens returns the sell side with amounts filled in
func (c *Cart) SellTokens() []types.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.withAmounts(c.state.SellTokens)
}

func (c *Cart) withAmounts(list []types.Token) []types.Token {
	out := make([]types.Token, len(list))
	for i, t := range list {
		if amt, ok := c.state.Amounts[strings.ToLower(t.Address)]; ok && amt != "" {
			t.Amount = amt
		} else if t.Amount == "" {
			t.Amount = "0"
		}
		out[i] = t
	}
	return out
}

// Empty reports whether both sides are empty
func (c *Cart) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.state.BuyTokens) == 0 && len(c.state.SellTokens) == 0
}
