package odos

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"
)

// QuoteRequest is the body for POST /sor/quote/v2
type QuoteRequest struct {
	ChainID              int64         `json:"chainId"`
	Compact              bool          `json:"compact"`
	InputTokens          []InputToken  `json:"inputTokens"`
	OutputTokens         []OutputToken `json:"outputTokens"`
	SlippageLimitPercent float64       `json:"slippageLimitPercent"`
	UserAddr             string        `json:"userAddr"`
	ReferralCode         int64         `json:"referralCode"`
}

// InputToken is a swap input with its amount in base units
type InputToken struct {
	TokenAddress string `json:"tokenAddress"`
	Amount       string `json:"amount"`
}

// OutputToken is a swap output with its share of the total
type OutputToken struct {
	TokenAddress string  `json:"tokenAddress"`
	Proportion   float64 `json:"proportion"`
}

// AssembleRequest is the body for POST /sor/assemble
type AssembleRequest struct {
	UserAddr string `json:"userAddr"`
	PathID   string `json:"pathId"`
	Simulate bool   `json:"simulate"`
}

// FlexString decodes a JSON field that may arrive as a string or a bare
// number into its text form.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// TokenAmount is a quote-side token entry. The aggregator has shipped the
// address under several names; accessors fold them together.
type TokenAmount struct {
	TokenAddress string     `json:"tokenAddress"`
	Token        string     `json:"token"`
	TokenAddr    string     `json:"token_addr"`
	Amount       FlexString `json:"amount"`
	Decimals     int        `json:"decimals"`
	Proportion   float64    `json:"proportion"`
}

// GetAddress returns the token address under whichever alias is populated
func (t TokenAmount) GetAddress() string {
	for _, a := range []string{t.TokenAddress, t.Token, t.TokenAddr} {
		if a != "" {
			return a
		}
	}
	return ""
}

// Approval describes an ERC-20 allowance the router needs
type Approval struct {
	TokenAddress   string     `json:"tokenAddress"`
	Token          string     `json:"token"`
	TokenAddr      string     `json:"token_addr"`
	SpenderAddress string     `json:"spenderAddress"`
	Spender        string     `json:"spender"`
	SpenderAddr    string     `json:"spender_addr"`
	Amount         FlexString `json:"amount"`
}

// GetToken returns the approval's token address under whichever alias is set
func (a Approval) GetToken() string {
	for _, v := range []string{a.TokenAddress, a.Token, a.TokenAddr} {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetSpender returns the spender address, or fallback when no alias is set
func (a Approval) GetSpender(fallback string) string {
	for _, v := range []string{a.SpenderAddress, a.Spender, a.SpenderAddr} {
		if v != "" {
			return v
		}
	}
	return fallback
}

// ApprovalList accepts either a single approval object or an array of them.
type ApprovalList []Approval

func (l *ApprovalList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}
	if data[0] == '{' {
		var one Approval
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = ApprovalList{one}
		return nil
	}
	var many []Approval
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = ApprovalList(many)
	return nil
}

// QuoteResponse is the raw aggregator quote. Alias fields are folded by the
// accessor methods; callers should not read them directly.
type QuoteResponse struct {
	GasEstimateValue *float64      `json:"gasEstimateValue"`
	GasEstimate      *float64      `json:"gasEstimate"`
	NetOutValue      *float64      `json:"netOutValue"`
	OutValues        []FlexString  `json:"outValues"`
	OutputTokens     []TokenAmount `json:"outputTokens"`
	InputTokens      []TokenAmount `json:"inputTokens"`
	Inputs           []TokenAmount `json:"inputs"`
	ApprovalData     ApprovalList  `json:"approvalData"`
	Approval         ApprovalList  `json:"approval"`
	Approvals        ApprovalList  `json:"approvals"`

	PathIDField string `json:"pathId"`
	ID          string `json:"id"`
	QuoteID     string `json:"quoteId"`
	Path        struct {
		ID string `json:"id"`
	} `json:"path"`
}

// PathID resolves the quote's path identifier across the known alias names.
// Returns "" when none is present.
func (q *QuoteResponse) PathID() string {
	for _, id := range []string{q.PathIDField, q.ID, q.QuoteID, q.Path.ID} {
		if id != "" {
			return id
		}
	}
	return ""
}

// GetInputTokens returns the quote's input list under whichever alias is set
func (q *QuoteResponse) GetInputTokens() []TokenAmount {
	if len(q.InputTokens) > 0 {
		return q.InputTokens
	}
	return q.Inputs
}

// GetApprovals returns the quote's approval list under whichever alias is set
func (q *QuoteResponse) GetApprovals() []Approval {
	for _, l := range []ApprovalList{q.ApprovalData, q.Approval, q.Approvals} {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

// txDescriptor carries the callable transaction fields under their aliases
type txDescriptor struct {
	To       string     `json:"to"`
	Router   string     `json:"router"`
	Spender  string     `json:"spender"`
	TxTo     string     `json:"txTo"`
	Data     string     `json:"data"`
	Calldata string     `json:"calldata"`
	Encoded  string     `json:"encoded"`
	Value    FlexString `json:"value"`
	Tx       *struct {
		To    string     `json:"to"`
		Data  string     `json:"data"`
		Value FlexString `json:"value"`
	} `json:"tx"`
}

func (d *txDescriptor) target() string {
	for _, a := range []string{d.To, d.Router, d.Spender, d.TxTo} {
		if a != "" {
			return a
		}
	}
	if d.Tx != nil {
		return d.Tx.To
	}
	return ""
}

func (d *txDescriptor) calldata() string {
	for _, c := range []string{d.Data, d.Calldata, d.Encoded} {
		if c != "" {
			return c
		}
	}
	if d.Tx != nil {
		return d.Tx.Data
	}
	return ""
}

func (d *txDescriptor) value() FlexString {
	if d.Value != "" {
		return d.Value
	}
	if d.Tx != nil {
		return d.Tx.Value
	}
	return ""
}

// AssembleResponse is the raw assembled-transaction payload
type AssembleResponse struct {
	Transaction *txDescriptor `json:"transaction"`
	Tx          *txDescriptor `json:"tx"`
	txDescriptor

	ApprovalData ApprovalList  `json:"approvalData"`
	Approval     ApprovalList  `json:"approval"`
	Approvals    ApprovalList  `json:"approvals"`
	InputTokens  []TokenAmount `json:"inputTokens"`
	Inputs       []TokenAmount `json:"inputs"`
}

func (a *AssembleResponse) descriptor() *txDescriptor {
	if a.Transaction != nil {
		return a.Transaction
	}
	if a.Tx != nil {
		return a.Tx
	}
	return &a.txDescriptor
}

// CallTarget returns the contract address the swap call goes to, or "" when
// the response carries none under any recognized name.
func (a *AssembleResponse) CallTarget() string {
	return a.descriptor().target()
}

// CallData returns the swap calldata under whichever alias is populated
func (a *AssembleResponse) CallData() string {
	return a.descriptor().calldata()
}

// CallValue returns the native value to attach, defaulting to zero on a
// missing or malformed field.
func (a *AssembleResponse) CallValue() *big.Int {
	raw := strings.TrimSpace(string(a.descriptor().value()))
	if raw == "" {
		return new(big.Int)
	}
	v := new(big.Int)
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		if _, ok := v.SetString(raw[2:], 16); ok {
			return v
		}
		return new(big.Int)
	}
	if _, ok := v.SetString(raw, 10); ok {
		return v
	}
	return new(big.Int)
}

// GetInputTokens returns the assembled input list under whichever alias is
// set, including one nested inside the transaction descriptor.
func (a *AssembleResponse) GetInputTokens() []TokenAmount {
	if len(a.InputTokens) > 0 {
		return a.InputTokens
	}
	return a.Inputs
}

// GetApprovals returns the assembled approval list under whichever alias is
// set
func (a *AssembleResponse) GetApprovals() []Approval {
	for _, l := range []ApprovalList{a.ApprovalData, a.Approval, a.Approvals} {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}
