package types

// Token is a tradable asset as held in carts and quotes. It is built from
// market-data responses and carries no persistence of its own.
type Token struct {
	Address  string  `json:"address"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name,omitempty"`
	Decimals int     `json:"decimals,omitempty"`
	Price    string  `json:"price,omitempty"`
	IconURL  string  `json:"iconUrl,omitempty"`
	Amount   string  `json:"amount,omitempty"`
}

// QuoteMode selects which cart a quote is built from
type QuoteMode string

const (
	ModeBuy      QuoteMode = "buy"
	ModeSell     QuoteMode = "sell"
	ModePerToken QuoteMode = "perToken"
)
