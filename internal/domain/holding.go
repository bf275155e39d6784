package domain

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Holding is a user position in one asset. Identity is CoinGeckoID: two
// holdings with the same id are the same position and must be merged.
type Holding struct {
	CoinGeckoID string          `json:"coinGeckoId"`
	Code        string          `json:"code"`
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	QuoteAsset  string          `json:"quote_asset"`
	IconURL     string          `json:"icon_url"`
	DeltaDay    decimal.Decimal `json:"deltaday"`
	LastUpdated string          `json:"last_updated,omitempty"`
}

var ErrInvalidQuantity = errors.New("quantity must be a positive number")

// NewHolding validates user input and builds a fresh position with neutral
// price fields. DeltaDay 1.0 means unchanged over 24h.
func NewHolding(coinGeckoID, symbol, name string, quantity decimal.Decimal) (Holding, error) {
	if coinGeckoID == "" {
		return Holding{}, errors.New("missing coingecko id")
	}
	if !quantity.IsPositive() {
		return Holding{}, ErrInvalidQuantity
	}
	symbol = strings.ToUpper(symbol)
	return Holding{
		CoinGeckoID: coinGeckoID,
		Code:        symbol,
		Symbol:      symbol,
		Name:        name,
		Quantity:    quantity,
		Rate:        decimal.Zero,
		QuoteAsset:  "USD",
		DeltaDay:    decimal.NewFromInt(1),
	}, nil
}

// Value is the position value in the quote currency.
func (h Holding) Value() decimal.Decimal {
	return h.Quantity.Mul(h.Rate)
}

// Upsert merges an added or edited position into the list, keyed by
// CoinGeckoID. An existing position is updated in place; the count never
// grows for a known id.
func Upsert(holdings []Holding, h Holding) []Holding {
	for i := range holdings {
		if holdings[i].CoinGeckoID == h.CoinGeckoID {
			holdings[i].Quantity = h.Quantity
			holdings[i].Name = h.Name
			holdings[i].Code = h.Code
			holdings[i].Symbol = h.Symbol
			return holdings
		}
	}
	return append(holdings, h)
}

// Remove deletes the position with the given id, if present.
func Remove(holdings []Holding, coinGeckoID string) []Holding {
	out := holdings[:0]
	for _, h := range holdings {
		if h.CoinGeckoID != coinGeckoID {
			out = append(out, h)
		}
	}
	return out
}
