package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Token is one entry of the full CoinGecko catalog. The catalog is replaced
// wholesale on refresh, never merged.
type Token struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// RankedAsset is a catalog entry enriched with live market data and a
// market-cap rank. The ranked cache is kept sorted ascending by Rank.
type RankedAsset struct {
	AssetID          string          `json:"asset_id"`
	Name             string          `json:"name"`
	Symbol           string          `json:"symbol"`
	Rank             int             `json:"rank"`
	Price            decimal.Decimal `json:"price"`
	PercentChange24h decimal.Decimal `json:"percent_change_24h"`
	MarketCap        decimal.Decimal `json:"market_cap"`
	Volume24h        decimal.Decimal `json:"volume_24h"`
	LastUpdated      time.Time       `json:"last_updated"`
	IconURL          string          `json:"icon_url"`
}

// MarketQuote is one entry of the by-id live price response.
type MarketQuote struct {
	ID               string          `json:"id"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	PriceChange24Pct decimal.Decimal `json:"price_change_percentage_24h"`
	LastUpdated      string          `json:"last_updated"`
	Image            string          `json:"image"`
}

// Rate is the unit value of one display currency against USD.
type Rate struct {
	Value decimal.Decimal `json:"value"`
}
