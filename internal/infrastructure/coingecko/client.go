package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitos/coinfolio/internal/domain"
	"github.com/vitos/coinfolio/internal/infrastructure/transport"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client reads the public CoinGecko REST API through the fallback transport.
type Client struct {
	baseURL string
	http    *transport.Client
}

func NewClient(baseURL string, http *transport.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, http: http}
}

// marketCoin is the wire shape of one /coins/markets entry. Numeric fields
// can be null for dead listings, hence the pointers.
type marketCoin struct {
	ID               string   `json:"id"`
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Image            string   `json:"image"`
	CurrentPrice     *float64 `json:"current_price"`
	MarketCap        *float64 `json:"market_cap"`
	MarketCapRank    *int     `json:"market_cap_rank"`
	TotalVolume      *float64 `json:"total_volume"`
	PriceChange24Pct *float64 `json:"price_change_percentage_24h"`
	LastUpdated      string   `json:"last_updated"`
}

func dec(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}

// ListTokens returns the full token catalog: every tradable asset CoinGecko
// knows, id + symbol + name only.
func (c *Client) ListTokens(ctx context.Context) ([]domain.Token, error) {
	var tokens []domain.Token
	if err := c.http.GetJSONWithFallback(ctx, c.baseURL+"/coins/list", &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

// MarketPage returns one page of the ranked market list. Rank falls back to
// the positional index when the upstream omits market_cap_rank.
func (c *Client) MarketPage(ctx context.Context, page, perPage int) ([]domain.RankedAsset, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("sparkline", "false")
	params.Set("price_change_percentage", "24h")

	var coins []marketCoin
	if err := c.http.GetJSONWithFallback(ctx, c.baseURL+"/coins/markets?"+params.Encode(), &coins); err != nil {
		return nil, err
	}

	assets := make([]domain.RankedAsset, 0, len(coins))
	for i, coin := range coins {
		rank := (page-1)*perPage + i + 1
		if coin.MarketCapRank != nil && *coin.MarketCapRank > 0 {
			rank = *coin.MarketCapRank
		}
		assets = append(assets, domain.RankedAsset{
			AssetID:          strings.ToUpper(coin.Symbol),
			Name:             coin.Name,
			Symbol:           strings.ToUpper(coin.Symbol),
			Rank:             rank,
			Price:            dec(coin.CurrentPrice),
			PercentChange24h: dec(coin.PriceChange24Pct),
			MarketCap:        dec(coin.MarketCap),
			Volume24h:        dec(coin.TotalVolume),
			LastUpdated:      time.Now().UTC(),
			IconURL:          coin.Image,
		})
	}
	return assets, nil
}

// MarketsByIDs returns live quotes for the given (possibly spoofed) id set.
func (c *Client) MarketsByIDs(ctx context.Context, ids []string, vsCurrency string) ([]domain.MarketQuote, error) {
	params := url.Values{}
	params.Set("vs_currency", strings.ToLower(vsCurrency))
	params.Set("ids", strings.Join(ids, ","))

	var coins []marketCoin
	if err := c.http.GetJSONWithFallback(ctx, c.baseURL+"/coins/markets?"+params.Encode(), &coins); err != nil {
		return nil, err
	}

	quotes := make([]domain.MarketQuote, 0, len(coins))
	for _, coin := range coins {
		quotes = append(quotes, domain.MarketQuote{
			ID:               coin.ID,
			CurrentPrice:     dec(coin.CurrentPrice),
			PriceChange24Pct: dec(coin.PriceChange24Pct),
			LastUpdated:      coin.LastUpdated,
			Image:            coin.Image,
		})
	}
	return quotes, nil
}
