package currency

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"github.com/vitos/coinfolio/internal/domain"
	"github.com/vitos/coinfolio/internal/infrastructure/transport"
)

const DefaultBaseURL = "https://api.currencyapi.com/v3"

// ErrNoCredential means the currency API key is not configured; callers fall
// back to cached rates.
var ErrNoCredential = errors.New("currency API key not configured")

// Client reads the currencyapi.com latest-rates endpoint.
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

// Latest returns the currency-code -> value mapping. The endpoint requires a
// credential in the query string.
func (c *Client) Latest(ctx context.Context, apiKey string) (map[string]domain.Rate, error) {
	if apiKey == "" {
		return nil, ErrNoCredential
	}

	params := url.Values{}
	params.Set("apikey", apiKey)

	var resp struct {
		Data map[string]domain.Rate `json:"data"`
	}
	if err := c.http.GetJSON(ctx, c.baseURL+"/latest?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, errors.Wrap(transport.ErrMalformed, "missing data field in rates response")
	}
	return resp.Data, nil
}
