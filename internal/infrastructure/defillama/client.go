package defillama

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vitos/coinfolio/internal/domain"
	"github.com/vitos/coinfolio/internal/infrastructure/transport"
)

const DefaultPoolsURL = "https://yields.llama.fi/pools"

// Client reads the DefiLlama yields API.
type Client struct {
	poolsURL string
	http     *transport.Client
}

func NewClient(poolsURL string, http *transport.Client) *Client {
	if poolsURL == "" {
		poolsURL = DefaultPoolsURL
	}
	return &Client{poolsURL: poolsURL, http: http}
}

// Pools fetches the flat pool list. The endpoint wraps it in a status
// envelope; anything but "success" fails the fetch.
func (c *Client) Pools(ctx context.Context) ([]domain.Pool, error) {
	var resp struct {
		Status string        `json:"status"`
		Data   []domain.Pool `json:"data"`
	}
	if err := c.http.GetJSONWithFallback(ctx, c.poolsURL, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" {
		return nil, errors.Errorf("pools endpoint returned status %q", resp.Status)
	}
	return resp.Data, nil
}
