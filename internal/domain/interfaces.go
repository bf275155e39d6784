package domain

import "context"

// KVStore is the durable per-device key-value port. Writes are atomic from
// the caller's perspective: a Get right after Set observes the new value.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MarketSource is the market-data upstream (CoinGecko-shaped).
type MarketSource interface {
	ListTokens(ctx context.Context) ([]Token, error)
	MarketPage(ctx context.Context, page, perPage int) ([]RankedAsset, error)
	MarketsByIDs(ctx context.Context, ids []string, vsCurrency string) ([]MarketQuote, error)
}

// PoolSource is the yields upstream.
type PoolSource interface {
	Pools(ctx context.Context) ([]Pool, error)
}

// RateSource is the currency-conversion upstream. It needs an API credential.
type RateSource interface {
	Latest(ctx context.Context, apiKey string) (map[string]Rate, error)
}

// Cipher is the opaque symmetric encrypt/decrypt primitive keyed by a
// password string, used for the holdings blob at rest.
type Cipher interface {
	Encrypt(plaintext []byte, password string) (string, error)
	Decrypt(blob string, password string) ([]byte, error)
}
