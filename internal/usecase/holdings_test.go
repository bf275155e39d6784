package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
	"github.com/vitos/coinfolio/internal/usecase"
)

func newHoldingsService() (*usecase.HoldingsService, *memStore) {
	store := newMemStore()
	return usecase.NewHoldingsService(store, plainCipher{}, zap.NewNop()), store
}

func TestHoldingsService_UpsertMergesById(t *testing.T) {
	svc, _ := newHoldingsService()
	ctx := context.Background()
	catalog := []domain.Token{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}}

	holdings, err := svc.Upsert(ctx, "", "bitcoin", "BTC", "Bitcoin", decimal.NewFromFloat(1.5), catalog)
	require.NoError(t, err)
	require.Len(t, holdings, 1)

	// Same id again: quantity and name update in place, count stays 1.
	holdings, err = svc.Upsert(ctx, "", "bitcoin", "BTC", "Bitcoin Core", decimal.NewFromFloat(2.25), catalog)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	require.Equal(t, "Bitcoin Core", holdings[0].Name)
	require.True(t, holdings[0].Quantity.Equal(decimal.NewFromFloat(2.25)))
}

func TestHoldingsService_ResolvesSymbolWhenIdMissing(t *testing.T) {
	svc, _ := newHoldingsService()
	ctx := context.Background()
	catalog := []domain.Token{{ID: "ethereum", Symbol: "eth", Name: "Ethereum"}}

	holdings, err := svc.Upsert(ctx, "", "", "ETH", "Ethereum", decimal.NewFromInt(3), catalog)
	require.NoError(t, err)
	require.Equal(t, "ethereum", holdings[0].CoinGeckoID)
}

func TestHoldingsService_RejectsUnknownAsset(t *testing.T) {
	svc, _ := newHoldingsService()

	_, err := svc.Upsert(context.Background(), "", "", "NOPE", "Nope", decimal.NewFromInt(1), nil)
	require.ErrorIs(t, err, usecase.ErrAssetNotFound)
}

func TestHoldingsService_RejectsNonPositiveQuantity(t *testing.T) {
	svc, _ := newHoldingsService()
	catalog := []domain.Token{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}}

	for _, qty := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1)} {
		_, err := svc.Upsert(context.Background(), "", "bitcoin", "BTC", "Bitcoin", qty, catalog)
		require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
}

func TestHoldingsService_RoundTripWithPassword(t *testing.T) {
	svc, _ := newHoldingsService()
	ctx := context.Background()

	saved := []domain.Holding{
		{CoinGeckoID: "bitcoin", Code: "BTC", Symbol: "BTC", Name: "Bitcoin",
			Quantity: decimal.NewFromFloat(0.5), Rate: decimal.NewFromInt(60000),
			QuoteAsset: "USD", DeltaDay: decimal.NewFromInt(1)},
	}
	require.NoError(t, svc.Save(ctx, saved, "pw"))

	loaded := svc.Load(ctx, "pw")
	require.Len(t, loaded, 1)
	require.Equal(t, saved[0].CoinGeckoID, loaded[0].CoinGeckoID)
	require.True(t, saved[0].Quantity.Equal(loaded[0].Quantity))
}

func TestHoldingsService_WrongPasswordYieldsEmptyList(t *testing.T) {
	svc, _ := newHoldingsService()
	ctx := context.Background()

	saved := []domain.Holding{{CoinGeckoID: "bitcoin", Quantity: decimal.NewFromInt(1)}}
	require.NoError(t, svc.Save(ctx, saved, "pw"))

	// Wrong credential: fallback is tried once, then the empty list. Never an error.
	require.Empty(t, svc.Load(ctx, "not-the-password"))
}

func TestHoldingsService_FallbackCredentialChain(t *testing.T) {
	svc, _ := newHoldingsService()
	ctx := context.Background()

	saved := []domain.Holding{{CoinGeckoID: "bitcoin", Quantity: decimal.NewFromInt(1)}}
	// Saved without an explicit credential -> fallback credential.
	require.NoError(t, svc.Save(ctx, saved, ""))

	// A caller with a wrong credential still lands on the fallback copy.
	require.Len(t, svc.Load(ctx, "whatever"), 1)
	require.Len(t, svc.Load(ctx, ""), 1)
}

func TestHoldingsService_DeleteRemovesPosition(t *testing.T) {
	svc, _ := newHoldingsService()
	ctx := context.Background()
	catalog := []domain.Token{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		{ID: "ethereum", Symbol: "eth", Name: "Ethereum"},
	}

	_, err := svc.Upsert(ctx, "", "bitcoin", "BTC", "Bitcoin", decimal.NewFromInt(1), catalog)
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, "", "ethereum", "ETH", "Ethereum", decimal.NewFromInt(2), catalog)
	require.NoError(t, err)

	holdings, err := svc.Delete(ctx, "", "bitcoin")
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	require.Equal(t, "ethereum", holdings[0].CoinGeckoID)
}
