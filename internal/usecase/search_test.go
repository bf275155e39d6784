package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitos/coinfolio/internal/domain"
	"github.com/vitos/coinfolio/internal/usecase"
)

func TestSearchTokens_TierOrdering(t *testing.T) {
	catalog := []domain.Token{
		{ID: "wrapped", Symbol: "xyz", Name: "Wrapped BTC Token"}, // name contains
		{ID: "sats", Symbol: "sbtc", Name: "Synthetic Sats"},      // symbol contains
		{ID: "protocol", Symbol: "zzz", Name: "BTC Protocol"},     // name prefix
		{ID: "btcx", Symbol: "btcx", Name: "Extended"},            // symbol prefix
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},           // exact symbol
	}

	results := usecase.SearchTokens("BTC", catalog)

	require.Len(t, results, 5)
	require.Equal(t, "bitcoin", results[0].ID)
	require.Equal(t, "btcx", results[1].ID)
	require.Equal(t, "protocol", results[2].ID)
	require.Equal(t, "sats", results[3].ID)
	require.Equal(t, "wrapped", results[4].ID)
}

func TestSearchTokens_CaseInsensitive(t *testing.T) {
	catalog := []domain.Token{{ID: "ethereum", Symbol: "ETH", Name: "Ethereum"}}

	require.Len(t, usecase.SearchTokens("eth", catalog), 1)
	require.Len(t, usecase.SearchTokens("EtH", catalog), 1)
}

func TestSearchTokens_NonMatchesExcluded(t *testing.T) {
	catalog := []domain.Token{
		{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
		{ID: "dogecoin", Symbol: "doge", Name: "Dogecoin"},
	}

	results := usecase.SearchTokens("btc", catalog)
	require.Len(t, results, 1)
	require.Equal(t, "bitcoin", results[0].ID)
}

func TestSearchTokens_EmptyQueryReturnsFirstThirty(t *testing.T) {
	catalog := makeCatalog(100)

	results := usecase.SearchTokens("", catalog)

	require.Len(t, results, 30)
	require.Equal(t, catalog[0].ID, results[0].ID, "catalog order preserved")
	require.Equal(t, catalog[29].ID, results[29].ID)
}

func TestSearchTokens_CapsAtForty(t *testing.T) {
	catalog := make([]domain.Token, 0, 100)
	for i := 0; i < 100; i++ {
		catalog = append(catalog, domain.Token{
			ID:     "coin",
			Symbol: "abc",
			Name:   "Alphabet Coin",
		})
	}

	require.Len(t, usecase.SearchTokens("abc", catalog), 40)
}

func TestSearchTokens_StableAmongEqualScores(t *testing.T) {
	catalog := []domain.Token{
		{ID: "first", Symbol: "aaa1", Name: "One"},
		{ID: "second", Symbol: "aaa2", Name: "Two"},
		{ID: "third", Symbol: "aaa3", Name: "Three"},
	}

	results := usecase.SearchTokens("aaa", catalog)

	require.Len(t, results, 3)
	require.Equal(t, "first", results[0].ID)
	require.Equal(t, "second", results[1].ID)
	require.Equal(t, "third", results[2].ID)
}
