package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vitos/coinfolio/internal/domain"
	"github.com/vitos/coinfolio/internal/usecase"
)

func holding(id string, qty, rate, delta float64) domain.Holding {
	return domain.Holding{
		CoinGeckoID: id,
		Quantity:    decimal.NewFromFloat(qty),
		Rate:        decimal.NewFromFloat(rate),
		DeltaDay:    decimal.NewFromFloat(delta),
	}
}

func TestValuate_TotalsAndAllocation(t *testing.T) {
	holdings := []domain.Holding{
		holding("bitcoin", 1, 300, 1), // 300
		holding("ethereum", 2, 50, 1), // 100
	}

	summary := usecase.Valuate(holdings, nil, "USD", domain.SortState{})

	require.True(t, summary.TotalValue.Equal(decimal.NewFromInt(400)))
	require.True(t, summary.Rows[0].Allocation.Equal(decimal.NewFromInt(75)))
	require.True(t, summary.Rows[1].Allocation.Equal(decimal.NewFromInt(25)))
	require.Equal(t, "USD", summary.Currency)
}

func TestValuate_AppliesFxRate(t *testing.T) {
	holdings := []domain.Holding{holding("bitcoin", 1, 100, 1)}
	rates := map[string]domain.Rate{"EUR": {Value: decimal.NewFromFloat(0.9)}}

	summary := usecase.Valuate(holdings, rates, "EUR", domain.SortState{})
	require.True(t, summary.TotalValue.Equal(decimal.NewFromInt(90)))

	// Unknown currency falls back to a 1:1 rate.
	summary = usecase.Valuate(holdings, rates, "CHF", domain.SortState{})
	require.True(t, summary.TotalValue.Equal(decimal.NewFromInt(100)))
}

func TestValuate_WeightedChange(t *testing.T) {
	holdings := []domain.Holding{
		holding("up", 1, 300, 1.10),   // 75% allocation, +10%
		holding("down", 1, 100, 0.90), // 25% allocation, -10%
	}

	summary := usecase.Valuate(holdings, nil, "USD", domain.SortState{})

	// 0.75*10 - 0.25*10 = 5% weighted change; 5% of 400 = 20.
	require.True(t, summary.WeightedChangePct.Equal(decimal.NewFromInt(5)))
	require.True(t, summary.TotalChangeValue.Equal(decimal.NewFromInt(20)))
}

func TestValuate_SortsByTotalValue(t *testing.T) {
	holdings := []domain.Holding{
		holding("small", 1, 10, 1),
		holding("big", 1, 500, 1),
		holding("mid", 1, 100, 1),
	}

	summary := usecase.Valuate(holdings, nil, "USD", domain.SortState{By: "totalValue", Order: "desc"})
	require.Equal(t, "big", summary.Rows[0].CoinGeckoID)
	require.Equal(t, "small", summary.Rows[2].CoinGeckoID)

	summary = usecase.Valuate(holdings, nil, "USD", domain.SortState{By: "totalValue", Order: "asc"})
	require.Equal(t, "small", summary.Rows[0].CoinGeckoID)
}

func TestValuate_EmptyPortfolio(t *testing.T) {
	summary := usecase.Valuate(nil, nil, "USD", domain.DefaultSortState())

	require.Empty(t, summary.Rows)
	require.True(t, summary.TotalValue.IsZero())
	require.True(t, summary.WeightedChangePct.IsZero())
}
