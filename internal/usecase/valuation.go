package usecase

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vitos/coinfolio/internal/domain"
)

// ValuationRow is one table row: a holding plus its derived value and
// allocation in the preferred display currency.
type ValuationRow struct {
	domain.Holding
	Total      decimal.Decimal `json:"total"`
	Allocation decimal.Decimal `json:"allocation"`
}

// ValuationSummary is the rendered table model.
type ValuationSummary struct {
	Rows              []ValuationRow  `json:"rows"`
	TotalValue        decimal.Decimal `json:"totalValue"`
	WeightedChangePct decimal.Decimal `json:"weightedChangePct"`
	TotalChangeValue  decimal.Decimal `json:"totalChangeValue"`
	Currency          string          `json:"currency"`
}

// Valuate converts holdings into the table model: totals in the preferred
// currency, per-row allocation and the allocation-weighted 24h change.
func Valuate(holdings []domain.Holding, rates map[string]domain.Rate, currency string, sortState domain.SortState) ValuationSummary {
	fx := decimal.NewFromInt(1)
	if r, ok := rates[currency]; ok && r.Value.IsPositive() {
		fx = r.Value
	}

	hundred := decimal.NewFromInt(100)
	one := decimal.NewFromInt(1)

	rows := make([]ValuationRow, 0, len(holdings))
	total := decimal.Zero
	for _, h := range holdings {
		value := h.Value().Mul(fx)
		rows = append(rows, ValuationRow{Holding: h, Total: value})
		total = total.Add(value)
	}

	weighted := decimal.Zero
	for i := range rows {
		if total.IsPositive() {
			rows[i].Allocation = rows[i].Total.Div(total).Mul(hundred)
		}
		changePct := rows[i].DeltaDay.Sub(one).Mul(hundred)
		weighted = weighted.Add(rows[i].Allocation.Div(hundred).Mul(changePct))
	}

	sortRows(rows, sortState)

	return ValuationSummary{
		Rows:              rows,
		TotalValue:        total,
		WeightedChangePct: weighted,
		TotalChangeValue:  total.Mul(weighted).Div(hundred),
		Currency:          currency,
	}
}

func sortRows(rows []ValuationRow, state domain.SortState) {
	var key func(r ValuationRow) decimal.Decimal
	switch state.By {
	case "totalValue":
		key = func(r ValuationRow) decimal.Decimal { return r.Total }
	case "allocation":
		key = func(r ValuationRow) decimal.Decimal { return r.Allocation }
	default:
		return
	}

	asc := state.Order == "asc"
	sort.SliceStable(rows, func(i, j int) bool {
		cmp := key(rows[i]).Cmp(key(rows[j]))
		if asc {
			return cmp < 0
		}
		return cmp > 0
	})
}
