package usecase

import (
	"sort"
	"strings"

	"github.com/vitos/coinfolio/internal/domain"
)

const (
	searchEmptyQueryLimit = 30
	searchResultLimit     = 40
)

// Tiered match scores; only the first matching rule applies.
const (
	scoreSymbolExact    = 1000
	scoreSymbolPrefix   = 500
	scoreNamePrefix     = 300
	scoreSymbolContains = 200
	scoreNameContains   = 100
)

// SearchTokens ranks the catalog against a free-text query. An empty query
// returns the first 30 entries in catalog order; otherwise matches are scored
// by tier, sorted descending with catalog order preserved among equal scores,
// and capped at 40.
func SearchTokens(query string, catalog []domain.Token) []domain.Token {
	if query == "" {
		n := len(catalog)
		if n > searchEmptyQueryLimit {
			n = searchEmptyQueryLimit
		}
		out := make([]domain.Token, n)
		copy(out, catalog[:n])
		return out
	}

	q := strings.ToLower(query)

	type scored struct {
		token domain.Token
		score int
	}
	results := make([]scored, 0, searchResultLimit)
	for _, t := range catalog {
		symbol := strings.ToLower(t.Symbol)
		name := strings.ToLower(t.Name)

		var score int
		switch {
		case symbol == q:
			score = scoreSymbolExact
		case strings.HasPrefix(symbol, q):
			score = scoreSymbolPrefix
		case strings.HasPrefix(name, q):
			score = scoreNamePrefix
		case strings.Contains(symbol, q):
			score = scoreSymbolContains
		case strings.Contains(name, q):
			score = scoreNameContains
		default:
			continue
		}
		results = append(results, scored{token: t, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > searchResultLimit {
		results = results[:searchResultLimit]
	}
	out := make([]domain.Token, len(results))
	for i, r := range results {
		out[i] = r.token
	}
	return out
}
