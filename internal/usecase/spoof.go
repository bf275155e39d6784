package usecase

import (
	"math/rand"

	"github.com/vitos/coinfolio/internal/domain"
)

// DefaultDecoyCount is how many random ids pad a live-price request.
const DefaultDecoyCount = 150

// SpoofIDs builds the obfuscated id list sent to the price endpoint: the real
// ids plus decoyCount ids drawn uniformly without replacement from the rest
// of the catalog, shuffled with an unbiased permutation. A passive observer
// of one request cannot tell the real holdings from the noise; repeated
// requests can still be correlated statistically.
//
// With an empty catalog no spoofing is possible and the real ids are returned
// as-is. rnd may be nil to use the shared source.
func SpoofIDs(realIDs []string, decoyCount int, catalog []domain.Token, rnd *rand.Rand) []string {
	if len(catalog) == 0 {
		out := make([]string, len(realIDs))
		copy(out, realIDs)
		return out
	}

	real := make(map[string]struct{}, len(realIDs))
	for _, id := range realIDs {
		real[id] = struct{}{}
	}

	pool := make([]string, 0, len(catalog))
	for _, t := range catalog {
		if _, held := real[t.ID]; !held {
			pool = append(pool, t.ID)
		}
	}

	shuffle := rand.Shuffle
	if rnd != nil {
		shuffle = rnd.Shuffle
	}

	// Sample without replacement: shuffle the candidate pool and take a prefix.
	shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if decoyCount > len(pool) {
		decoyCount = len(pool)
	}

	combined := make([]string, 0, len(realIDs)+decoyCount)
	combined = append(combined, realIDs...)
	combined = append(combined, pool[:decoyCount]...)

	shuffle(len(combined), func(i, j int) { combined[i], combined[j] = combined[j], combined[i] })
	return combined
}
