package domain

import "github.com/pkg/errors"

const (
	MinCacheLimit     = 100
	MaxCacheLimit     = 5000
	DefaultCacheLimit = 1500

	DefaultCurrency = "USD"
)

var ErrCacheLimitOutOfRange = errors.Errorf("cache limit must be between %d and %d", MinCacheLimit, MaxCacheLimit)

// ValidateCacheLimit enforces the [100, 5000] bound on the ranked cache size.
func ValidateCacheLimit(limit int) error {
	if limit < MinCacheLimit || limit > MaxCacheLimit {
		return ErrCacheLimitOutOfRange
	}
	return nil
}

// SortState is the persisted holdings table ordering.
type SortState struct {
	By    string `json:"sortBy"`
	Order string `json:"sortOrder"`
}

// DefaultSortState matches what the table shows before the user ever clicks
// a header.
func DefaultSortState() SortState {
	return SortState{By: "totalValue", Order: "desc"}
}
