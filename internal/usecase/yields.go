package usecase

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
)

// YieldsPageSize is the fixed row count per rendered page.
const YieldsPageSize = 10

// Tabs scope which APY column the range filter applies to; the two ranges are
// mutually exclusive.
const (
	TabAPY        = "apy"
	TabAPYMean30d = "apyMean30d"
)

// Tri-state sort cycle per column: ascending, descending, unsorted.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
	SortNone = ""
)

// PoolFilter is the compound filter re-evaluated on every input change.
// Nil bounds mean unbounded on that side (TVL min defaults to 0).
type PoolFilter struct {
	SymbolSearch string
	Category     string // "", "ETH" or "USD"
	MinTVL       *float64
	MaxTVL       *float64
	MinAPY       *float64
	MaxAPY       *float64
	MinAPYMean   *float64
	MaxAPYMean   *float64
	ActiveTab    string
}

// PoolSort is the single active sort key.
type PoolSort struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

// PoolPage is one rendered slice of the filtered+sorted list.
type PoolPage struct {
	Items      []domain.Pool `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalItems int           `json:"totalItems"`
	TotalPages int           `json:"totalPages"`
	Sort       PoolSort      `json:"sort"`
}

// YieldsService holds the pool list fetched once at startup and runs the
// filter -> sort -> paginate pipeline client-side.
type YieldsService struct {
	source domain.PoolSource
	logger *zap.Logger

	mu    sync.Mutex
	pools []domain.Pool
	sort  PoolSort
}

func NewYieldsService(source domain.PoolSource, logger *zap.Logger) *YieldsService {
	return &YieldsService{source: source, logger: logger}
}

// Load fetches the flat pool list and keeps it in memory, sorted descending
// by TVL on arrival.
func (s *YieldsService) Load(ctx context.Context) error {
	pools, err := s.source.Pools(ctx)
	if err != nil {
		return err
	}
	sort.SliceStable(pools, func(i, j int) bool {
		return pools[i].TvlUsd > pools[j].TvlUsd
	})

	s.mu.Lock()
	s.pools = pools
	s.mu.Unlock()

	s.logger.Info("yields pool list loaded", zap.Int("pools", len(pools)))
	return nil
}

// CycleSort advances the clicked column through asc -> desc -> unsorted and
// resets the other columns, so at most one sort key is active.
func (s *YieldsService) CycleSort(column string) PoolSort {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := SortNone
	if s.sort.Column == column {
		current = s.sort.Direction
	}

	var next string
	switch current {
	case SortNone:
		next = SortAsc
	case SortAsc:
		next = SortDesc
	case SortDesc:
		next = SortNone
	}

	if next == SortNone {
		s.sort = PoolSort{}
	} else {
		s.sort = PoolSort{Column: column, Direction: next}
	}
	return s.sort
}

// Sort returns the current sort state.
func (s *YieldsService) Sort() PoolSort {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

// Query runs filter, then sort, then pagination. page is 1-based and clamped
// into range. Unsorted order is the post-filter arrival order.
func (s *YieldsService) Query(filter PoolFilter, page int) PoolPage {
	s.mu.Lock()
	pools := s.pools
	sortState := s.sort
	s.mu.Unlock()

	filtered := filterPools(pools, filter)
	sortPools(filtered, sortState)

	totalItems := len(filtered)
	totalPages := (totalItems + YieldsPageSize - 1) / YieldsPageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * YieldsPageSize
	end := start + YieldsPageSize
	if start > totalItems {
		start = totalItems
	}
	if end > totalItems {
		end = totalItems
	}

	return PoolPage{
		Items:      filtered[start:end],
		Page:       page,
		PageSize:   YieldsPageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
		Sort:       sortState,
	}
}

func bound(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func filterPools(pools []domain.Pool, f PoolFilter) []domain.Pool {
	search := strings.ToLower(strings.TrimSpace(f.SymbolSearch))

	minTVL := bound(f.MinTVL, 0)
	maxTVL := bound(f.MaxTVL, math.Inf(1))
	minAPY := bound(f.MinAPY, math.Inf(-1))
	maxAPY := bound(f.MaxAPY, math.Inf(1))
	minMean := bound(f.MinAPYMean, math.Inf(-1))
	maxMean := bound(f.MaxAPYMean, math.Inf(1))

	out := make([]domain.Pool, 0, len(pools))
	for _, p := range pools {
		if search != "" && !strings.Contains(strings.ToLower(p.Symbol), search) {
			continue
		}
		switch f.Category {
		case "ETH", "USD":
			if !strings.Contains(p.Symbol, f.Category) {
				continue
			}
		}
		if p.TvlUsd < minTVL || p.TvlUsd > maxTVL {
			continue
		}
		// Only the active tab's APY bounds apply.
		switch f.ActiveTab {
		case TabAPYMean30d:
			if p.ApyMean30d < minMean || p.ApyMean30d > maxMean {
				continue
			}
		default:
			if p.Apy < minAPY || p.Apy > maxAPY {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func sortPools(pools []domain.Pool, state PoolSort) {
	if state.Direction == SortNone {
		return
	}

	var key func(p domain.Pool) float64
	switch state.Column {
	case "tvlUsd":
		key = func(p domain.Pool) float64 { return p.TvlUsd }
	case TabAPY:
		key = func(p domain.Pool) float64 { return p.Apy }
	case TabAPYMean30d:
		key = func(p domain.Pool) float64 { return p.ApyMean30d }
	default:
		return
	}

	asc := state.Direction == SortAsc
	sort.SliceStable(pools, func(i, j int) bool {
		if asc {
			return key(pools[i]) < key(pools[j])
		}
		return key(pools[i]) > key(pools[j])
	})
}
