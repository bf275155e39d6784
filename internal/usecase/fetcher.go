package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
	"github.com/vitos/coinfolio/internal/infrastructure/transport"
)

const (
	// PageSize is the upstream per_page maximum.
	PageSize = 250

	// DefaultPageDelay keeps the sequential page fetches under the
	// 30-requests/minute ceiling.
	DefaultPageDelay = 2500 * time.Millisecond

	// DefaultBackoffUnit is multiplied by the consecutive failure count on a
	// 429: 30s, 60s, 90s, ...
	DefaultBackoffUnit = 30 * time.Second

	// The upstream free tier throttles harder past the first ~5 pages, so
	// later pages get more retries before being abandoned.
	earlyPageMaxRetries = 2
	latePageMaxRetries  = 5
	earlyPageCount      = 5
)

// RankedFetcher retrieves a bounded ranked asset list page by page,
// sequentially, respecting the upstream rate ceiling. Partial results are
// acceptable; only a completely empty run is an error.
type RankedFetcher struct {
	market domain.MarketSource
	store  domain.KVStore
	logger *zap.Logger

	// Overridable in tests; zero values fall back to the defaults.
	PageDelay   time.Duration
	BackoffUnit time.Duration
}

func NewRankedFetcher(market domain.MarketSource, store domain.KVStore, logger *zap.Logger) *RankedFetcher {
	return &RankedFetcher{
		market:      market,
		store:       store,
		logger:      logger,
		PageDelay:   DefaultPageDelay,
		BackoffUnit: DefaultBackoffUnit,
	}
}

func maxRetriesFor(page int) int {
	if page <= earlyPageCount {
		return earlyPageMaxRetries
	}
	return latePageMaxRetries
}

// FetchRanked collects up to limit ranked assets. Pages are fetched strictly
// in order; a page that keeps throttling after its retry budget, or fails at
// the transport level, is skipped rather than aborting the run. The result is
// deduplicated by asset id, truncated to limit, sorted ascending by rank and
// persisted together with its freshness stamp.
func (f *RankedFetcher) FetchRanked(ctx context.Context, limit int) ([]domain.RankedAsset, error) {
	if err := domain.ValidateCacheLimit(limit); err != nil {
		return nil, err
	}

	pagesNeeded := (limit + PageSize - 1) / PageSize
	collected := make([]domain.RankedAsset, 0, limit)
	seen := make(map[string]struct{}, limit)
	consecutiveFailures := 0

	for page := 1; page <= pagesNeeded; page++ {
		assets, err := f.fetchPageWithRetry(ctx, page, &consecutiveFailures)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if len(collected) == 0 {
				return nil, errors.Wrapf(err, "failed to fetch any data, page %d", page)
			}
			f.logger.Warn("skipping page after exhausted retries",
				zap.Int("page", page), zap.Error(err))
			continue
		}

		for _, a := range assets {
			if len(collected) >= limit {
				break
			}
			if _, dup := seen[a.AssetID]; dup {
				continue
			}
			seen[a.AssetID] = struct{}{}
			collected = append(collected, a)
		}

		f.logger.Debug("page collected",
			zap.Int("page", page), zap.Int("total", len(collected)))

		if len(collected) >= limit {
			break
		}
		if page < pagesNeeded {
			if err := sleep(ctx, f.pageDelay()); err != nil {
				return nil, err
			}
		}
	}

	if len(collected) > limit {
		collected = collected[:limit]
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Rank < collected[j].Rank
	})

	if err := f.persist(ctx, collected); err != nil {
		return nil, err
	}

	f.logger.Info("ranked asset cache refreshed",
		zap.Int("assets", len(collected)), zap.Int("limit", limit))
	return collected, nil
}

// fetchPageWithRetry fetches one page, retrying on throttling with linear
// backoff until the page's retry budget runs out. The failure counter is
// shared across pages and resets on any success, so the backoff keeps
// growing while the upstream stays angry.
func (f *RankedFetcher) fetchPageWithRetry(ctx context.Context, page int, consecutiveFailures *int) ([]domain.RankedAsset, error) {
	for {
		assets, err := f.market.MarketPage(ctx, page, PageSize)
		if err == nil {
			*consecutiveFailures = 0
			return assets, nil
		}

		*consecutiveFailures++
		if !errors.Is(err, transport.ErrThrottled) {
			// Network or semantic failure: no point hammering the same page.
			return nil, err
		}

		wait := f.backoffUnit() * time.Duration(*consecutiveFailures)
		f.logger.Warn("throttled by upstream, backing off",
			zap.Int("page", page),
			zap.Int("failures", *consecutiveFailures),
			zap.Duration("wait", wait))

		if *consecutiveFailures >= maxRetriesFor(page) {
			return nil, err
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (f *RankedFetcher) persist(ctx context.Context, assets []domain.RankedAsset) error {
	raw, err := json.Marshal(assets)
	if err != nil {
		return err
	}
	if err := f.store.Set(ctx, keyRankedAssets, string(raw)); err != nil {
		return err
	}
	return stampNow(ctx, f.store, keyRankedFetched)
}

// EnsureFresh re-fetches the ranked cache when it is older than window,
// otherwise serves the stored copy.
func (f *RankedFetcher) EnsureFresh(ctx context.Context, limit int, window time.Duration) ([]domain.RankedAsset, error) {
	if isFresh(ctx, f.store, keyRankedFetched, window) {
		if cached := f.Cached(ctx); len(cached) > 0 {
			return cached, nil
		}
	}
	return f.FetchRanked(ctx, limit)
}

// Cached returns the stored ranked list, or nil when absent or unreadable.
func (f *RankedFetcher) Cached(ctx context.Context) []domain.RankedAsset {
	raw, ok, err := f.store.Get(ctx, keyRankedAssets)
	if err != nil || !ok {
		return nil
	}
	var assets []domain.RankedAsset
	if err := json.Unmarshal([]byte(raw), &assets); err != nil {
		return nil
	}
	return assets
}

func (f *RankedFetcher) pageDelay() time.Duration {
	if f.PageDelay > 0 {
		return f.PageDelay
	}
	return DefaultPageDelay
}

func (f *RankedFetcher) backoffUnit() time.Duration {
	if f.BackoffUnit > 0 {
		return f.BackoffUnit
	}
	return DefaultBackoffUnit
}
