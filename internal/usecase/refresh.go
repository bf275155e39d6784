package usecase

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
)

// Notifier is told when a refresh finished and the table should re-render
// with the persisted sort order. Rendering itself lives in the browser.
type Notifier interface {
	HoldingsUpdated(sort domain.SortState)
}

// RefreshService orchestrates the price refresh: fresh catalog, holdings
// resolved to canonical ids, spoofed price request, merge, persist, notify.
type RefreshService struct {
	market   domain.MarketSource
	catalog  *CatalogService
	holdings *HoldingsService
	settings *SettingsService
	notifier Notifier
	logger   *zap.Logger

	decoyCount int
	inFlight   atomic.Bool
}

func NewRefreshService(
	market domain.MarketSource,
	catalog *CatalogService,
	holdings *HoldingsService,
	settings *SettingsService,
	notifier Notifier,
	decoyCount int,
	logger *zap.Logger,
) *RefreshService {
	if decoyCount <= 0 {
		decoyCount = DefaultDecoyCount
	}
	return &RefreshService{
		market:     market,
		catalog:    catalog,
		holdings:   holdings,
		settings:   settings,
		notifier:   notifier,
		decoyCount: decoyCount,
		logger:     logger,
	}
}

// InFlight reports whether a refresh is currently running.
func (s *RefreshService) InFlight() bool {
	return s.inFlight.Load()
}

// Refresh runs the pipeline once. A call while another refresh is in flight
// observes the guard and returns immediately with no side effects. Holdings
// are only written after a full successful merge; on any failure they stay
// exactly as they were.
func (s *RefreshService) Refresh(ctx context.Context) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("refresh already in flight, skipping")
		return nil
	}
	defer s.inFlight.Store(false)

	catalog, err := s.catalog.EnsureFresh(ctx)
	if err != nil {
		s.logger.Warn("refresh continuing without catalog", zap.Error(err))
	}

	holdings := s.holdings.Load(ctx, "")
	if len(holdings) == 0 {
		s.notify(ctx)
		return nil
	}

	realIDs := resolveIDs(holdings, catalog)
	if len(realIDs) == 0 {
		s.notify(ctx)
		return nil
	}

	spoofed := SpoofIDs(realIDs, s.decoyCount, catalog, nil)
	quotes, err := s.market.MarketsByIDs(ctx, spoofed, "usd")
	if err != nil {
		return errors.Wrap(err, "fetch market data")
	}

	byID := make(map[string]domain.MarketQuote, len(quotes))
	for _, q := range quotes {
		byID[q.ID] = q
	}

	realSet := make(map[string]struct{}, len(realIDs))
	for _, id := range realIDs {
		realSet[id] = struct{}{}
	}

	hundred := decimal.NewFromInt(100)
	one := decimal.NewFromInt(1)
	updated := 0
	for i := range holdings {
		id := holdings[i].CoinGeckoID
		if _, real := realSet[id]; !real {
			continue
		}
		q, ok := byID[id]
		if !ok {
			// Unmatched holdings stay untouched.
			continue
		}
		holdings[i].Rate = q.CurrentPrice
		holdings[i].DeltaDay = one.Add(q.PriceChange24Pct.Div(hundred))
		holdings[i].QuoteAsset = "USD"
		holdings[i].IconURL = q.Image
		holdings[i].LastUpdated = q.LastUpdated
		updated++
	}

	if err := s.holdings.Save(ctx, holdings, ""); err != nil {
		return errors.Wrap(err, "persist holdings")
	}

	s.logger.Info("prices refreshed",
		zap.Int("holdings", len(holdings)),
		zap.Int("updated", updated),
		zap.Int("request_ids", len(spoofed)))

	s.notify(ctx)
	return nil
}

func (s *RefreshService) notify(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.HoldingsUpdated(s.settings.SortState(ctx))
	}
}

// resolveIDs maps holdings to canonical ids, backfilling legacy entries that
// only carry a display symbol by a case-insensitive catalog lookup.
func resolveIDs(holdings []domain.Holding, catalog []domain.Token) []string {
	ids := make([]string, 0, len(holdings))
	for i := range holdings {
		if holdings[i].CoinGeckoID != "" {
			ids = append(ids, holdings[i].CoinGeckoID)
			continue
		}
		for _, t := range catalog {
			if strings.EqualFold(t.Symbol, holdings[i].Code) || strings.EqualFold(t.Symbol, holdings[i].Symbol) {
				holdings[i].CoinGeckoID = t.ID
				ids = append(ids, t.ID)
				break
			}
		}
	}
	return ids
}
