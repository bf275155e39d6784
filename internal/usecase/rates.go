package usecase

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
)

const DefaultRatesFreshness = 12 * time.Hour

// RatesService keeps the currency conversion table cached. A failed fetch
// silently degrades to the cached table so the display currency keeps
// working offline.
type RatesService struct {
	store     domain.KVStore
	source    domain.RateSource
	settings  *SettingsService
	freshness time.Duration
	logger    *zap.Logger
}

func NewRatesService(store domain.KVStore, source domain.RateSource, settings *SettingsService, freshness time.Duration, logger *zap.Logger) *RatesService {
	if freshness <= 0 {
		freshness = DefaultRatesFreshness
	}
	return &RatesService{store: store, source: source, settings: settings, freshness: freshness, logger: logger}
}

// EnsureFresh returns the conversion table, re-fetching after the freshness
// window when a credential is configured.
func (s *RatesService) EnsureFresh(ctx context.Context) map[string]domain.Rate {
	if isFresh(ctx, s.store, keyRatesFetched, s.freshness) {
		return s.Cached(ctx)
	}

	rates, err := s.source.Latest(ctx, s.settings.CurrencyAPIKey(ctx))
	if err != nil {
		s.logger.Warn("currency rates fetch failed, using cached table", zap.Error(err))
		return s.Cached(ctx)
	}

	raw, err := json.Marshal(rates)
	if err != nil {
		return s.Cached(ctx)
	}
	if err := s.store.Set(ctx, keyCurrencyRates, string(raw)); err != nil {
		s.logger.Warn("could not persist currency rates", zap.Error(err))
		return rates
	}
	if err := stampNow(ctx, s.store, keyRatesFetched); err != nil {
		s.logger.Warn("could not stamp currency rates", zap.Error(err))
	}

	s.logger.Info("currency rates refreshed", zap.Int("currencies", len(rates)))
	return rates
}

// Cached returns the stored table, or an empty map.
func (s *RatesService) Cached(ctx context.Context) map[string]domain.Rate {
	raw, ok, err := s.store.Get(ctx, keyCurrencyRates)
	if err != nil || !ok {
		return map[string]domain.Rate{}
	}
	var rates map[string]domain.Rate
	if err := json.Unmarshal([]byte(raw), &rates); err != nil {
		return map[string]domain.Rate{}
	}
	return rates
}
