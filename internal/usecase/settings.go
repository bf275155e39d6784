package usecase

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
)

// SettingsService reads and writes user settings in the kv store.
type SettingsService struct {
	store  domain.KVStore
	logger *zap.Logger
}

func NewSettingsService(store domain.KVStore, logger *zap.Logger) *SettingsService {
	return &SettingsService{store: store, logger: logger}
}

func (s *SettingsService) CacheLimit(ctx context.Context) int {
	raw, ok, err := s.store.Get(ctx, keyCacheLimit)
	if err != nil || !ok {
		return domain.DefaultCacheLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || domain.ValidateCacheLimit(limit) != nil {
		return domain.DefaultCacheLimit
	}
	return limit
}

// SetCacheLimit stores a new ranked-cache bound and invalidates the ranked
// freshness stamp, forcing the next ensure to re-fetch from page 1 instead of
// topping up incrementally.
func (s *SettingsService) SetCacheLimit(ctx context.Context, limit int) error {
	if err := domain.ValidateCacheLimit(limit); err != nil {
		return err
	}
	if err := s.store.Set(ctx, keyCacheLimit, strconv.Itoa(limit)); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, keyRankedFetched); err != nil {
		return err
	}
	s.logger.Info("cache limit updated", zap.Int("limit", limit))
	return nil
}

func (s *SettingsService) PreferredCurrency(ctx context.Context) string {
	raw, ok, err := s.store.Get(ctx, keyPreferredCurrency)
	if err != nil || !ok || raw == "" {
		return domain.DefaultCurrency
	}
	return strings.ToUpper(raw)
}

func (s *SettingsService) SetPreferredCurrency(ctx context.Context, code string) error {
	return s.store.Set(ctx, keyPreferredCurrency, strings.ToUpper(code))
}

func (s *SettingsService) SortState(ctx context.Context) domain.SortState {
	state := domain.DefaultSortState()
	if by, ok, err := s.store.Get(ctx, keySortBy); err == nil && ok && by != "" {
		state.By = by
	}
	if order, ok, err := s.store.Get(ctx, keySortOrder); err == nil && ok && order != "" {
		state.Order = order
	}
	return state
}

func (s *SettingsService) SetSortState(ctx context.Context, state domain.SortState) error {
	if err := s.store.Set(ctx, keySortBy, state.By); err != nil {
		return err
	}
	return s.store.Set(ctx, keySortOrder, state.Order)
}

func (s *SettingsService) CurrencyAPIKey(ctx context.Context) string {
	raw, _, _ := s.store.Get(ctx, keyCurrencyAPIKey)
	return raw
}

func (s *SettingsService) SetCurrencyAPIKey(ctx context.Context, key string) error {
	return s.store.Set(ctx, keyCurrencyAPIKey, key)
}
