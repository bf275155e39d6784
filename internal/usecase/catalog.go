package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
)

const DefaultCatalogFreshness = 24 * time.Hour

// CatalogService keeps the full token catalog cached with a freshness
// window. The catalog is replaced wholesale on every successful fetch.
type CatalogService struct {
	store     domain.KVStore
	market    domain.MarketSource
	freshness time.Duration
	logger    *zap.Logger
}

func NewCatalogService(store domain.KVStore, market domain.MarketSource, freshness time.Duration, logger *zap.Logger) *CatalogService {
	if freshness <= 0 {
		freshness = DefaultCatalogFreshness
	}
	return &CatalogService{store: store, market: market, freshness: freshness, logger: logger}
}

// EnsureFresh returns the catalog, fetching it when the cached copy is older
// than the freshness window. A failed fetch degrades to the cached copy when
// one exists; the store is only written after a full successful parse.
func (s *CatalogService) EnsureFresh(ctx context.Context) ([]domain.Token, error) {
	if isFresh(ctx, s.store, keyAllTokensFetched, s.freshness) {
		if cached := s.Cached(ctx); len(cached) > 0 {
			return cached, nil
		}
	}

	tokens, err := s.market.ListTokens(ctx)
	if err != nil {
		cached := s.Cached(ctx)
		if len(cached) > 0 {
			s.logger.Warn("catalog fetch failed, serving cached copy",
				zap.Int("cached", len(cached)), zap.Error(err))
			return cached, nil
		}
		return nil, errors.Wrap(err, "fetch token catalog")
	}
	if len(tokens) == 0 {
		return nil, errors.New("token catalog fetch returned no entries")
	}

	raw, err := json.Marshal(tokens)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, keyAllTokens, string(raw)); err != nil {
		return nil, err
	}
	if err := stampNow(ctx, s.store, keyAllTokensFetched); err != nil {
		return nil, err
	}

	s.logger.Info("token catalog refreshed", zap.Int("tokens", len(tokens)))
	return tokens, nil
}

// Cached returns the stored catalog, or nil when absent or unreadable.
func (s *CatalogService) Cached(ctx context.Context) []domain.Token {
	raw, ok, err := s.store.Get(ctx, keyAllTokens)
	if err != nil || !ok {
		return nil
	}
	var tokens []domain.Token
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		s.logger.Warn("cached catalog is unreadable", zap.Error(err))
		return nil
	}
	return tokens
}

// Count is the cached catalog size, for the header display.
func (s *CatalogService) Count(ctx context.Context) int {
	return len(s.Cached(ctx))
}
