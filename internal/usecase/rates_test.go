package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
	"github.com/vitos/coinfolio/internal/usecase"
)

type scriptedRates struct {
	mu      sync.Mutex
	rates   map[string]domain.Rate
	err     error
	calls   int
	lastKey string
}

func (s *scriptedRates) Latest(ctx context.Context, apiKey string) (map[string]domain.Rate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastKey = apiKey
	return s.rates, s.err
}

func newRatesFixture(source *scriptedRates) (*usecase.RatesService, *memStore) {
	store := newMemStore()
	settings := usecase.NewSettingsService(store, zap.NewNop())
	return usecase.NewRatesService(store, source, settings, time.Hour, zap.NewNop()), store
}

func TestRates_FetchesOnceInsideFreshnessWindow(t *testing.T) {
	source := &scriptedRates{rates: map[string]domain.Rate{"EUR": {Value: decimal.NewFromFloat(0.9)}}}
	svc, _ := newRatesFixture(source)
	ctx := context.Background()

	first := svc.EnsureFresh(ctx)
	require.True(t, first["EUR"].Value.Equal(decimal.NewFromFloat(0.9)))

	second := svc.EnsureFresh(ctx)
	require.True(t, second["EUR"].Value.Equal(decimal.NewFromFloat(0.9)))
	require.Equal(t, 1, source.calls, "second call served from cache")
}

func TestRates_PassesConfiguredCredential(t *testing.T) {
	source := &scriptedRates{rates: map[string]domain.Rate{}}
	svc, store := newRatesFixture(source)
	ctx := context.Background()

	settings := usecase.NewSettingsService(store, zap.NewNop())
	require.NoError(t, settings.SetCurrencyAPIKey(ctx, "fca_live_xyz"))

	svc.EnsureFresh(ctx)
	require.Equal(t, "fca_live_xyz", source.lastKey)
}

func TestRates_DegradesToCachedTableOnFailure(t *testing.T) {
	source := &scriptedRates{rates: map[string]domain.Rate{"EUR": {Value: decimal.NewFromFloat(0.9)}}}
	svc, store := newRatesFixture(source)
	ctx := context.Background()

	svc.EnsureFresh(ctx)

	require.NoError(t, store.Delete(ctx, "lastFetchTimestamp"))
	source.mu.Lock()
	source.err = errors.New("upstream down")
	source.mu.Unlock()

	rates := svc.EnsureFresh(ctx)
	require.True(t, rates["EUR"].Value.Equal(decimal.NewFromFloat(0.9)), "cached table survives the failure")
}

func TestRates_EmptyWithoutCacheOrUpstream(t *testing.T) {
	source := &scriptedRates{err: errors.New("no credential")}
	svc, _ := newRatesFixture(source)

	require.Empty(t, svc.EnsureFresh(context.Background()))
}
