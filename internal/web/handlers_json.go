package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/domain"
	"github.com/vitos/coinfolio/internal/usecase"
)

// vaultHeader optionally carries the holdings credential; absent means the
// fallback credential.
const vaultHeader = "X-Vault-Key"

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	holdings := s.holdings.Load(ctx, r.Header.Get(vaultHeader))
	rates := s.rates.EnsureFresh(ctx)
	currency := s.settings.PreferredCurrency(ctx)
	sortState := s.settings.SortState(ctx)

	summary := usecase.Valuate(holdings, rates, currency, sortState)
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleUpsertHolding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CoinGeckoID string `json:"coinGeckoId"`
		Symbol      string `json:"symbol"`
		Name        string `json:"name"`
		Quantity    string `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		http.Error(w, domain.ErrInvalidQuantity.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	holdings, err := s.holdings.Upsert(ctx, r.Header.Get(vaultHeader),
		req.CoinGeckoID, req.Symbol, req.Name, quantity, s.catalog.Cached(ctx))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuantity) || errors.Is(err, usecase.ErrAssetNotFound) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Error("Failed to save holding", zap.Error(err))
		http.Error(w, "Failed to save holding", http.StatusInternalServerError)
		return
	}

	// Pick up prices for the new or edited position.
	s.startRefresh()

	s.writeJSON(w, http.StatusOK, holdings)
}

func (s *Server) handleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.holdings.Delete(r.Context(), r.Header.Get(vaultHeader), r.PathValue("id"))
	if err != nil {
		s.logger.Error("Failed to delete holding", zap.Error(err))
		http.Error(w, "Failed to delete holding", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, holdings)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresh.InFlight() {
		s.writeJSON(w, http.StatusAccepted, map[string]bool{"alreadyRunning": true})
		return
	}
	s.startRefresh()
	s.writeJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}

// startRefresh runs the pipeline off the request goroutine. Failures surface
// as a single event on the change feed.
func (s *Server) startRefresh() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.refresh.Refresh(ctx); err != nil {
			s.logger.Error("Refresh failed", zap.Error(err))
			s.hub.Broadcast(Event{Type: "refresh_failed", Error: "Failed to refresh data. Please check your internet connection."})
		}
	}()
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results := usecase.SearchTokens(query, s.catalog.Cached(r.Context()))
	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"catalogTokens":   s.catalog.Count(ctx),
		"rankedAssets":    len(s.fetcher.Cached(ctx)),
		"refreshInFlight": s.refresh.InFlight(),
		"cacheLimit":      s.settings.CacheLimit(ctx),
		"currency":        s.settings.PreferredCurrency(ctx),
		"hasCurrencyKey":  s.settings.CurrencyAPIKey(ctx) != "",
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cacheLimit": s.settings.CacheLimit(ctx),
		"currency":   s.settings.PreferredCurrency(ctx),
		"sort":       s.settings.SortState(ctx),
	})
}

func (s *Server) handleSetCacheLimit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit int `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.settings.SetCacheLimit(r.Context(), req.Limit); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The old freshness stamp is gone; re-fill the ranked cache with the new
	// bound in the background.
	limit := req.Limit
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := s.fetcher.FetchRanked(ctx, limit); err != nil {
			s.logger.Error("Ranked cache refill failed", zap.Error(err))
		}
	}()

	s.writeJSON(w, http.StatusOK, map[string]int{"limit": limit})
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Currency == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.settings.SetPreferredCurrency(r.Context(), req.Currency); err != nil {
		s.logger.Error("Failed to save currency", zap.Error(err))
		http.Error(w, "Failed to save currency", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"currency": req.Currency})
}

func (s *Server) handleSetCurrencyAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.settings.SetCurrencyAPIKey(r.Context(), req.APIKey); err != nil {
		s.logger.Error("Failed to save API key", zap.Error(err))
		http.Error(w, "Failed to save API key", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

func (s *Server) handleSetSort(w http.ResponseWriter, r *http.Request) {
	var req domain.SortState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.settings.SetSortState(r.Context(), req); err != nil {
		s.logger.Error("Failed to save sort state", zap.Error(err))
		http.Error(w, "Failed to save sort state", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, req)
}

func floatParam(q map[string][]string, key string) *float64 {
	vals, ok := q[key]
	if !ok || len(vals) == 0 || vals[0] == "" {
		return nil
	}
	f, err := strconv.ParseFloat(vals[0], 64)
	if err != nil {
		return nil
	}
	return &f
}

func (s *Server) handleYields(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := usecase.PoolFilter{
		SymbolSearch: q.Get("symbol"),
		Category:     q.Get("category"),
		MinTVL:       floatParam(q, "min_tvl"),
		MaxTVL:       floatParam(q, "max_tvl"),
		MinAPY:       floatParam(q, "min_apy"),
		MaxAPY:       floatParam(q, "max_apy"),
		MinAPYMean:   floatParam(q, "min_apymean30d"),
		MaxAPYMean:   floatParam(q, "max_apymean30d"),
		ActiveTab:    q.Get("tab"),
	}

	page, _ := strconv.Atoi(q.Get("page"))
	s.writeJSON(w, http.StatusOK, s.yields.Query(filter, page))
}

func (s *Server) handleYieldsSort(w http.ResponseWriter, r *http.Request) {
	column := r.PathValue("column")
	switch column {
	case "tvlUsd", usecase.TabAPY, usecase.TabAPYMean30d:
	default:
		http.Error(w, "unknown sort column", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusOK, s.yields.CycleSort(column))
}
