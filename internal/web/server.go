package web

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/vitos/coinfolio/internal/usecase"
)

type Server struct {
	router   *http.ServeMux
	server   *http.Server
	catalog  *usecase.CatalogService
	fetcher  *usecase.RankedFetcher
	holdings *usecase.HoldingsService
	settings *usecase.SettingsService
	rates    *usecase.RatesService
	refresh  *usecase.RefreshService
	yields   *usecase.YieldsService
	hub      *Hub
	logger   *zap.Logger
}

func NewServer(
	port int,
	catalog *usecase.CatalogService,
	fetcher *usecase.RankedFetcher,
	holdings *usecase.HoldingsService,
	settings *usecase.SettingsService,
	rates *usecase.RatesService,
	refresh *usecase.RefreshService,
	yields *usecase.YieldsService,
	hub *Hub,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:   http.NewServeMux(),
		catalog:  catalog,
		fetcher:  fetcher,
		holdings: holdings,
		settings: settings,
		rates:    rates,
		refresh:  refresh,
		yields:   yields,
		hub:      hub,
		logger:   logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Portfolio table
	s.router.HandleFunc("GET /api/holdings", s.handleHoldings)
	s.router.HandleFunc("POST /api/holdings", s.handleUpsertHolding)
	s.router.HandleFunc("DELETE /api/holdings/{id}", s.handleDeleteHolding)

	// Refresh trigger
	s.router.HandleFunc("POST /api/refresh", s.handleRefresh)

	// Catalog search
	s.router.HandleFunc("GET /api/search", s.handleSearch)

	// Cache status
	s.router.HandleFunc("GET /api/status", s.handleStatus)

	// Settings
	s.router.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.router.HandleFunc("POST /api/settings/cache-limit", s.handleSetCacheLimit)
	s.router.HandleFunc("POST /api/settings/currency", s.handleSetCurrency)
	s.router.HandleFunc("POST /api/settings/currency-api-key", s.handleSetCurrencyAPIKey)
	s.router.HandleFunc("POST /api/settings/sort", s.handleSetSort)

	// Yields table
	s.router.HandleFunc("GET /api/yields", s.handleYields)
	s.router.HandleFunc("POST /api/yields/sort/{column}", s.handleYieldsSort)

	// Change feed
	s.router.HandleFunc("GET /ws", s.hub.HandleWS)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
