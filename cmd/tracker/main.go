package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitos/coinfolio/internal/infrastructure/coingecko"
	"github.com/vitos/coinfolio/internal/infrastructure/currency"
	"github.com/vitos/coinfolio/internal/infrastructure/defillama"
	"github.com/vitos/coinfolio/internal/infrastructure/logger"
	"github.com/vitos/coinfolio/internal/infrastructure/storage"
	"github.com/vitos/coinfolio/internal/infrastructure/transport"
	"github.com/vitos/coinfolio/internal/infrastructure/vault"
	"github.com/vitos/coinfolio/internal/usecase"
	"github.com/vitos/coinfolio/internal/web"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Upstream struct {
		CoinGeckoURL string `yaml:"coingecko_url"`
		YieldsURL    string `yaml:"yields_url"`
		CurrencyURL  string `yaml:"currency_url"`
		ProxyURL     string `yaml:"proxy_url"`
		TimeoutSec   int    `yaml:"timeout_sec"`
	} `yaml:"upstream"`
	Refresh struct {
		DecoyCount       int           `yaml:"decoy_count"`
		CatalogFreshness time.Duration `yaml:"catalog_freshness"`
		RankedFreshness  time.Duration `yaml:"ranked_freshness"`
		RatesFreshness   time.Duration `yaml:"rates_freshness"`
		RefreshOnStartup bool          `yaml:"refresh_on_startup"`
	} `yaml:"refresh"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	// 1. Load Config
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	var log *zap.Logger
	if cfg.Logging.File != "" {
		log, err = logger.NewFileLogger(cfg.Logging.File, cfg.Logging.Level)
	} else {
		log, err = logger.NewLogger(cfg.Logging.Level)
	}
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Init Storage
	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = "tracker.db"
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		log.Fatal("Failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	// 4. Init Upstream Clients
	timeout := time.Duration(cfg.Upstream.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	proxyURL := cfg.Upstream.ProxyURL
	if proxyURL == "" {
		proxyURL = "https://api.allorigins.win/get?url="
	}
	httpClient := transport.NewClient(timeout, proxyURL, log)
	gecko := coingecko.NewClient(cfg.Upstream.CoinGeckoURL, httpClient)
	llama := defillama.NewClient(cfg.Upstream.YieldsURL, httpClient)
	rates := currency.NewClient(cfg.Upstream.CurrencyURL, httpClient)

	// 5. Init Services
	settingsService := usecase.NewSettingsService(store, log)
	catalogService := usecase.NewCatalogService(store, gecko, cfg.Refresh.CatalogFreshness, log)
	fetcher := usecase.NewRankedFetcher(gecko, store, log)
	holdingsService := usecase.NewHoldingsService(store, vault.NewAESVault(), log)
	ratesService := usecase.NewRatesService(store, rates, settingsService, cfg.Refresh.RatesFreshness, log)
	hub := web.NewHub(log)
	refreshService := usecase.NewRefreshService(gecko, catalogService, holdingsService, settingsService, hub, cfg.Refresh.DecoyCount, log)
	yieldsService := usecase.NewYieldsService(llama, log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 6. Warm caches and run the startup refresh
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		if _, err := catalogService.EnsureFresh(ctx); err != nil {
			log.Error("Failed to init token catalog", zap.Error(err))
		}

		rankedWindow := cfg.Refresh.RankedFreshness
		if rankedWindow <= 0 {
			rankedWindow = time.Hour
		}
		if _, err := fetcher.EnsureFresh(ctx, settingsService.CacheLimit(ctx), rankedWindow); err != nil {
			log.Error("Failed to init ranked cache", zap.Error(err))
		}

		if cfg.Refresh.RefreshOnStartup {
			if err := refreshService.Refresh(ctx); err != nil {
				log.Error("Startup refresh failed", zap.Error(err))
			}
		}
	}()

	// 7. Load the yields pool list once
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := yieldsService.Load(ctx); err != nil {
			log.Error("Failed to load yields pools", zap.Error(err))
		}
	}()

	// 8. Init Web Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080 // Default
	}
	server := web.NewServer(port, catalogService, fetcher, holdingsService, settingsService, ratesService, refreshService, yieldsService, hub, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 9. Wait for Shutdown
	<-stop

	log.Info("Shutting down...")
	server.Shutdown(context.Background())
}
