package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/finroute/fx-rate-provider/internal/application/service"
	"github.com/finroute/fx-rate-provider/internal/config"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/api"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/db"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/handler"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/logger"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/metrics"
	"github.com/finroute/fx-rate-provider/internal/infrastructure/middleware"
)

func main() {
	log.Println("Starting FX rate provider plugin")

	cfg := config.MustLoad()
	appLogger := logger.New(cfg.Log.Level)
	logger.SetDefaultLogger(appLogger)

	// Setup the quote journal. An empty path keeps quotes in memory only.
	badgerOpts := badger.DefaultOptions(cfg.Journal.Path)
	badgerOpts.Logger = nil // Disable Badger's default logger
	if cfg.Journal.Path == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	} else if err := os.MkdirAll(cfg.Journal.Path, 0755); err != nil {
		log.Fatalf("Failed to create journal directory: %v", err)
	}

	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		log.Fatalf("Failed to open quote journal: %v", err)
	}

	defer func() {
		if err := badgerDB.Close(); err != nil {
			log.Printf("Error closing quote journal: %v", err)
		}
	}()

	journal := db.NewBadgerQuoteJournal(badgerDB)

	// Metrics registry
	registry := prometheus.NewRegistry()
	providerMetrics := metrics.NewProviderMetrics(registry)

	// Rate source client
	httpClient := &http.Client{Timeout: time.Duration(cfg.RateAPI.TimeoutSeconds) * time.Second}
	rateSource := api.NewYahooFinanceClient(cfg.RateAPI.URL, httpClient, appLogger)

	// Quoting configuration
	spread, err := decimal.NewFromString(cfg.Quoting.Spread)
	if err != nil {
		log.Fatalf("Invalid spread %q: %v", cfg.Quoting.Spread, err)
	}
	probeAmount, err := decimal.NewFromString(cfg.Quoting.ProbeAmount)
	if err != nil {
		log.Fatalf("Invalid probe amount %q: %v", cfg.Quoting.ProbeAmount, err)
	}

	pairs := make([][]string, 0, len(cfg.Quoting.Pairs))
	for _, raw := range cfg.Quoting.Pairs {
		source, destination, err := config.SplitPair(raw)
		if err != nil {
			log.Fatalf("Invalid ledger pair: %v", err)
		}
		pairs = append(pairs, []string{source, destination})
	}

	provider, err := service.NewRateProvider(service.Config{
		Spread:        spread,
		BaseCurrency:  cfg.RateAPI.BaseCurrency,
		Currencies:    cfg.Quoting.Currencies,
		Pairs:         pairs,
		UseProbeParam: cfg.Quoting.UseProbeParam,
		ProbeAmount:   probeAmount,
	}, rateSource, journal, appLogger, providerMetrics)
	if err != nil {
		log.Fatalf("Failed to build rate provider: %v", err)
	}

	// Setup router
	rateHandler := handler.NewRateHandler(provider, journal, appLogger)

	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware(appLogger))
	rateHandler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")

	// Start server
	log.Printf("Server listening on %s", cfg.HTTPServer.Addr)
	log.Fatal(http.ListenAndServe(cfg.HTTPServer.Addr, router))
}
