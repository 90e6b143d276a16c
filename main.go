package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"momentum-trader/config"
	"momentum-trader/momentum"
	"momentum-trader/observability"
	"momentum-trader/repository"
	"momentum-trader/scheduler"
	"momentum-trader/services"
	"momentum-trader/strategy"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		observability.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		observability.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.Production)
	observability.InitMetrics(prometheus.DefaultRegisterer)

	ctx := context.Background()

	// The ledger lives in Postgres; nothing works without it.
	if !cfg.HasDatabase() {
		observability.Error("DATABASE_URL is not set")
		os.Exit(1)
	}
	repo, err := repository.NewRepository(ctx, cfg.Database.URL)
	if err != nil {
		observability.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	// External services degrade gracefully when credentials are missing
	var broker services.BrokerageInterface
	var marketData services.MarketDataInterface
	var provider momentum.PriceProvider

	if cfg.HasAlpaca() {
		alpacaService := services.NewAlpacaService(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)
		broker = alpacaService
	} else {
		observability.Warn("Alpaca API credentials not set, trading disabled")
	}

	if cfg.HasFMP() {
		fmpService := services.NewFMPService(cfg.FMP.APIKey)
		marketData = fmpService
		provider = fmpService
	} else {
		observability.Warn("market data API key not set, price fetching disabled")
	}

	calculator := momentum.NewCalculator(repo, provider, cfg.Momentum)
	ranker := momentum.NewRanker(repo)
	backfiller := momentum.NewBackfiller(repo, provider, cfg.Momentum)

	signals := strategy.NewSignalGenerator(repo)
	executor := strategy.NewOrderExecutor(repo, broker, marketData)
	rebalancer := strategy.NewRebalancer(repo, calculator, ranker, signals, executor, broker, cfg, nil)

	sched := scheduler.NewScheduler(repo, rebalancer, executor, cfg)
	if err := sched.Register(ctx); err != nil {
		observability.Error("failed to register scheduled jobs", "error", err)
		os.Exit(1)
	}
	sched.Start()

	handler := NewAPIHandler(repo, sched, executor, rebalancer, backfiller, cfg)
	router := NewRouter(handler, cfg)

	server := &http.Server{
		Addr:    cfg.HTTP.ListenAddr,
		Handler: router,
	}

	go func() {
		observability.Info("HTTP server listening", "addr", cfg.HTTP.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	observability.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Error("HTTP shutdown failed", "error", err)
	}
	sched.Stop()
}
