package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	stressapi "liquidity_stress/pkg/api/stress"
	"liquidity_stress/pkg/core/config"
	"liquidity_stress/pkg/core/fundamentals"
	"liquidity_stress/pkg/core/ingest"
	"liquidity_stress/pkg/core/logging"
	"liquidity_stress/pkg/core/pipeline"
	"liquidity_stress/pkg/core/stress"
)

func main() {
	// Load environment variables (.env first, then STRESS_*)
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	logger := logging.Init(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	var scenarios []stress.Scenario
	if cfg.ScenarioDeck != "" {
		scenarios, err = stress.LoadDeck(cfg.ScenarioDeck)
		if err != nil {
			logger.Error("failed to load scenario deck", slog.String("path", cfg.ScenarioDeck), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	metrics := stressapi.NewMetrics()
	client := ingest.NewEDGARClient(
		ingest.DefaultEndpoints(cfg.SEC.UserAgent),
		cfg.SEC.Timeout,
		ingest.WithRateLimit(cfg.SEC.RateLimit),
		ingest.WithObserver(metrics.ObserveSEC),
		ingest.WithLogger(logger),
	)
	resolver := stressapi.NewCachedResolver(client, cfg.SEC.TickerCacheTTL, metrics, logger)
	runner := pipeline.NewRunner(fundamentals.NewBuilder(resolver, client), logger)

	handler := stressapi.NewHandler(runner, stressapi.Settings{
		Thresholds: cfg.Covenants.Thresholds(),
		Scenarios:  scenarios,
		UserAgent:  cfg.SEC.UserAgent,
		RateLimit:  cfg.SEC.RateLimit,
		// lookup + facts, each bounded by the SEC timeout
		RunTimeout: 2 * cfg.SEC.Timeout,
	}, metrics, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("API server starting",
		slog.String("addr", srv.Addr),
		slog.String("scenario_deck", cfg.ScenarioDeck),
		slog.String("routes", "GET /healthz, GET /metrics, GET /api/config, GET /api/scenarios, POST /api/stress, GET /api/stress/{ticker}"))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed to start", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("API server stopped")
}
