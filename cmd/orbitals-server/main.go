package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orbitals/internal/api"
	"orbitals/internal/config"
	"orbitals/internal/engine"
	"orbitals/internal/market"
	"orbitals/internal/recorder"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := os.Getenv("ORBITALS_CONFIG")
	if path == "" {
		path = "orbitals.yaml"
	}
	cfg, err := config.LoadServer(path)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	seed := cfg.Market.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sim := engine.New(engine.Config{
		CompanyCount:  cfg.Market.CompanyCount,
		Difficulty:    market.Difficulty(cfg.Market.Difficulty),
		PlayerName:    cfg.Market.PlayerName,
		PlayerCompany: cfg.Market.PlayerCompany,
		Seed:          seed,
	}, logger)

	var rec recorder.Recorder = recorder.Noop{}
	if cfg.DatabaseURL != "" {
		pg, err := recorder.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		rec = pg
	}
	defer rec.Close()

	events, cancelFeed := sim.SubscribeFeed(256)
	defer cancelFeed()
	go func() {
		for ev := range events {
			if err := rec.RecordEvent(ctx, ev); err != nil {
				logger.Error("record event failed", "err", err)
			}
		}
	}()

	server := api.New(logger, sim)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	go runTicker(ctx, cfg, sim, rec, logger)

	logger.Info("orbitals api listening", "addr", cfg.Addr, "companies", cfg.Market.CompanyCount, "difficulty", cfg.Market.Difficulty)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// runTicker drives the simulation clock. The interval is re-read every
// tick so speed changes take effect on the next beat.
func runTicker(ctx context.Context, cfg *config.ServerConfig, sim *engine.Engine, rec recorder.Recorder, logger *slog.Logger) {
	interval := func() time.Duration {
		if sim.FastMode() {
			return cfg.FastTickEvery()
		}
		return cfg.TickEvery()
	}

	timer := time.NewTimer(interval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("ticker shutdown")
			return
		case <-timer.C:
			sim.Tick()
			if err := rec.RecordTick(ctx, sim.Status(), sim.Reports()); err != nil {
				logger.Error("record tick failed", "err", err)
			}
			timer.Reset(interval())
		}
	}
}
