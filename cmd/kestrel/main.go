// Kestrel - Application portfolio rationalization that deploys in 60 seconds.
// Copyright (c) 2025 opensource.portfolio
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-portfolio/kestrel/internal/api"
	"github.com/opensource-portfolio/kestrel/internal/bus"
	"github.com/opensource-portfolio/kestrel/internal/cache"
	"github.com/opensource-portfolio/kestrel/internal/compliance"
	"github.com/opensource-portfolio/kestrel/internal/domain"
	"github.com/opensource-portfolio/kestrel/internal/rationalize"
	"github.com/opensource-portfolio/kestrel/internal/repository"
	"github.com/opensource-portfolio/kestrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("KESTREL_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("KESTREL_TIER") == "pro" {
		cfg = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	// Classifier strategy overrides
	if pt := os.Getenv("KESTREL_PORTFOLIO_TYPE"); pt != "" {
		cfg.PortfolioType = domain.PortfolioType(pt)
	}
	if sector := os.Getenv("KESTREL_SECTOR"); sector != "" {
		cfg.Sector = domain.GovernmentSector(sector)
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"portfolio_type", cfg.PortfolioType,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize rationalization pipeline
	pipeline, err := rationalize.New()
	if err != nil {
		slog.Error("failed to initialize rationalization pipeline", "error", err)
		os.Exit(1)
	}
	slog.Info("rationalization pipeline initialized")

	// Initialize compliance engine with built-in frameworks
	complianceEngine, err := compliance.NewEngine()
	if err != nil {
		slog.Error("failed to initialize compliance engine", "error", err)
		os.Exit(1)
	}
	slog.Info("compliance engine initialized", "framework_count", len(complianceEngine.ListFrameworks()))

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("KESTREL_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, pipeline)

		// Get tenant IDs to process (from environment or default)
		tenantIDs := []string{}
		if envTenants := os.Getenv("KESTREL_TENANTS"); envTenants != "" {
			// Could parse comma-separated list here
			tenantIDs = []string{envTenants}
		}

		workerCfg := worker.Config{
			TenantIDs:   tenantIDs,
			WorkerCount: 5,
		}

		if err := asyncWorker.Start(workerCfg); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenantIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg, repo, cacheImpl, busImpl, pipeline, complianceEngine, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kestrel shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ==============================================")
	fmt.Println("                  KESTREL")
	fmt.Println("     Portfolio Rationalization Engine")
	fmt.Println("      Eyes on every application.")
	fmt.Println("  ==============================================")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /portfolios/analyze              - Run the rationalization pipeline")
	fmt.Println("    POST /portfolios/analyze/government   - Public-sector scoring")
	fmt.Println("    GET  /analyses/{id}                   - Get stored analysis by ID")
	fmt.Println("    POST /scenarios/{type}                - Simulate a what-if scenario")
	fmt.Println("    POST /scenarios/recommended           - Recommended scenarios")
	fmt.Println("    POST /roadmap                         - Generate phased roadmap")
	fmt.Println("    POST /roadmap/summary                 - Roadmap summary")
	fmt.Println("    GET  /compliance/frameworks           - List compliance frameworks")
	fmt.Println("    POST /compliance/{framework}          - Assess portfolio compliance")
	fmt.Println("    POST /dependencies/graph              - Dependency graph analysis")
	fmt.Println("    POST /dependencies/blast-radius/{name} - Failure blast radius")
	fmt.Println("    POST /costs/tco                       - TCO and cost optimization")
	fmt.Println("    GET  /health                          - Health check")
	fmt.Println()
}
