// PhishGuard - Deterministic phishing analysis for untrusted text.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/phishguard/phishguard/internal/alerts"
	"github.com/phishguard/phishguard/internal/api"
	"github.com/phishguard/phishguard/internal/bus"
	"github.com/phishguard/phishguard/internal/cache"
	"github.com/phishguard/phishguard/internal/domain"
	"github.com/phishguard/phishguard/internal/engine"
	"github.com/phishguard/phishguard/internal/quota"
	"github.com/phishguard/phishguard/internal/report"
	"github.com/phishguard/phishguard/internal/repository"
	"github.com/phishguard/phishguard/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Load .env if present; real environment wins over file values
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("PHISHGUARD_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting phishguard",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()
	mode := "default"

	// Distributed deployment via environment
	if os.Getenv("PHISHGUARD_MODE") == "pro" {
		cfg = domain.ProConfig()
		mode = "pro"
		slog.Info("running in pro mode")
	}

	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"mode", mode,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"rate_limit_per_minute", cfg.Server.RateLimitPerMinute,
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

	// Initialize detection engine with the default ruleset
	detectionEngine := engine.New(nil)
	slog.Info("detection engine initialized")

	// Initialize Alert Engine
	alertEngine, err := alerts.NewEngine(100)
	if err != nil {
		slog.Error("failed to initialize alert engine", "error", err)
		os.Exit(1)
	}
	defer alertEngine.Close()

	if err := loadAlertRules(ctx, repo, alertEngine); err != nil {
		slog.Error("failed to load alert rules", "error", err)
		os.Exit(1)
	}
	slog.Info("alert engine initialized", "rules_count", alertEngine.RulesCount())

	// Initialize quota service for per-user rate limiting
	quotaSvc := quota.NewService(cacheImpl, repo, cfg.Server.RateLimitPerMinute, time.Minute)

	// Initialize async Worker
	var asyncWorker *worker.Worker
	if os.Getenv("PHISHGUARD_ASYNC_WORKER") != "false" {
		asyncWorker = worker.NewWorker(busImpl, repo, detectionEngine, alertEngine)

		// Empty list means one global subscription
		var userIDs []string
		if envUsers := os.Getenv("PHISHGUARD_USERS"); envUsers != "" {
			for _, id := range strings.Split(envUsers, ",") {
				if id = strings.TrimSpace(id); id != "" {
					userIDs = append(userIDs, id)
				}
			}
		}

		workerCfg := worker.Config{
			UserIDs: userIDs,
		}

		if err := asyncWorker.Start(workerCfg); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "user_count", len(userIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, detectionEngine, alertEngine, report.NewTextRenderer(), quotaSvc, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("phishguard is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version, mode)

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

	slog.Info("phishguard shutdown complete")
}

// applyEnvOverrides adjusts the base configuration from the environment.
func applyEnvOverrides(cfg *domain.Config) {
	if port := os.Getenv("PHISHGUARD_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if limit := os.Getenv("PHISHGUARD_RATE_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if path := os.Getenv("PHISHGUARD_SQLITE_PATH"); path != "" {
		cfg.Repository.SQLitePath = path
	}
	if host := os.Getenv("PHISHGUARD_PG_HOST"); host != "" {
		cfg.Repository.PostgresHost = host
	}
	if pass := os.Getenv("PHISHGUARD_PG_PASSWORD"); pass != "" {
		cfg.Repository.PostgresPassword = pass
	}
	if addr := os.Getenv("PHISHGUARD_REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
	if url := os.Getenv("PHISHGUARD_NATS_URL"); url != "" {
		cfg.EventBus.NATSUrl = url
	}
}

// loadAlertRules loads alert rules from the database into the engine.
// An empty database seeds the builtin rules so a fresh install alerts on
// the obvious cases out of the box.
func loadAlertRules(ctx context.Context, repo domain.Repository, alertEngine *alerts.Engine) error {
	dbRules, err := repo.ListAlertRules(ctx)
	if err != nil {
		slog.Warn("failed to list alert rules from database", "error", err)
		return alertEngine.LoadRules(alerts.BuiltinRules())
	}

	if len(dbRules) > 0 {
		slog.Info("loading alert rules from database", "count", len(dbRules))
		return alertEngine.LoadRules(dbRules)
	}

	slog.Info("no alert rules in database - seeding builtins")
	builtins := alerts.BuiltinRules()
	for _, rule := range builtins {
		if err := repo.SaveAlertRule(ctx, rule); err != nil {
			slog.Warn("failed to persist builtin rule", "id", rule.ID, "error", err)
		}
	}
	return alertEngine.LoadRules(builtins)
}

func printBanner(cfg *domain.Config, version string, mode string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║              🛡  PHISHGUARD                ║")
	fmt.Println("  ║      Phishing Text Analysis Engine        ║")
	fmt.Println("  ║      Trust nothing. Verify everything.    ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Mode:     %s\n", mode)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /analyze               - Analyze text for phishing")
	fmt.Println("    POST /analyze/async         - Queue an analysis (?wait=true to block)")
	fmt.Println("    GET  /analyses              - List your analyses")
	fmt.Println("    GET  /analyses/{id}         - Get analysis by ID")
	fmt.Println("    GET  /analyses/{id}/report  - Download text report")
	fmt.Println("    DELETE /analyses/{id}       - Delete an analysis")
	fmt.Println("    GET  /alert-rules           - List alert rules")
	fmt.Println("    POST /alert-rules           - Create an alert rule")
	fmt.Println("    DELETE /alert-rules/{id}    - Delete an alert rule")
	fmt.Println("    POST /alert-rules/reload    - Hot-reload alert rules")
	fmt.Println("    GET  /health                - Health check")
	fmt.Println()
}
