// Package app wires configuration into running components: store, policy
// gate, tool registry, executor, gateway, and the maintenance scheduler.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/opsgate/opsgate/internal/action"
	"github.com/opsgate/opsgate/internal/config"
	"github.com/opsgate/opsgate/internal/crm"
	"github.com/opsgate/opsgate/internal/gateway"
	"github.com/opsgate/opsgate/internal/maintenance"
	"github.com/opsgate/opsgate/internal/observability"
	"github.com/opsgate/opsgate/internal/security"
	"github.com/opsgate/opsgate/internal/store/sqlite"
	"github.com/opsgate/opsgate/internal/tool"
)

// RunParams configures the main application loop.
type RunParams struct {
	// ConfigPath is an explicit path to the YAML configuration file.
	// If empty, ResolveConfigPath is called automatically.
	ConfigPath string

	// Version is injected at build time via ldflags.
	Version string

	// LogLevel sets the minimum log level. Defaults to slog.LevelInfo.
	LogLevel slog.Level
}

// Run loads configuration, starts the gateway, and blocks until a shutdown
// signal is received.
func Run(params RunParams) error {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		resolved, err := ResolveConfigPath()
		if err != nil {
			return err
		}
		cfgPath = resolved
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: params.LogLevel,
	}))

	ctx := context.Background()

	tp, err := observability.InitTracer(ctx, observability.TracingConfig{
		Endpoint: cfg.Tracing.Endpoint,
		Insecure: cfg.Tracing.Insecure,
	})
	if err != nil {
		return err
	}
	if tp != nil {
		defer func() { _ = tp.Shutdown(context.Background()) }()
		logger.Info("tracing enabled", "endpoint", cfg.Tracing.Endpoint)
	}

	auditFile, err := os.OpenFile(cfg.Audit.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log %s: %w", cfg.Audit.Path, err)
	}
	defer func() { _ = auditFile.Close() }()

	auditLogger := security.NewAuditLogger(security.AuditLoggerConfig{
		Writer: auditFile,
	})

	limiter := security.NewRateLimiter(security.RateLimitConfig{
		RequestsPerMin: cfg.RateLimits.RequestsPerMin,
	})

	store, err := sqlite.Open(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if cfg.SeedDemo {
		if err := store.SeedDemo(ctx); err != nil {
			return err
		}
	}

	gate, err := tool.NewGate(cfg.Policy.Allow)
	if err != nil {
		return err
	}

	hub := gateway.NewEventHub(logger)

	registry := tool.NewRegistry()
	for _, t := range crm.Tools(store.CRM(), hub) {
		if err := registry.Register(t); err != nil {
			return err
		}
	}

	executor := action.NewExecutor(action.ExecutorConfig{
		Registry:    registry,
		Gate:        gate,
		Idempotency: store.Idempotency(),
		Pending:     store.Pending(),
		Audit:       auditLogger,
		Events:      hub,
		Logger:      logger,
	})

	srv := gateway.New(gateway.Config{
		Bind:   cfg.Listen,
		APIKey: cfg.APIKey,
	}, gateway.Params{
		Executor: executor,
		Registry: registry,
		Store:    store,
		Audit:    auditLogger,
		Limiter:  limiter,
		Hub:      hub,
		Logger:   logger,
		Version:  params.Version,
	})
	if err := srv.Start(); err != nil {
		return err
	}

	sched := maintenance.New(store, cfg.Maintenance.Schedule, logger)
	if err := sched.Start(); err != nil {
		return err
	}

	logger.Info("opsgate started",
		"version", params.Version,
		"tools", registry.Names(),
		"policy", gate.Patterns(),
	)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	sched.Stop()
	return srv.Stop(context.Background())
}

// ResolveConfigPath searches for a config file in standard locations.
// Search order: $XDG_CONFIG_HOME/opsgate/opsgate.yaml → ./opsgate.yaml
func ResolveConfigPath() (string, error) {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		candidates = append(candidates, filepath.Join(xdg, "opsgate", "opsgate.yaml"))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "opsgate", "opsgate.yaml"))
	}

	candidates = append(candidates, "opsgate.yaml")

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found (searched: %v)", candidates)
}
