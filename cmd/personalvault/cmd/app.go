package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Aman-CERP/personalvault/internal/config"
	"github.com/Aman-CERP/personalvault/internal/embed"
	"github.com/Aman-CERP/personalvault/internal/store"
	"github.com/Aman-CERP/personalvault/internal/telemetry"
	"github.com/Aman-CERP/personalvault/internal/vault"
)

// app holds the wired dependencies of a command.
type app struct {
	cfg      *config.Config
	store    *store.SQLiteStore
	embedder embed.Embedder
	svc      *vault.Service
	metrics  *telemetry.QueryMetrics // nil when telemetry is disabled
}

// loadConfig loads the effective configuration for the working directory.
func loadConfig() (*config.Config, error) {
	cwd, err := workDir()
	if err != nil {
		return nil, err
	}
	return config.Load(cwd)
}

// workDir is the directory whose project config applies.
func workDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

// openApp builds the embedder, store and vault service for cfg. Missing
// provider credentials fail here, before any request is served.
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	embCfg, err := cfg.EmbedderConfig()
	if err != nil {
		return nil, err
	}
	embedder, err := embed.NewEmbedder(ctx, embCfg)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	svc, err := vault.NewService(st, embedder, cfg.RankingConfig())
	if err != nil {
		_ = st.Close()
		_ = embedder.Close()
		return nil, err
	}

	a := &app{cfg: cfg, store: st, embedder: embedder, svc: svc}
	if !cfg.Telemetry.Disabled {
		a.metrics = openMetrics(st, cfg.Telemetry.FlushInterval)
		if a.metrics != nil {
			svc.SetRecorder(a.metrics)
		}
	}

	slog.Debug("vault_opened",
		slog.String("db_path", cfg.Storage.Path),
		slog.String("provider", string(embCfg.Provider)),
		slog.String("model", embedder.ModelName()),
		slog.Bool("telemetry", a.metrics != nil))

	return a, nil
}

// openMetrics attaches query statistics to the vault database. Statistics
// are optional: a failure is logged and the vault works without them.
func openMetrics(st *store.SQLiteStore, flushInterval time.Duration) *telemetry.QueryMetrics {
	ts, err := telemetry.NewSQLiteStore(st.DB())
	if err != nil {
		slog.Warn("telemetry_unavailable", slog.String("error", err.Error()))
		return nil
	}
	return telemetry.NewQueryMetrics(ts, telemetry.Config{FlushInterval: flushInterval})
}

// openStore opens only the database, for commands that never embed.
func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.Storage.Path, cfg.StoreOptions())
}

// withApp loads config, opens the vault, runs fn and closes everything.
func withApp(ctx context.Context, fn func(a *app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// Close flushes query statistics, then releases the store and the embedder.
func (a *app) Close() {
	if a.metrics != nil {
		if err := a.metrics.Close(); err != nil {
			slog.Warn("telemetry_flush_failed", slog.String("error", err.Error()))
		}
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("store_close_failed", slog.String("error", err.Error()))
	}
	_ = a.embedder.Close()
}
