package cmd

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/personalvault/internal/config"
	"github.com/Aman-CERP/personalvault/internal/search"
	"github.com/Aman-CERP/personalvault/internal/watcher"
)

// watchConfig reloads ranking settings into engine whenever a config
// file for dir changes. Storage and embedder settings still need a
// restart. The returned function stops watching and waits for the
// watcher to exit.
func watchConfig(ctx context.Context, dir string, engine *search.Engine) func() {
	w, err := watcher.New(config.SourcePaths(dir), watcher.Options{})
	if err != nil {
		slog.Warn("config_watch_unavailable", slog.String("error", err.Error()))
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, func(events []watcher.FileEvent) {
			reloadRanking(dir, engine, events)
		})
	}()

	slog.Debug("config_watch_started", slog.Any("dirs", w.Dirs()))
	return func() {
		cancel()
		<-done
	}
}

// reloadRanking applies the ranking section of a freshly loaded config.
// An invalid config is logged and the current settings stay in effect.
func reloadRanking(dir string, engine *search.Engine, events []watcher.FileEvent) bool {
	cfg, err := config.Load(dir)
	if err != nil {
		slog.Warn("config_reload_failed", slog.String("error", err.Error()))
		return false
	}

	engine.SetConfig(cfg.RankingConfig())

	paths := make([]string, len(events))
	for i, ev := range events {
		paths[i] = ev.Path
	}
	rc := engine.Config()
	slog.Info("config_reloaded",
		slog.Any("files", paths),
		slog.Int("max_results", rc.MaxResults),
		slog.Float64("threshold", rc.Threshold))
	return true
}
