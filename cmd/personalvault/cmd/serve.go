package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/personalvault/internal/server"
	"github.com/Aman-CERP/personalvault/internal/store"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the vault HTTP API",
		Long: `Serve the vault JSON API used by the web client.

Only one server may use a data directory at a time; a second 'serve'
against the same vault fails instead of sharing the database.`,
		Example: `  personalvault serve
  personalvault serve --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	return cmd
}

func runServe(ctx context.Context, addr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := configureLogging(false, cfg.Server.LogLevel); err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	lock, err := store.AcquireDirLock(cfg.DataDir())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if err := startupPreflight(ctx, cfg); err != nil {
		return err
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir, err := workDir(); err == nil {
		stopWatch := watchConfig(ctx, dir, a.svc.Engine())
		defer stopWatch()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(a.svc, server.Config{Addr: cfg.Server.Addr})

	slog.Info("serve_starting",
		slog.String("addr", cfg.Server.Addr),
		slog.String("db_path", cfg.Storage.Path))
	return srv.Run(ctx)
}
