package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/personalvault/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the vault to AI assistants over MCP (stdio)",
		Long: `Run a Model Context Protocol server on stdin/stdout.

Tools: search_vault, chat_vault, add_note, suggest_tags, vault_status.
Resources: vault://status, vault://items.

Nothing but protocol messages is written to stdout; logs go to
~/.personalvault/logs/server.log.`,
		Example: `  # Claude Desktop / MCP client configuration
  {"command": "personalvault", "args": ["mcp"]}`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMCP(cmd.Context())
		},
	}
}

func runMCP(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := configureLogging(true, cfg.Server.LogLevel); err != nil {
		return err
	}
	if err := startupPreflight(ctx, cfg); err != nil {
		return err
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := mcp.NewServer(a.svc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir, err := workDir(); err == nil {
		stopWatch := watchConfig(ctx, dir, a.svc.Engine())
		defer stopWatch()
	}

	if err := srv.Serve(ctx, cfg.Server.Transport); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
