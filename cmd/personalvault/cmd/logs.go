package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/personalvault/internal/logging"
	"github.com/Aman-CERP/personalvault/internal/output"
)

// logsOptions holds CLI flags for logs.
type logsOptions struct {
	lines   int
	follow  bool
	level   string
	grep    string
	file    string
	noColor bool
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View server logs",
		Long: `View the JSON logs written by 'serve --debug' and 'mcp'.

By default the last 50 entries of ~/.personalvault/logs/server.log
are shown.`,
		Example: `  personalvault logs -n 100
  personalvault logs -f --level warn
  personalvault logs --grep search_`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow new entries")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.grep, "grep", "", "Only show lines matching this regular expression")
	cmd.Flags().StringVar(&opts.file, "file", "", "Log file (default ~/.personalvault/logs/server.log)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	path, err := logging.FindLogFile(opts.file)
	if err != nil {
		return err
	}

	vcfg := logging.ViewerConfig{
		Level:   opts.level,
		NoColor: opts.noColor || !output.New(cmd.OutOrStdout()).UseColor(),
	}
	if opts.grep != "" {
		pattern, err := regexp.Compile(opts.grep)
		if err != nil {
			return fmt.Errorf("invalid --grep pattern: %w", err)
		}
		vcfg.Pattern = pattern
	}

	viewer := logging.NewViewer(vcfg, cmd.OutOrStdout())
	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !opts.follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	followed := make(chan logging.LogEntry, 64)
	done := make(chan error, 1)
	go func() {
		done <- viewer.Follow(ctx, path, followed)
		close(followed)
	}()

	for entry := range followed {
		viewer.Print([]logging.LogEntry{entry})
	}
	return <-done
}
