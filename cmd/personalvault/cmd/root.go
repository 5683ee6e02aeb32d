// Package cmd provides the CLI commands for personalvault.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/logging"
	"github.com/Aman-CERP/personalvault/internal/profiling"
	"github.com/Aman-CERP/personalvault/pkg/version"
)

// Debug logging and profiling flags
var (
	debugMode      bool
	loggingCleanup func()

	profileOpts    profiling.Options
	profileSession *profiling.Session
)

// NewRootCmd creates the root command for the personalvault CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personalvault",
		Short: "Personal vault with semantic search over notes and documents",
		Long: `personalvault stores notes and vault items (documents, cards, IDs)
with text embeddings and finds them again by meaning.

Search blends embedding similarity with keyword overlap, title and tag
boosts. The vault is served to browsers over HTTP ('serve') and to AI
assistants over the Model Context Protocol ('mcp').`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetVersionTemplate("personalvault version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.personalvault/logs/")
	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write a CPU profile to `file`")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write a heap profile to `file` on exit")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write an execution trace to `file`")
	_ = cmd.PersistentFlags().MarkHidden("profile-trace")

	cmd.PersistentPreRunE = preRun
	cmd.PersistentPostRunE = postRun

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	defer closeLogging()
	defer stopProfiling()

	err := NewRootCmd().Execute()
	if err != nil {
		printError(os.Stderr, err)
	}
	return err
}

func printError(w io.Writer, err error) {
	if _, ok := verrors.As(err); ok {
		_, _ = fmt.Fprint(w, verrors.FormatForCLI(err))
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}

// preRun installs the default logger and starts requested profiles. The
// mcp command never logs to stderr; its stdio belongs to the protocol.
func preRun(cmd *cobra.Command, _ []string) error {
	if err := configureLogging(cmd.Name() == "mcp", ""); err != nil {
		return err
	}
	return startProfiling()
}

func postRun(_ *cobra.Command, _ []string) error {
	stopProfiling()
	closeLogging()
	return nil
}

func startProfiling() error {
	if !profileOpts.Enabled() {
		return nil
	}
	s, err := profiling.Start(profileOpts)
	if err != nil {
		return err
	}
	profileSession = s
	slog.Debug("profiling_started",
		slog.String("cpu", profileOpts.CPU),
		slog.String("heap", profileOpts.Heap),
		slog.String("trace", profileOpts.Trace))
	return nil
}

func stopProfiling() {
	if profileSession == nil {
		return
	}
	if err := profileSession.Stop(); err != nil {
		slog.Warn("profiling_stop_failed", slog.String("error", err.Error()))
	}
	profileSession = nil
}

// configureLogging replaces the current default logger.
func configureLogging(mcpMode bool, level string) error {
	closeLogging()

	cleanup, err := logging.SetupDefault(debugMode, mcpMode, level)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	if debugMode {
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}
	return nil
}

func closeLogging() {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}
