package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/personalvault/internal/config"
	"github.com/Aman-CERP/personalvault/internal/embed"
	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/preflight"
)

// doctorReport is the --json shape of 'personalvault doctor'.
type doctorReport struct {
	Status string                  `json:"status"`
	Checks []preflight.CheckResult `json:"checks"`
}

func newDoctorCmd() *cobra.Command {
	var (
		jsonOutput bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, storage and the embedding provider",
		Long: `Run every startup check and report the result: configuration,
credentials, data directory, free disk space, database integrity and
embedding provider reachability.

A passing run is remembered for a week so that 'serve' and 'mcp' skip
their own startup checks.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, jsonOutput, verbose)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show check details")

	return cmd
}

func runDoctor(cmd *cobra.Command, jsonOutput, verbose bool) error {
	ctx := cmd.Context()
	checker := preflight.New(preflight.WithOutput(cmd.OutOrStdout()), preflight.WithVerbose(verbose))

	cfg, err := loadConfig()
	results := []preflight.CheckResult{preflight.FromError("config", err, true, "loaded")}

	if cfg != nil {
		target := preflight.Target{
			DataDir:     cfg.DataDir(),
			DBPath:      cfg.Storage.Path,
			Credentials: cfg.RequireCredentials,
		}

		emb, embErr := doctorEmbedder(ctx, cfg)
		if emb != nil {
			defer func() { _ = emb.Close() }()
			target.Embedder = emb
		}

		results = append(results, checker.RunAll(ctx, target)...)
		if embErr != nil {
			results = append(results, preflight.FromError("embedder", embErr, false, ""))
		}

		if checker.HasCriticalFailures(results) {
			_ = preflight.ClearMarker(cfg.DataDir())
		} else if err := preflight.MarkPassed(cfg.DataDir()); err != nil {
			slog.Warn("preflight_marker_failed", slog.String("error", err.Error()))
		}
	}

	if jsonOutput {
		if err := writeJSON(cmd, doctorReport{Status: checker.SummaryStatus(results), Checks: results}); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return fmt.Errorf("%d required check(s) failed", countCritical(results))
	}
	return nil
}

// doctorEmbedder builds the configured provider when its credentials are
// present. A missing token is reported by the credentials check instead.
func doctorEmbedder(ctx context.Context, cfg *config.Config) (embed.Embedder, error) {
	if cfg.RequireCredentials() != nil {
		return nil, nil
	}
	embCfg, err := cfg.EmbedderConfig()
	if err != nil {
		return nil, err
	}
	return embed.NewEmbedder(ctx, embCfg)
}

func countCritical(results []preflight.CheckResult) int {
	n := 0
	for _, r := range results {
		if r.IsCritical() {
			n++
		}
	}
	return n
}

// startupPreflight runs the storage checks when the last passing run is
// missing or stale. Only required failures stop startup.
func startupPreflight(ctx context.Context, cfg *config.Config) error {
	dataDir := cfg.DataDir()
	if !preflight.NeedsCheck(dataDir) {
		return nil
	}

	checker := preflight.New(preflight.WithOutput(io.Discard))
	results := checker.RunAll(ctx, preflight.Target{DataDir: dataDir, DBPath: cfg.Storage.Path})

	for _, r := range results {
		if r.Status != preflight.StatusPass {
			slog.Warn("preflight_check",
				slog.String("check", r.Name),
				slog.String("status", r.Status.String()),
				slog.String("message", r.Message))
		}
	}

	if checker.HasCriticalFailures(results) {
		_ = preflight.ClearMarker(dataDir)
		for _, r := range results {
			if r.IsCritical() {
				return verrors.New(verrors.ErrCodeStoreUnavailable, "startup check failed: "+r.Name, errors.New(r.Message)).
					WithSuggestion("Run 'personalvault doctor' for details")
			}
		}
	}

	if err := preflight.MarkPassed(dataDir); err != nil {
		slog.Warn("preflight_marker_failed", slog.String("error", err.Error()))
	}
	slog.Debug("preflight_passed", slog.String("data_dir", dataDir))
	return nil
}
