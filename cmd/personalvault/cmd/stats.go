package cmd

import (
	"time"

	"github.com/spf13/cobra"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/output"
	"github.com/Aman-CERP/personalvault/internal/telemetry"
)

func newStatsCmd() *cobra.Command {
	var (
		days       int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show local query statistics",
		Long: `Show how often search and chat were used, how many queries found
nothing and how long they took. Only daily counts are stored in the vault
database; query text is never recorded.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, days, jsonOutput)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include, counting today")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(cmd *cobra.Command, days int, jsonOutput bool) error {
	if days < 1 {
		return verrors.New(verrors.ErrCodeInvalidInput, "--days must be at least 1", nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ts, err := telemetry.NewSQLiteStore(st.DB())
	if err != nil {
		return verrors.StorageError("failed to open query statistics", err)
	}

	now := time.Now()
	from := now.AddDate(0, 0, -(days - 1)).Format(telemetry.DateLayout)
	to := now.Format(telemetry.DateLayout)

	sum, err := ts.Summary(cmd.Context(), from, to)
	if err != nil {
		return verrors.StorageError("failed to read query statistics", err)
	}

	if jsonOutput {
		return writeJSON(cmd, sum)
	}
	out := output.New(cmd.OutOrStdout())
	out.QueryStats(sum)
	if cfg.Telemetry.Disabled {
		out.Newline()
		out.Warning("Query statistics are disabled (telemetry.disabled)")
	}
	return nil
}
