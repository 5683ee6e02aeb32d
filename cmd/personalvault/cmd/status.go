package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/personalvault/internal/output"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show item counts and embedding provider health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				st, err := a.svc.Status(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, st)
				}
				out := output.New(cmd.OutOrStdout())
				out.VaultStatus(st)
				out.Newline()
				out.Statusf("", "Database: %s", a.cfg.Storage.Path)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
