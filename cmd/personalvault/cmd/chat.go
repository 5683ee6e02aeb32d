package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/personalvault/internal/output"
)

func newChatCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask a question about your vault items",
		Long: `Answer a question from the vault items closest to it.

The reply quotes the best matching item and lists up to three sources
with their similarity.`,
		Example: `  personalvault chat "when does my passport expire?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			message := strings.Join(args, " ")

			return withApp(cmd.Context(), func(a *app) error {
				resp, err := a.svc.Chat(cmd.Context(), message)
				if err != nil {
					return err
				}
				if format == "json" {
					return writeJSON(cmd, resp)
				}
				output.New(cmd.OutOrStdout()).Chat(resp)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}
