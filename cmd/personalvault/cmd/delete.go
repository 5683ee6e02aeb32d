package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/output"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "delete <note|item> <id>",
		Short:     "Delete a note or vault item by id",
		Example:   `  personalvault delete item 4`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"note", "item"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			if kind != "note" && kind != "item" {
				return fmt.Errorf("invalid delete target: %s (use: note, item)", kind)
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || id <= 0 {
				return verrors.New(verrors.ErrCodeInvalidInput, "Invalid ID", err).
					WithDetail("id", args[1])
			}

			return withApp(cmd.Context(), func(a *app) error {
				if kind == "note" {
					err = a.svc.DeleteNote(cmd.Context(), id)
				} else {
					err = a.svc.DeleteVaultItem(cmd.Context(), id)
				}
				if err != nil {
					return err
				}
				output.New(cmd.OutOrStdout()).Successf("Deleted %s #%d", kind, id)
				return nil
			})
		},
	}
}
