package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/output"
	"github.com/Aman-CERP/personalvault/internal/tags"
)

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags <title> [content...]",
		Short: "Suggest tags for a title and content",
		Long: `Suggest up to five tags from keyword rules over the title and
content. No embedding provider or database is needed.`,
		Example: `  personalvault tags "Visa card" "bank statement and credit limit"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := args[0]
			content := strings.Join(args[1:], " ")
			if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
				return verrors.MissingFieldError("title,content", "Title or content required")
			}
			output.New(cmd.OutOrStdout()).Tags(tags.SuggestTags(title, content))
			return nil
		},
	}
}
