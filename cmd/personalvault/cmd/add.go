package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/personalvault/internal/output"
	"github.com/Aman-CERP/personalvault/internal/vault"
)

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a note or vault item",
	}

	cmd.AddCommand(newAddNoteCmd())
	cmd.AddCommand(newAddItemCmd())

	return cmd
}

func newAddNoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "note <title> [content...]",
		Short: "Add a note",
		Example: `  personalvault add note "Groceries" "milk, eggs, bread"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := vault.NoteInput{
				Title:   args[0],
				Content: strings.Join(args[1:], " "),
			}

			return withApp(cmd.Context(), func(a *app) error {
				note, err := a.svc.AddNote(cmd.Context(), in)
				if err != nil {
					return err
				}
				output.New(cmd.OutOrStdout()).Successf("Added note #%d: %s", note.ID, note.Title)
				return nil
			})
		},
	}
}

func newAddItemCmd() *cobra.Command {
	var (
		itemTags []string
		itemType string
		category string
		autoTags bool
	)

	cmd := &cobra.Command{
		Use:   "item <title> [content...]",
		Short: "Add a vault item (document, card, ID)",
		Long: `Add a vault item.

Items without a type are stored as "document" in "Recent files".
With --auto-tags and no --tags, tags are suggested from the title and
content.`,
		Example: `  personalvault add item "Passport" "Number X123, expires 2030" --type id --category Identity --tags travel
  personalvault add item "Health insurance card" --auto-tags`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := vault.VaultItemInput{
				Title:    args[0],
				Content:  strings.Join(args[1:], " "),
				Tags:     itemTags,
				Type:     itemType,
				Category: category,
			}

			return withApp(cmd.Context(), func(a *app) error {
				out := output.New(cmd.OutOrStdout())
				if autoTags && len(in.Tags) == 0 {
					suggested, err := a.svc.SuggestTags(in.Title, in.Content)
					if err != nil {
						return err
					}
					in.Tags = suggested
				}

				item, err := a.svc.AddVaultItem(cmd.Context(), in)
				if err != nil {
					return err
				}
				out.Successf("Added vault item #%d: %s [%s / %s]", item.ID, item.Title, item.Type, item.Category)
				if len(item.Tags) > 0 {
					out.Status("", "Tags: "+strings.Join(item.Tags, ", "))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&itemTags, "tags", nil, "Comma-separated tags")
	cmd.Flags().StringVar(&itemType, "type", "", "Item type, e.g. document, card, id (default document)")
	cmd.Flags().StringVar(&category, "category", "", "Category (default \"Recent files\")")
	cmd.Flags().BoolVar(&autoTags, "auto-tags", false, "Suggest tags when --tags is not given")

	return cmd
}
