package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/personalvault/internal/output"
	"github.com/Aman-CERP/personalvault/internal/store"
)

type noteJSON struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type vaultItemJSON struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// listJSON is the --format json shape of the list command.
type listJSON struct {
	Notes      []noteJSON      `json:"notes,omitempty"`
	VaultItems []vaultItemJSON `json:"vault_items,omitempty"`
}

func newListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:       "list [notes|items]",
		Short:     "List notes and vault items, newest first",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"notes", "items"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			which := "all"
			if len(args) == 1 {
				which = args[0]
			}
			if which != "all" && which != "notes" && which != "items" {
				return fmt.Errorf("invalid list target: %s (use: notes, items)", which)
			}

			return withApp(cmd.Context(), func(a *app) error {
				var (
					notes []*store.Note
					items []*store.VaultItem
					err   error
				)
				if which != "items" {
					if notes, err = a.svc.ListNotes(cmd.Context()); err != nil {
						return err
					}
				}
				if which != "notes" {
					if items, err = a.svc.ListVaultItems(cmd.Context()); err != nil {
						return err
					}
				}

				if format == "json" {
					return writeJSON(cmd, toListJSON(notes, items))
				}
				out := output.New(cmd.OutOrStdout())
				if which != "items" {
					out.Notes(notes)
				}
				if which == "all" {
					out.Newline()
				}
				if which != "notes" {
					out.VaultItems(items)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func toListJSON(notes []*store.Note, items []*store.VaultItem) listJSON {
	var result listJSON
	for _, n := range notes {
		result.Notes = append(result.Notes, noteJSON{
			ID: n.ID, Title: n.Title, Content: n.Content, CreatedAt: n.CreatedAt,
		})
	}
	for _, v := range items {
		tags := v.Tags
		if tags == nil {
			tags = []string{}
		}
		result.VaultItems = append(result.VaultItems, vaultItemJSON{
			ID: v.ID, Title: v.Title, Content: v.Content, Tags: tags,
			Type: v.Type, Category: v.Category, CreatedAt: v.CreatedAt,
		})
	}
	return result
}
