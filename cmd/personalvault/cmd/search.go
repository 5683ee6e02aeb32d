package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/personalvault/internal/output"
	"github.com/Aman-CERP/personalvault/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	format  string // "text", "json"
	explain bool   // show the score breakdown of each hit
}

// searchResultJSON is the --format json shape of one hit.
type searchResultJSON struct {
	ID        int64                 `json:"id"`
	Kind      string                `json:"kind"`
	Title     string                `json:"title"`
	Content   string                `json:"content"`
	Tags      []string              `json:"tags,omitempty"`
	Score     float64               `json:"score"`
	Breakdown search.ScoreBreakdown `json:"breakdown"`
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search notes and vault items",
		Long: `Search notes and vault items by meaning.

Each item is scored by embedding similarity blended with keyword
overlap, plus boosts for title and tag matches. Only the best three
results above the relevance threshold are shown.`,
		Example: `  personalvault search "passport renewal"
  personalvault search "bank card" --explain
  personalvault search "insurance" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Show the score breakdown of each result")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	if err := validateFormat(opts.format); err != nil {
		return err
	}

	return withApp(ctx, func(a *app) error {
		start := time.Now()
		slog.Debug("search_started", slog.Int("query_length", len(query)))

		results, err := a.svc.Search(ctx, query)
		if err != nil {
			return err
		}
		slog.Debug("search_complete",
			slog.Int("results", len(results)),
			slog.Duration("duration", time.Since(start)))

		if opts.format == "json" {
			return writeJSON(cmd, toSearchJSON(results))
		}
		output.New(cmd.OutOrStdout()).Results(query, results, opts.explain)
		return nil
	})
}

func toSearchJSON(results []*search.Result) []searchResultJSON {
	out := make([]searchResultJSON, 0, len(results))
	for _, r := range results {
		out = append(out, searchResultJSON{
			ID:        r.Item.ID(),
			Kind:      string(r.Item.Kind),
			Title:     r.Item.Title(),
			Content:   r.Item.Content(),
			Tags:      r.Item.Tags(),
			Score:     r.Score,
			Breakdown: r.Breakdown,
		})
	}
	return out
}

func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (use: text, json)", format)
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
