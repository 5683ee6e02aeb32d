package mcp

import (
	"fmt"
	"math"
	"strings"

	"github.com/Aman-CERP/personalvault/internal/search"
)

// FormatSearchResults formats ranked results as markdown.
func FormatSearchResults(query string, results []*search.Result) string {
	valid := filterValidResults(results)

	if len(valid) == 0 {
		return fmt.Sprintf("No results found for \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Vault Results for \"%s\"\n\n", query)
	fmt.Fprintf(&sb, "Found %d result", len(valid))
	if len(valid) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range valid {
		formatResult(&sb, i+1, r)
	}

	return sb.String()
}

// FormatChatResponse formats a chat reply and its sources as markdown.
func FormatChatResponse(resp *search.ChatResponse) string {
	if resp == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(resp.Reply)
	if len(resp.Sources) > 0 {
		sb.WriteString("\n\n**Sources:**\n")
		for _, src := range resp.Sources {
			fmt.Fprintf(&sb, "- %s (#%d, %d%%)\n", src.Title, src.ID, src.Similarity)
		}
	}
	return sb.String()
}

func filterValidResults(results []*search.Result) []*search.Result {
	valid := make([]*search.Result, 0, len(results))
	for _, r := range results {
		if r != nil && (r.Item.Note != nil || r.Item.Vault != nil) {
			valid = append(valid, r)
		}
	}
	return valid
}

func formatResult(sb *strings.Builder, num int, r *search.Result) {
	fmt.Fprintf(sb, "### %d. %s [%s #%d] (score: %.2f)\n",
		num,
		r.Item.Title(),
		r.Item.Kind,
		r.Item.ID(),
		r.Score,
	)

	if t := r.Item.Tags(); len(t) > 0 {
		fmt.Fprintf(sb, "**Tags:** %s\n", strings.Join(t, ", "))
	}

	fmt.Fprintf(sb, "\n%s\n\n", r.Item.Content())
}

// ToSearchResultOutput converts a ranked result to the structured tool output.
func ToSearchResultOutput(r *search.Result) SearchResultOutput {
	if r == nil || (r.Item.Note == nil && r.Item.Vault == nil) {
		return SearchResultOutput{}
	}

	return SearchResultOutput{
		ID:         r.Item.ID(),
		Kind:       string(r.Item.Kind),
		Title:      r.Item.Title(),
		Content:    r.Item.Content(),
		Tags:       r.Item.Tags(),
		Score:      r.Score,
		Similarity: int(math.Round(r.Score * 100)),
	}
}

// ToChatOutput converts a chat response to the structured tool output.
func ToChatOutput(resp *search.ChatResponse) ChatOutput {
	if resp == nil {
		return ChatOutput{}
	}

	out := ChatOutput{Response: resp.Reply}
	for _, src := range resp.Sources {
		out.Sources = append(out.Sources, ChatSourceOutput{
			ID:         src.ID,
			Title:      src.Title,
			Similarity: src.Similarity,
		})
	}
	return out
}
