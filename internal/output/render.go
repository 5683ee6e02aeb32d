package output

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/personalvault/internal/search"
	"github.com/Aman-CERP/personalvault/internal/store"
	"github.com/Aman-CERP/personalvault/internal/telemetry"
	"github.com/Aman-CERP/personalvault/internal/vault"
)

// snippetRunes bounds the content preview in list and result views.
const snippetRunes = 160

// Results prints ranked search results. With explain set, each hit
// also shows the signals that produced its score.
func (w *Writer) Results(query string, results []*search.Result, explain bool) {
	if len(results) == 0 {
		w.Warningf("No results found for %q", query)
		return
	}

	w.header(fmt.Sprintf("Results for %q", query))
	for i, r := range results {
		if r == nil {
			continue
		}
		score := w.styles.Score.Render(fmt.Sprintf("%.2f", r.Score))
		_, _ = fmt.Fprintf(w.out, "%d. %s %s %s\n", i+1, r.Item.Title(), w.styles.Dim.Render(itemLabel(r.Item)), score)
		if tags := r.Item.Tags(); len(tags) > 0 {
			_, _ = fmt.Fprintf(w.out, "   %s\n", w.renderTags(tags))
		}
		if snippet := Snippet(r.Item.Content(), snippetRunes); snippet != "" {
			_, _ = fmt.Fprintf(w.out, "   %s\n", snippet)
		}
		if explain {
			b := r.Breakdown
			_, _ = fmt.Fprintf(w.out, "   %s\n", w.styles.Label.Render(fmt.Sprintf(
				"semantic=%.3f lexical=%.3f title_boost=%.2f tag_boost=%.2f",
				b.Semantic, b.Lexical, b.TitleBoost, b.TagBoost)))
		}
	}
}

// Chat prints a chat reply followed by its supporting sources.
func (w *Writer) Chat(resp *search.ChatResponse) {
	if resp == nil {
		return
	}
	_, _ = fmt.Fprintln(w.out, resp.Reply)
	if len(resp.Sources) == 0 {
		return
	}
	w.Newline()
	w.header("Sources")
	for _, src := range resp.Sources {
		_, _ = fmt.Fprintf(w.out, "  - %s %s\n", src.Title,
			w.styles.Dim.Render(fmt.Sprintf("(#%d, %d%%)", src.ID, src.Similarity)))
	}
}

// Notes prints notes, newest first as the store returns them.
func (w *Writer) Notes(notes []*store.Note) {
	w.header(fmt.Sprintf("Notes (%d)", len(notes)))
	if len(notes) == 0 {
		w.Status("", "No notes yet.")
		return
	}
	for _, n := range notes {
		_, _ = fmt.Fprintf(w.out, "  #%-4d %s %s\n", n.ID, n.Title,
			w.styles.Dim.Render(n.CreatedAt.Local().Format("2006-01-02")))
		if snippet := Snippet(n.Content, snippetRunes); snippet != "" {
			_, _ = fmt.Fprintf(w.out, "         %s\n", snippet)
		}
	}
}

// VaultItems prints vault items with their type, category and tags.
func (w *Writer) VaultItems(items []*store.VaultItem) {
	w.header(fmt.Sprintf("Vault items (%d)", len(items)))
	if len(items) == 0 {
		w.Status("", "No vault items yet.")
		return
	}
	for _, v := range items {
		_, _ = fmt.Fprintf(w.out, "  #%-4d %s %s\n", v.ID, v.Title,
			w.styles.Dim.Render(fmt.Sprintf("[%s / %s]", v.Type, v.Category)))
		if len(v.Tags) > 0 {
			_, _ = fmt.Fprintf(w.out, "         %s\n", w.renderTags(v.Tags))
		}
	}
}

// Tags prints suggested tags on one line.
func (w *Writer) Tags(tags []string) {
	if len(tags) == 0 {
		w.Warning("No tags suggested")
		return
	}
	_, _ = fmt.Fprintln(w.out, w.renderTags(tags))
}

// VaultStatus prints item counts and embedder health.
func (w *Writer) VaultStatus(st *vault.Status) {
	if st == nil {
		return
	}
	w.header("Vault status")
	w.field("Notes", fmt.Sprintf("%d", st.Notes))
	w.field("Vault items", fmt.Sprintf("%d", st.VaultItems))
	w.field("Model", st.Model)
	if st.EmbedderAvailable {
		w.field("Embedder", w.styles.Success.Render("available"))
	} else {
		w.field("Embedder", w.styles.Error.Render("unavailable"))
	}
}

// QueryStats prints stored query statistics for a date range.
func (w *Writer) QueryStats(sum *telemetry.Summary) {
	if sum == nil {
		return
	}
	w.header(fmt.Sprintf("Query statistics (%s to %s)", sum.From, sum.To))
	if sum.Queries == 0 {
		w.Status("", "No queries recorded")
		return
	}
	w.field("Queries", fmt.Sprintf("%d (search %d, chat %d)",
		sum.Queries, sum.ByKind[telemetry.KindSearch], sum.ByKind[telemetry.KindChat]))
	w.field("No results", fmt.Sprintf("%d (%.1f%%)", sum.ZeroResults, sum.ZeroResultRate()*100))
	w.field("Repeated", fmt.Sprintf("%d (%.1f%%)", sum.Repeats, sum.RepeatRate()*100))

	var parts []string
	for _, b := range telemetry.Buckets {
		if n := sum.Latency[b]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", b.Label(), n))
		}
	}
	if len(parts) > 0 {
		w.field("Latency", strings.Join(parts, ", "))
	}
}

func (w *Writer) renderTags(tags []string) string {
	rendered := make([]string, len(tags))
	for i, t := range tags {
		rendered[i] = w.styles.Tag.Render("#" + t)
	}
	return strings.Join(rendered, " ")
}

func itemLabel(item store.Item) string {
	if item.Kind == store.KindVaultItem {
		return fmt.Sprintf("[%s #%d]", item.Type(), item.ID())
	}
	return fmt.Sprintf("[note #%d]", item.ID())
}

// Snippet collapses whitespace in s and cuts it to at most max runes,
// marking a cut with "...".
func Snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
