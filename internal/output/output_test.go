package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/personalvault/internal/search"
	"github.com/Aman-CERP/personalvault/internal/store"
	"github.com/Aman-CERP/personalvault/internal/telemetry"
	"github.com/Aman-CERP/personalvault/internal/vault"
)

func newPlain() (*Writer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(buf), buf
}

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	w, buf := newPlain()

	// When: printing a status message
	w.Status("→", "Checking embedder...")

	// Then: output contains icon and message
	assert.Equal(t, "→ Checking embedder...\n", buf.String())
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	w, buf := newPlain()

	w.Status("", "nested detail")

	assert.Equal(t, "   nested detail\n", buf.String())
}

func TestWriter_MessageLevels(t *testing.T) {
	tests := []struct {
		name  string
		print func(w *Writer)
		want  string
	}{
		{"success", func(w *Writer) { w.Successf("Added note #%d", 3) }, "✓ Added note #3\n"},
		{"warning", func(w *Writer) { w.Warning("Embedder not available") }, "! Embedder not available\n"},
		{"error", func(w *Writer) { w.Errorf("failed: %s", "boom") }, "✗ failed: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, buf := newPlain()
			tt.print(w)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_Code_IndentsLines(t *testing.T) {
	w, buf := newPlain()

	w.Code("version: 1\nsearch:\n  max_results: 3\n")

	assert.Equal(t, "\n  version: 1\n  search:\n    max_results: 3\n\n", buf.String())
}

func TestWriter_Newline_PrintsEmptyLine(t *testing.T) {
	w, buf := newPlain()

	w.Newline()

	assert.Equal(t, "\n", buf.String())
}

func TestNew_BufferDisablesColor(t *testing.T) {
	// Given/When: a writer over a non-terminal
	w, _ := newPlain()

	// Then: styled output is off
	assert.False(t, w.UseColor())
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.True(t, DetectNoColor())
	assert.False(t, ShouldUseColor(nil))
}

func TestIsTTY_Nil(t *testing.T) {
	assert.False(t, IsTTY(nil))
}

func sampleResults() []*search.Result {
	return []*search.Result{
		{
			Item: store.VaultItemOf(&store.VaultItem{
				ID: 4, Title: "Passport", Content: "Passport number X123.\nExpires 2030.",
				Tags: []string{"travel", "identity"}, Type: "id", Category: "Documents",
			}),
			Score:     0.8512,
			Breakdown: search.ScoreBreakdown{Semantic: 0.79, Lexical: 0.5, TitleBoost: 0.2, TagBoost: 0.15},
		},
		{
			Item:  store.NoteItem(&store.Note{ID: 9, Title: "Trip budget", Content: "Flights and hotels"}),
			Score: 0.42,
		},
	}
}

func TestWriter_Results(t *testing.T) {
	w, buf := newPlain()

	w.Results("passport", sampleResults(), false)

	out := buf.String()
	assert.Contains(t, out, `Results for "passport"`)
	assert.Contains(t, out, "1. Passport [id #4] 0.85")
	assert.Contains(t, out, "#travel #identity")
	assert.Contains(t, out, "Passport number X123. Expires 2030.")
	assert.Contains(t, out, "2. Trip budget [note #9] 0.42")
	assert.NotContains(t, out, "semantic=")
}

func TestWriter_Results_Explain(t *testing.T) {
	w, buf := newPlain()

	w.Results("passport", sampleResults(), true)

	assert.Contains(t, buf.String(), "semantic=0.790 lexical=0.500 title_boost=0.20 tag_boost=0.15")
}

func TestWriter_Results_Empty(t *testing.T) {
	w, buf := newPlain()

	w.Results("nothing", nil, false)

	assert.Equal(t, "! No results found for \"nothing\"\n", buf.String())
}

func TestWriter_Chat(t *testing.T) {
	w, buf := newPlain()

	w.Chat(&search.ChatResponse{
		Reply:   `Based on your vault, I found "Passport" in Documents.`,
		Sources: []search.ChatSource{{ID: 4, Title: "Passport", Similarity: 79}},
	})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Based on your vault"))
	assert.Contains(t, out, "Sources")
	assert.Contains(t, out, "  - Passport (#4, 79%)")
}

func TestWriter_Chat_NoSources(t *testing.T) {
	w, buf := newPlain()

	w.Chat(&search.ChatResponse{Reply: "I couldn't find anything."})

	assert.Equal(t, "I couldn't find anything.\n", buf.String())
}

func TestWriter_Lists(t *testing.T) {
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)

	w, buf := newPlain()
	w.Notes([]*store.Note{{ID: 1, Title: "Groceries", Content: "milk eggs", CreatedAt: created}})
	w.VaultItems([]*store.VaultItem{{ID: 2, Title: "Visa card", Type: "card", Category: "Finance", Tags: []string{"bank"}}})

	out := buf.String()
	assert.Contains(t, out, "Notes (1)")
	assert.Contains(t, out, "#1    Groceries 2026-03-14")
	assert.Contains(t, out, "milk eggs")
	assert.Contains(t, out, "Vault items (1)")
	assert.Contains(t, out, "#2    Visa card [card / Finance]")
	assert.Contains(t, out, "#bank")
}

func TestWriter_Lists_Empty(t *testing.T) {
	w, buf := newPlain()

	w.Notes(nil)
	w.VaultItems(nil)

	assert.Contains(t, buf.String(), "No notes yet.")
	assert.Contains(t, buf.String(), "No vault items yet.")
}

func TestWriter_Tags(t *testing.T) {
	w, buf := newPlain()
	w.Tags([]string{"finance", "bank"})
	assert.Equal(t, "#finance #bank\n", buf.String())

	buf.Reset()
	w.Tags(nil)
	assert.Contains(t, buf.String(), "No tags suggested")
}

func TestWriter_VaultStatus(t *testing.T) {
	w, buf := newPlain()

	w.VaultStatus(&vault.Status{Notes: 3, VaultItems: 5, Model: "all-MiniLM-L6-v2", EmbedderAvailable: false})

	out := buf.String()
	require.Contains(t, out, "Vault status")
	assert.Contains(t, out, "Notes:        3")
	assert.Contains(t, out, "Vault items:  5")
	assert.Contains(t, out, "all-MiniLM-L6-v2")
	assert.Contains(t, out, "unavailable")
}

func TestWriter_QueryStats(t *testing.T) {
	w, buf := newPlain()

	w.QueryStats(&telemetry.Summary{
		From:        "2026-05-01",
		To:          "2026-05-07",
		Queries:     8,
		ZeroResults: 2,
		Repeats:     1,
		ByKind:      map[telemetry.QueryKind]int64{telemetry.KindSearch: 6, telemetry.KindChat: 2},
		Latency:     map[telemetry.LatencyBucket]int64{telemetry.BucketP10: 5, telemetry.BucketP500: 3},
	})

	out := buf.String()
	require.Contains(t, out, "Query statistics (2026-05-01 to 2026-05-07)")
	assert.Contains(t, out, "Queries:      8 (search 6, chat 2)")
	assert.Contains(t, out, "No results:   2 (25.0%)")
	assert.Contains(t, out, "Repeated:     1 (12.5%)")
	assert.Contains(t, out, "Latency:      <10ms 5, 100-500ms 3")
}

func TestWriter_QueryStats_Empty(t *testing.T) {
	w, buf := newPlain()

	w.QueryStats(&telemetry.Summary{From: "2026-05-01", To: "2026-05-01"})

	assert.Contains(t, buf.String(), "No queries recorded")
	assert.NotContains(t, buf.String(), "Latency")
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"  spaced\n\tout  ", 20, "spaced out"},
		{"abcdefghij", 8, "abcde..."},
		{"héllo wörld", 7, "héll..."},
		{"abcdef", 2, "ab"},
		{"anything", 0, "anything"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Snippet(tt.in, tt.max), "Snippet(%q, %d)", tt.in, tt.max)
	}
}
