// Package search ranks stored notes and vault items against a free-text query.
// Scores blend cosine similarity of embeddings with lexical overlap and
// title/tag substring boosts; chat retrieval uses cosine similarity alone.
package search

import (
	"context"

	"github.com/Aman-CERP/personalvault/internal/store"
)

// ItemSource is the read side of the item store used for ranking.
type ItemSource interface {
	LoadAll(ctx context.Context) ([]store.Item, error)
	LoadVaultItems(ctx context.Context) ([]*store.VaultItem, error)
}

// Config holds the ranking constants.
type Config struct {
	// NoteSemanticWeight scales cosine similarity for notes (default: 0.7).
	NoteSemanticWeight float64

	// VaultSemanticWeight scales cosine similarity for vault items (default: 0.65).
	VaultSemanticWeight float64

	// LexicalWeight scales the token-overlap score (default: 0.2).
	LexicalWeight float64

	// TitleBoost is added when the title contains the query (default: 0.2).
	TitleBoost float64

	// TagBoost is added when any vault item tag contains the query (default: 0.15).
	TagBoost float64

	// Threshold drops results scoring at or below it (default: 0.1).
	Threshold float64

	// ChatThreshold drops chat matches at or below it (default: 0.3).
	ChatThreshold float64

	// MaxResults truncates the ranked list (default: 3).
	MaxResults int

	// MinTokenLength is the shortest query token the lexical matcher keeps (default: 3).
	MinTokenLength int
}

// DefaultConfig returns the production ranking constants.
func DefaultConfig() Config {
	return Config{
		NoteSemanticWeight:  0.7,
		VaultSemanticWeight: 0.65,
		LexicalWeight:       0.2,
		TitleBoost:          0.2,
		TagBoost:            0.15,
		Threshold:           0.1,
		ChatThreshold:       0.3,
		MaxResults:          3,
		MinTokenLength:      3,
	}
}

// ScoreBreakdown records each signal that went into a blended score.
type ScoreBreakdown struct {
	Semantic   float64 `json:"semantic"`
	Lexical    float64 `json:"lexical"`
	TitleBoost float64 `json:"title_boost"`
	TagBoost   float64 `json:"tag_boost"`
}

// Result is one ranked item. Transient; never persisted.
type Result struct {
	Item      store.Item
	Score     float64
	Breakdown ScoreBreakdown
}

// ChatSource is an item that supported a chat reply.
type ChatSource struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`

	// Similarity is cosine similarity as a rounded percentage.
	Similarity int `json:"similarity"`
}

// ChatResponse is the answer to a chat message.
type ChatResponse struct {
	Reply   string       `json:"response"`
	Sources []ChatSource `json:"sources,omitempty"`
}
