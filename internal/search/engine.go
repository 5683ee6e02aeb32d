package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/Aman-CERP/personalvault/internal/embed"
	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/store"
)

// NoMatchReply is the chat reply when no vault item clears the chat threshold.
const NoMatchReply = "I don't have any relevant information in your vault about that topic. Try adding some notes first!"

// chatPreviewRunes is how much of the top item's content a chat reply quotes.
const chatPreviewRunes = 200

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// Engine ranks stored items for search and chat.
// It holds no per-request state; concurrent calls are independent.
// Each call reads the ranking constants once, so SetConfig never changes
// them halfway through a request.
type Engine struct {
	embedder embed.Embedder
	items    ItemSource
	enhancer *QueryEnhancer

	mu     sync.RWMutex
	config Config
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithQueryEnhancer replaces the default query enhancer.
func WithQueryEnhancer(q *QueryEnhancer) EngineOption {
	return func(e *Engine) {
		if q != nil {
			e.enhancer = q
		}
	}
}

// NewEngine creates a ranking engine. The embedder is constructed (and its
// credentials checked) by the caller, so a misconfigured provider fails
// before the engine exists.
func NewEngine(embedder embed.Embedder, items ItemSource, config Config, opts ...EngineOption) (*Engine, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrNilDependency)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: item source is required", ErrNilDependency)
	}

	e := &Engine{
		embedder: embedder,
		items:    items,
		enhancer: NewQueryEnhancer(),
		config:   withDefaults(config),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func withDefaults(config Config) Config {
	defaults := DefaultConfig()
	if config.MaxResults <= 0 {
		config.MaxResults = defaults.MaxResults
	}
	if config.MinTokenLength <= 0 {
		config.MinTokenLength = defaults.MinTokenLength
	}
	return config
}

// Config returns the engine's ranking constants.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// SetConfig replaces the ranking constants for subsequent calls.
func (e *Engine) SetConfig(config Config) {
	e.mu.Lock()
	e.config = withDefaults(config)
	e.mu.Unlock()
}

// Search loads every stored item and ranks it against query.
func (e *Engine) Search(ctx context.Context, query string) ([]*Result, error) {
	start := time.Now()
	slog.Debug("search_started", slog.Int("query_len", len(query)))

	items, err := e.items.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	results, err := e.Rank(ctx, query, items)
	if err != nil {
		slog.Warn("search_failed",
			slog.Int("candidates", len(items)),
			slog.String("error", err.Error()))
		return nil, err
	}

	slog.Debug("search_complete",
		slog.Int("candidates", len(items)),
		slog.Int("results", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return results, nil
}

// Rank scores items against query and returns at most MaxResults of them,
// best first, dropping any at or below Threshold. Ties keep input order.
//
// The enhanced query is embedded once; lexical signals use the raw query.
// Items whose embedding length differs from the query's are skipped.
// A provider failure fails the whole call with no partial results.
func (e *Engine) Rank(ctx context.Context, query string, items []store.Item) ([]*Result, error) {
	if len(items) == 0 {
		return []*Result{}, nil
	}

	cfg := e.Config()
	queryVec, err := e.embedQuery(ctx, e.enhancer.Enhance(query))
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(items))
	for _, item := range items {
		r, err := score(cfg, query, queryVec, item)
		if err != nil {
			logSkipped(item, len(queryVec), err)
			continue
		}
		if r.Score > cfg.Threshold {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > cfg.MaxResults {
		results = results[:cfg.MaxResults]
	}
	return results, nil
}

// score blends the semantic, lexical and boost signals for one item.
func score(cfg Config, query string, queryVec []float32, item store.Item) (*Result, error) {
	semantic, err := Cosine(queryVec, item.Embedding())
	if err != nil {
		return nil, err
	}

	b := ScoreBreakdown{
		Semantic: semantic,
		Lexical:  LexicalScore(query, item.Content(), cfg.MinTokenLength),
	}
	if titleMatches(item.Title(), query) {
		b.TitleBoost = cfg.TitleBoost
	}

	weight := cfg.NoteSemanticWeight
	if item.Kind == store.KindVaultItem {
		weight = cfg.VaultSemanticWeight
		if tagsMatch(item.Tags(), query) {
			b.TagBoost = cfg.TagBoost
		}
	}

	score := weight*b.Semantic + cfg.LexicalWeight*b.Lexical + b.TitleBoost + b.TagBoost
	return &Result{Item: item, Score: score, Breakdown: b}, nil
}

// Chat answers message from the vault items most similar to it by cosine
// similarity alone, keeping those above ChatThreshold.
func (e *Engine) Chat(ctx context.Context, message string) (*ChatResponse, error) {
	items, err := e.items.LoadVaultItems(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &ChatResponse{Reply: NoMatchReply}, nil
	}

	cfg := e.Config()
	queryVec, err := e.embedQuery(ctx, message)
	if err != nil {
		return nil, err
	}

	type match struct {
		item *store.VaultItem
		sim  float64
	}
	matches := make([]match, 0, len(items))
	for _, item := range items {
		sim, err := Cosine(queryVec, item.Embedding)
		if err != nil {
			logSkipped(store.VaultItemOf(item), len(queryVec), err)
			continue
		}
		if sim > cfg.ChatThreshold {
			matches = append(matches, match{item: item, sim: sim})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].sim > matches[j].sim
	})
	if len(matches) > cfg.MaxResults {
		matches = matches[:cfg.MaxResults]
	}
	if len(matches) == 0 {
		return &ChatResponse{Reply: NoMatchReply}, nil
	}

	top := matches[0].item
	resp := &ChatResponse{
		Reply:   fmt.Sprintf("Based on your notes about \"%s\": %s", top.Title, preview(top.Content, chatPreviewRunes)),
		Sources: make([]ChatSource, 0, len(matches)),
	}
	for _, m := range matches {
		resp.Sources = append(resp.Sources, ChatSource{
			ID:         m.item.ID,
			Title:      m.item.Title,
			Similarity: int(math.Round(m.sim * 100)),
		})
	}
	return resp, nil
}

// embedQuery calls the provider once. Every failure is a ProviderError.
func (e *Engine) embedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		if verrors.GetCode(err) == verrors.ErrCodeEmbeddingFailed {
			return nil, err
		}
		return nil, verrors.ProviderError("failed to embed query", err)
	}
	if len(vec) == 0 {
		return nil, verrors.ProviderError("provider returned an empty embedding", nil)
	}
	return vec, nil
}

func logSkipped(item store.Item, queryDims int, err error) {
	slog.Warn("embedding_dimension_mismatch",
		slog.String("kind", string(item.Kind)),
		slog.Int64("id", item.ID()),
		slog.Int("query_dims", queryDims),
		slog.Int("item_dims", len(item.Embedding())),
		slog.String("error", err.Error()))
}

// preview returns the first n runes of s, with "..." when it was cut.
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
