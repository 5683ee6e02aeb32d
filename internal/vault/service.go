// Package vault is the application service behind every transport: it
// validates requests, embeds new items, persists them and runs search,
// chat and tag suggestion.
package vault

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Aman-CERP/personalvault/internal/embed"
	verrors "github.com/Aman-CERP/personalvault/internal/errors"
	"github.com/Aman-CERP/personalvault/internal/search"
	"github.com/Aman-CERP/personalvault/internal/store"
	"github.com/Aman-CERP/personalvault/internal/tags"
	"github.com/Aman-CERP/personalvault/internal/telemetry"
)

// NoteInput is a request to create a note.
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// VaultItemInput is a request to create a vault item.
// Empty Type and Category take the store defaults.
type VaultItemInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Type     string   `json:"type"`
	Category string   `json:"category"`
}

// Status summarizes the vault for health checks and the status tool.
type Status struct {
	Notes             int    `json:"notes"`
	VaultItems        int    `json:"vault_items"`
	Model             string `json:"model"`
	EmbedderAvailable bool   `json:"embedder_available"`
}

// QueryRecorder receives one event per answered search or chat request.
type QueryRecorder interface {
	Record(event telemetry.QueryEvent)
}

// Service wires the store, embedder and ranking engine together.
type Service struct {
	store    store.Store
	embedder embed.Embedder
	engine   *search.Engine
	recorder QueryRecorder
}

// NewService creates a service. The embedder must already be configured;
// its credential check happens when it is constructed.
func NewService(st store.Store, embedder embed.Embedder, cfg search.Config) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store is required", search.ErrNilDependency)
	}
	engine, err := search.NewEngine(embedder, st, cfg)
	if err != nil {
		return nil, err
	}
	return &Service{
		store:    st,
		embedder: embedder,
		engine:   engine,
	}, nil
}

// SetRecorder installs r to receive query events. nil disables recording.
func (s *Service) SetRecorder(r QueryRecorder) {
	s.recorder = r
}

// Engine exposes the ranking engine (for --explain and tests).
func (s *Service) Engine() *search.Engine {
	return s.engine
}

// AddNote validates, embeds and stores a note. Title and content are both required.
func (s *Service) AddNote(ctx context.Context, in NoteInput) (*store.Note, error) {
	if isBlank(in.Title) || isBlank(in.Content) {
		return nil, verrors.MissingFieldError("title,content", "Missing fields")
	}

	vec, err := s.embedItem(ctx, noteText(in.Title, in.Content))
	if err != nil {
		return nil, err
	}

	n := &store.Note{Title: in.Title, Content: in.Content, Embedding: vec}
	if err := s.store.CreateNote(ctx, n); err != nil {
		return nil, err
	}

	slog.Info("note_created", slog.Int64("id", n.ID), slog.Int("dims", len(vec)))
	return n, nil
}

// AddVaultItem validates, embeds and stores a vault item. Only the title is required.
func (s *Service) AddVaultItem(ctx context.Context, in VaultItemInput) (*store.VaultItem, error) {
	if isBlank(in.Title) {
		return nil, verrors.MissingFieldError("title", "Title is required")
	}

	vec, err := s.embedItem(ctx, vaultItemText(in.Title, in.Content, in.Tags))
	if err != nil {
		return nil, err
	}

	v := &store.VaultItem{
		Title:     in.Title,
		Content:   in.Content,
		Tags:      in.Tags,
		Type:      in.Type,
		Category:  in.Category,
		Embedding: vec,
	}
	if err := s.store.CreateVaultItem(ctx, v); err != nil {
		return nil, err
	}

	slog.Info("vault_item_created",
		slog.Int64("id", v.ID),
		slog.String("type", v.Type),
		slog.Int("tags", len(v.Tags)),
		slog.Int("dims", len(vec)))
	return v, nil
}

// ListNotes returns notes newest first.
func (s *Service) ListNotes(ctx context.Context) ([]*store.Note, error) {
	return s.store.ListNotes(ctx)
}

// ListVaultItems returns vault items newest first.
func (s *Service) ListVaultItems(ctx context.Context) ([]*store.VaultItem, error) {
	return s.store.ListVaultItems(ctx)
}

// DeleteNote removes a note by id.
func (s *Service) DeleteNote(ctx context.Context, id int64) error {
	if err := s.store.DeleteNote(ctx, id); err != nil {
		return err
	}
	slog.Info("note_deleted", slog.Int64("id", id))
	return nil
}

// DeleteVaultItem removes a vault item by id.
func (s *Service) DeleteVaultItem(ctx context.Context, id int64) error {
	if err := s.store.DeleteVaultItem(ctx, id); err != nil {
		return err
	}
	slog.Info("vault_item_deleted", slog.Int64("id", id))
	return nil
}

// Search ranks every stored item against query. An empty query is rejected
// before the provider is called.
func (s *Service) Search(ctx context.Context, query string) ([]*search.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, verrors.New(verrors.ErrCodeQueryEmpty, "Query required", nil)
	}

	start := time.Now()
	results, err := s.engine.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	s.record(telemetry.KindSearch, query, len(results), start)
	return results, nil
}

// Chat answers message from the closest vault items.
func (s *Service) Chat(ctx context.Context, message string) (*search.ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, verrors.MissingFieldError("message", "Message is required")
	}

	start := time.Now()
	resp, err := s.engine.Chat(ctx, message)
	if err != nil {
		return nil, err
	}
	s.record(telemetry.KindChat, message, len(resp.Sources), start)
	return resp, nil
}

func (s *Service) record(kind telemetry.QueryKind, query string, results int, start time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(telemetry.QueryEvent{
		Kind:        kind,
		Query:       query,
		ResultCount: results,
		Latency:     time.Since(start),
		Timestamp:   start,
	})
}

// SuggestTags proposes tags for a new item. At least one of title or
// content must be non-blank.
func (s *Service) SuggestTags(title, content string) ([]string, error) {
	if isBlank(title) && isBlank(content) {
		return nil, verrors.MissingFieldError("title,content", "Title or content required")
	}
	return tags.SuggestTags(title, content), nil
}

// Status reports record counts and embedder readiness.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		Notes:             counts.Notes,
		VaultItems:        counts.VaultItems,
		Model:             s.embedder.ModelName(),
		EmbedderAvailable: s.embedder.Available(ctx),
	}, nil
}

func (s *Service) embedItem(ctx context.Context, text string) ([]float32, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if verrors.GetCode(err) == verrors.ErrCodeEmbeddingFailed {
			return nil, err
		}
		return nil, verrors.ProviderError("failed to embed item", err)
	}
	if len(vec) == 0 {
		return nil, verrors.ProviderError("provider returned an empty embedding", nil)
	}
	return vec, nil
}

// noteText is the text embedded for a note.
func noteText(title, content string) string {
	return title + " " + content
}

// vaultItemText is the text embedded for a vault item.
func vaultItemText(title, content string, itemTags []string) string {
	return title + " " + content + " " + strings.Join(itemTags, " ")
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
