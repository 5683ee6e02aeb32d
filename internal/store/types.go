// Package store persists notes and vault items in SQLite.
// Embeddings and tags are stored as JSON text; (de)serialization happens
// only here, so callers always see typed fields.
package store

import (
	"context"
	"time"
)

// Kind discriminates the two stored item variants.
type Kind string

const (
	KindNote      Kind = "note"
	KindVaultItem Kind = "vault"
)

// Defaults applied to vault items created without a type or category.
const (
	DefaultItemType = "document"
	DefaultCategory = "Recent files"
)

// Note is a free-form text note.
type Note struct {
	ID        int64
	Title     string
	Content   string
	Embedding []float32
	CreatedAt time.Time
}

// VaultItem is a document, card or ID saved to the vault.
type VaultItem struct {
	ID        int64
	Title     string
	Content   string
	Tags      []string
	Type      string
	Category  string
	Embedding []float32
	CreatedAt time.Time
}

// Item is a tagged union over Note and VaultItem.
// Exactly one of Note or Vault is set, matching Kind.
type Item struct {
	Kind  Kind
	Note  *Note
	Vault *VaultItem
}

// NoteItem wraps a note.
func NoteItem(n *Note) Item { return Item{Kind: KindNote, Note: n} }

// VaultItemOf wraps a vault item.
func VaultItemOf(v *VaultItem) Item { return Item{Kind: KindVaultItem, Vault: v} }

// ID returns the item's identifier within its own table.
func (i Item) ID() int64 {
	if i.Kind == KindVaultItem {
		return i.Vault.ID
	}
	return i.Note.ID
}

// Title returns the item's title.
func (i Item) Title() string {
	if i.Kind == KindVaultItem {
		return i.Vault.Title
	}
	return i.Note.Title
}

// Content returns the item's body text.
func (i Item) Content() string {
	if i.Kind == KindVaultItem {
		return i.Vault.Content
	}
	return i.Note.Content
}

// Tags returns the vault item's tags; notes have none.
func (i Item) Tags() []string {
	if i.Kind == KindVaultItem {
		return i.Vault.Tags
	}
	return nil
}

// Type returns the vault item type, or "note" for notes.
func (i Item) Type() string {
	if i.Kind == KindVaultItem {
		return i.Vault.Type
	}
	return string(KindNote)
}

// Embedding returns the stored embedding.
func (i Item) Embedding() []float32 {
	if i.Kind == KindVaultItem {
		return i.Vault.Embedding
	}
	return i.Note.Embedding
}

// CreatedAt returns the creation time.
func (i Item) CreatedAt() time.Time {
	if i.Kind == KindVaultItem {
		return i.Vault.CreatedAt
	}
	return i.Note.CreatedAt
}

// Counts reports how many records each table holds.
type Counts struct {
	Notes      int `json:"notes"`
	VaultItems int `json:"vault_items"`
}

// Store is the item persistence boundary.
// List methods return newest first and leave Embedding unset.
// LoadAll returns every record with its embedding decoded, notes by id then
// vault items by id.
type Store interface {
	CreateNote(ctx context.Context, n *Note) error
	CreateVaultItem(ctx context.Context, v *VaultItem) error
	ListNotes(ctx context.Context) ([]*Note, error)
	ListVaultItems(ctx context.Context) ([]*VaultItem, error)
	LoadAll(ctx context.Context) ([]Item, error)
	LoadVaultItems(ctx context.Context) ([]*VaultItem, error)
	GetNote(ctx context.Context, id int64) (*Note, error)
	GetVaultItem(ctx context.Context, id int64) (*VaultItem, error)
	DeleteNote(ctx context.Context, id int64) error
	DeleteVaultItem(ctx context.Context, id int64) error
	Counts(ctx context.Context) (Counts, error)
	Close() error
}
