package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	verrors "github.com/Aman-CERP/personalvault/internal/errors"
)

// DefaultDecodeCacheSize is the number of decoded embeddings kept in memory.
const DefaultDecodeCacheSize = 1024

// SQLiteStore implements Store on a single SQLite database.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
	now    func() time.Time

	// Decoded embeddings keyed by "<kind>:<id>". Records are immutable and
	// ids are never reused, so entries only leave on delete or eviction.
	// Cached slices are shared with callers and must be treated as read-only.
	decoded *lru.Cache[string, []float32]
}

// Verify interface implementation at compile time
var _ Store = (*SQLiteStore)(nil)

// Options configures NewSQLiteStore.
type Options struct {
	// DecodeCacheSize bounds the decoded-embedding cache (default 1024).
	DecodeCacheSize int

	// Now overrides the clock used for created_at (tests).
	Now func() time.Time
}

// CheckIntegrity runs PRAGMA integrity_check on an existing database file,
// read-only. A missing file is fine; it will be created on open.
func CheckIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// NewSQLiteStore opens (creating if needed) the vault database at path.
// An empty path or ":memory:" opens an in-memory database.
func NewSQLiteStore(path string, opts Options) (*SQLiteStore, error) {
	var dsn string
	if path == "" || path == ":memory:" {
		dsn = ":memory:"
		path = ""
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, verrors.StorageError(fmt.Sprintf("failed to create directory %s", dir), err)
		}

		// Unlike a rebuildable index, the vault is user data: never auto-clear it.
		if err := CheckIntegrity(path); err != nil {
			slog.Error("vault_store_corrupted",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil, verrors.New(verrors.ErrCodeStoreCorrupt, "vault database is corrupted", err).
				WithDetail("path", path).
				WithSuggestion("Restore " + path + " from a backup or move it aside to start an empty vault")
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, verrors.StorageError("failed to open database", err)
	}

	// Single connection: required for :memory: and avoids writer contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	if path != "" {
		pragmas = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, verrors.StorageError("failed to set pragma", err)
		}
	}

	cacheSize := opts.DecodeCacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultDecodeCacheSize
	}
	decoded, err := lru.New[string, []float32](cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, verrors.InternalError("failed to create decode cache", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &SQLiteStore{
		db:      db,
		path:    path,
		now:     now,
		decoded: decoded,
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, verrors.StorageError("failed to initialize schema", err)
	}

	slog.Debug("vault_store_opened", slog.String("path", dsn))
	return s, nil
}

// initSchema creates the notes and vault_items tables.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS notes (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		embedding  TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vault_items (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL DEFAULT '',
		tags       TEXT NOT NULL DEFAULT '[]',
		type       TEXT NOT NULL DEFAULT 'document',
		category   TEXT NOT NULL DEFAULT 'Recent files',
		embedding  TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_at);
	CREATE INDEX IF NOT EXISTS idx_vault_items_created ON vault_items(created_at);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) checkOpen() error {
	if s.closed {
		return verrors.New(verrors.ErrCodeStoreUnavailable, "store is closed", nil)
	}
	return nil
}

// CreateNote inserts n and sets its ID and CreatedAt.
func (s *SQLiteStore) CreateNote(ctx context.Context, n *Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	embedding, err := encodeEmbedding(n.Embedding)
	if err != nil {
		return err
	}
	createdAt := s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes(title, content, embedding, created_at) VALUES (?, ?, ?, ?)`,
		n.Title, n.Content, embedding, createdAt.UnixNano())
	if err != nil {
		return verrors.StorageError("failed to insert note", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return verrors.StorageError("failed to read note id", err)
	}

	n.ID = id
	n.CreatedAt = createdAt
	s.decoded.Add(cacheKey(KindNote, id), n.Embedding)
	return nil
}

// CreateVaultItem inserts v, applying type/category/tag defaults, and sets
// its ID and CreatedAt.
func (s *SQLiteStore) CreateVaultItem(ctx context.Context, v *VaultItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	if v.Tags == nil {
		v.Tags = []string{}
	}
	if v.Type == "" {
		v.Type = DefaultItemType
	}
	if v.Category == "" {
		v.Category = DefaultCategory
	}

	embedding, err := encodeEmbedding(v.Embedding)
	if err != nil {
		return err
	}
	tags, err := json.Marshal(v.Tags)
	if err != nil {
		return verrors.InternalError("failed to encode tags", err)
	}
	createdAt := s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO vault_items(title, content, tags, type, category, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.Title, v.Content, string(tags), v.Type, v.Category, embedding, createdAt.UnixNano())
	if err != nil {
		return verrors.StorageError("failed to insert vault item", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return verrors.StorageError("failed to read vault item id", err)
	}

	v.ID = id
	v.CreatedAt = createdAt
	s.decoded.Add(cacheKey(KindVaultItem, id), v.Embedding)
	return nil
}

// ListNotes returns all notes, newest first, without embeddings.
func (s *SQLiteStore) ListNotes(ctx context.Context) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.queryNotes(ctx,
		`SELECT id, title, content, NULL, created_at FROM notes ORDER BY created_at DESC, id DESC`, false)
}

// ListVaultItems returns all vault items, newest first, without embeddings.
func (s *SQLiteStore) ListVaultItems(ctx context.Context) ([]*VaultItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.queryVaultItems(ctx,
		`SELECT id, title, content, tags, type, category, NULL, created_at
		 FROM vault_items ORDER BY created_at DESC, id DESC`, false)
}

// LoadVaultItems returns every vault item with its embedding, ordered by id.
func (s *SQLiteStore) LoadVaultItems(ctx context.Context) ([]*VaultItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.queryVaultItems(ctx,
		`SELECT id, title, content, tags, type, category, embedding, created_at
		 FROM vault_items ORDER BY id`, true)
}

// LoadAll reads both tables concurrently and returns notes (by id) followed
// by vault items (by id), embeddings decoded.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var (
		notes []*Note
		vault []*VaultItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		notes, err = s.queryNotes(gctx,
			`SELECT id, title, content, embedding, created_at FROM notes ORDER BY id`, true)
		return err
	})
	g.Go(func() error {
		var err error
		vault, err = s.queryVaultItems(gctx,
			`SELECT id, title, content, tags, type, category, embedding, created_at
			 FROM vault_items ORDER BY id`, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(notes)+len(vault))
	for _, n := range notes {
		items = append(items, NoteItem(n))
	}
	for _, v := range vault {
		items = append(items, VaultItemOf(v))
	}
	return items, nil
}

// GetNote returns one note with its embedding.
func (s *SQLiteStore) GetNote(ctx context.Context, id int64) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	notes, err := s.queryNotes(ctx,
		`SELECT id, title, content, embedding, created_at FROM notes WHERE id = ?`, true, id)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, verrors.NotFoundError("note", id)
	}
	return notes[0], nil
}

// GetVaultItem returns one vault item with its embedding.
func (s *SQLiteStore) GetVaultItem(ctx context.Context, id int64) (*VaultItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	items, err := s.queryVaultItems(ctx,
		`SELECT id, title, content, tags, type, category, embedding, created_at
		 FROM vault_items WHERE id = ?`, true, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, verrors.NotFoundError("vault item", id)
	}
	return items[0], nil
}

// DeleteNote removes a note. Deleting a missing id is a not-found error.
func (s *SQLiteStore) DeleteNote(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, KindNote, "notes", "note", id)
}

// DeleteVaultItem removes a vault item. Deleting a missing id is a not-found error.
func (s *SQLiteStore) DeleteVaultItem(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, KindVaultItem, "vault_items", "vault item", id)
}

func (s *SQLiteStore) deleteByID(ctx context.Context, kind Kind, table, label string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return verrors.StorageError("failed to delete "+label, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return verrors.StorageError("failed to delete "+label, err)
	}
	s.decoded.Remove(cacheKey(kind, id))
	if affected == 0 {
		return verrors.NotFoundError(label, id)
	}
	return nil
}

// Counts returns per-table record counts.
func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return Counts{}, err
	}

	var c Counts
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM notes), (SELECT COUNT(*) FROM vault_items)`).
		Scan(&c.Notes, &c.VaultItems)
	if err != nil {
		return Counts{}, verrors.StorageError("failed to count records", err)
	}
	return c, nil
}

// Close closes the database. Further calls fail with ErrCodeStoreUnavailable.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.decoded.Purge()
	return s.db.Close()
}

// DB returns the underlying connection for tables owned by other packages
// (query statistics). It is closed by Close.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Path returns the database file path ("" for in-memory).
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) queryNotes(ctx context.Context, query string, withEmbedding bool, args ...any) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, verrors.StorageError("failed to query notes", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		var (
			n         Note
			embedding sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &embedding, &createdAt); err != nil {
			return nil, verrors.StorageError("failed to scan note", err)
		}
		n.CreatedAt = time.Unix(0, createdAt).UTC()

		if withEmbedding {
			vec, err := s.decodeEmbedding(KindNote, n.ID, embedding.String)
			if err != nil {
				slog.Warn("stored_record_skipped",
					slog.String("kind", string(KindNote)),
					slog.Int64("id", n.ID),
					slog.String("error", err.Error()))
				continue
			}
			n.Embedding = vec
		}
		notes = append(notes, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, verrors.StorageError("failed to iterate notes", err)
	}
	return notes, nil
}

func (s *SQLiteStore) queryVaultItems(ctx context.Context, query string, withEmbedding bool, args ...any) ([]*VaultItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, verrors.StorageError("failed to query vault items", err)
	}
	defer rows.Close()

	var items []*VaultItem
	for rows.Next() {
		var (
			v         VaultItem
			tags      string
			embedding sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&v.ID, &v.Title, &v.Content, &tags, &v.Type, &v.Category, &embedding, &createdAt); err != nil {
			return nil, verrors.StorageError("failed to scan vault item", err)
		}
		v.CreatedAt = time.Unix(0, createdAt).UTC()

		decodeErr := json.Unmarshal([]byte(tags), &v.Tags)
		if decodeErr != nil && !withEmbedding {
			// Listing keeps the record visible without its tags.
			slog.Warn("stored_tags_unreadable",
				slog.Int64("id", v.ID),
				slog.String("error", decodeErr.Error()))
			v.Tags, decodeErr = []string{}, nil
		}
		if decodeErr == nil && withEmbedding {
			v.Embedding, decodeErr = s.decodeEmbedding(KindVaultItem, v.ID, embedding.String)
		}
		if decodeErr != nil {
			slog.Warn("stored_record_skipped",
				slog.String("kind", string(KindVaultItem)),
				slog.Int64("id", v.ID),
				slog.String("error", decodeErr.Error()))
			continue
		}
		if v.Tags == nil {
			v.Tags = []string{}
		}
		items = append(items, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, verrors.StorageError("failed to iterate vault items", err)
	}
	return items, nil
}

// decodeEmbedding parses a stored JSON embedding, consulting the cache first.
func (s *SQLiteStore) decodeEmbedding(kind Kind, id int64, text string) ([]float32, error) {
	key := cacheKey(kind, id)
	if vec, ok := s.decoded.Get(key); ok {
		return vec, nil
	}

	var vec []float32
	if err := json.Unmarshal([]byte(text), &vec); err != nil {
		return nil, verrors.New(verrors.ErrCodeRecordCorrupt, "stored embedding is not a numeric array", err)
	}
	if len(vec) == 0 {
		return nil, verrors.New(verrors.ErrCodeRecordCorrupt, "stored embedding is empty", nil)
	}

	s.decoded.Add(key, vec)
	return vec, nil
}

func encodeEmbedding(vec []float32) (string, error) {
	if len(vec) == 0 {
		return "", verrors.ValidationError("embedding is required", nil)
	}
	b, err := json.Marshal(vec)
	if err != nil {
		return "", verrors.InternalError("failed to encode embedding", err)
	}
	return string(b), nil
}

func cacheKey(kind Kind, id int64) string {
	return string(kind) + ":" + strconv.FormatInt(id, 10)
}
