// Package store provides SQLite persistence for the vocab dictionary.
//
// The store is both the category source (it hands out the *model.Category
// tokens filters compare by identity) and the query engine that turns a
// controller.Criteria into a result list.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/abelbrown/vocabfilter/internal/model"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex // Protects all database operations and categories

	// categories caches one token per category ID for the store's lifetime.
	categories map[int64]*model.Category
}

// Open creates a new Store with the given database path.
// Creates tables if they don't exist.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, so pin the
	// pool to the one connection that holds the schema.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, categories: make(map[int64]*model.Category)}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// createTables creates the required tables and indexes if they don't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY,
		label TEXT NOT NULL,
		short_name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS vocab (
		id INTEGER PRIMARY KEY,
		kanji_writing TEXT NOT NULL DEFAULT '',
		kana_writing TEXT NOT NULL,
		meaning TEXT NOT NULL,
		is_common INTEGER DEFAULT 0,
		jlpt_level INTEGER DEFAULT 0,
		wk_level INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS vocab_categories (
		vocab_id INTEGER NOT NULL REFERENCES vocab(id) ON DELETE CASCADE,
		category_id INTEGER NOT NULL REFERENCES categories(id),
		PRIMARY KEY (vocab_id, category_id)
	);

	CREATE INDEX IF NOT EXISTS idx_vocab_kana ON vocab(kana_writing);
	CREATE INDEX IF NOT EXISTS idx_vocab_jlpt ON vocab(jlpt_level);
	CREATE INDEX IF NOT EXISTS idx_vocab_wk ON vocab(wk_level);
	CREATE INDEX IF NOT EXISTS idx_vocab_categories_category ON vocab_categories(category_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveCategories upserts categories by ID and returns how many were new.
// Cached tokens keep their identity; their label fields are updated in place.
// Thread-safe: acquires write lock.
func (s *Store) SaveCategories(ctx context.Context, cats []model.Category) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(cats) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	newCount := 0
	for _, c := range cats {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories WHERE id = ?", c.ID).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("check category %d: %w", c.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO categories (id, label, short_name) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET label = excluded.label, short_name = excluded.short_name
		`, c.ID, c.Label, c.ShortName)
		if err != nil {
			return 0, fmt.Errorf("save category %d: %w", c.ID, err)
		}
		if exists == 0 {
			newCount++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	for _, c := range cats {
		s.tokenLocked(c.ID, c.Label, c.ShortName)
	}
	return newCount, nil
}

// tokenLocked returns the cached token for id, creating or refreshing it.
// Caller must hold s.mu for writing.
func (s *Store) tokenLocked(id int64, label, shortName string) *model.Category {
	tok, ok := s.categories[id]
	if !ok {
		tok = &model.Category{ID: id}
		s.categories[id] = tok
	}
	tok.Label = label
	tok.ShortName = shortName
	return tok
}

// Categories returns every category ordered by label. The same pointer is
// returned for a category on every call.
// Thread-safe: acquires write lock (the token cache may grow).
func (s *Store) Categories(ctx context.Context) ([]*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, label, short_name FROM categories ORDER BY label, id")
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []*model.Category
	for rows.Next() {
		var (
			id               int64
			label, shortName string
		)
		if err := rows.Scan(&id, &label, &shortName); err != nil {
			return nil, err
		}
		cats = append(cats, s.tokenLocked(id, label, shortName))
	}
	return cats, rows.Err()
}

// CategoryByID returns the token for id, or ErrNotFound. Cached tokens are
// returned without touching the database.
func (s *Store) CategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	s.mu.RLock()
	tok, ok := s.categories[id]
	s.mu.RUnlock()
	if ok {
		return tok, nil
	}

	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
}

// CategoryByName returns the category whose short name or label equals
// name (case-insensitive), or ErrNotFound.
func (s *Store) CategoryByName(ctx context.Context, name string) (*model.Category, error) {
	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	for _, c := range cats {
		if strings.EqualFold(c.ShortName, name) || strings.EqualFold(c.Label, name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
}

// SaveVocab upserts vocab entries (by ID) with their category links and
// returns how many were new.
// Thread-safe: acquires write lock.
func (s *Store) SaveVocab(ctx context.Context, entries []model.Vocab) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	newCount := 0
	for _, v := range entries {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM vocab WHERE id = ?", v.ID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("check vocab %d: %w", v.ID, err)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO vocab (id, kanji_writing, kana_writing, meaning, is_common, jlpt_level, wk_level)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				kanji_writing = excluded.kanji_writing,
				kana_writing = excluded.kana_writing,
				meaning = excluded.meaning,
				is_common = excluded.is_common,
				jlpt_level = excluded.jlpt_level,
				wk_level = excluded.wk_level
		`, v.ID, v.KanjiWriting, v.KanaWriting, v.Meaning, boolToInt(v.IsCommon), v.JLPTLevel, v.WKLevel)
		if err != nil {
			return 0, fmt.Errorf("save vocab %d: %w", v.ID, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM vocab_categories WHERE vocab_id = ?", v.ID); err != nil {
			return 0, fmt.Errorf("clear categories of vocab %d: %w", v.ID, err)
		}
		for _, cid := range v.CategoryIDs {
			_, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO vocab_categories (vocab_id, category_id) VALUES (?, ?)", v.ID, cid)
			if err != nil {
				return 0, fmt.Errorf("link vocab %d to category %d: %w", v.ID, cid, err)
			}
		}

		if exists == 0 {
			newCount++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return newCount, nil
}

// Count returns the number of vocab entries.
// Thread-safe: acquires read lock.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vocab").Scan(&n); err != nil {
		return 0, fmt.Errorf("count vocab: %w", err)
	}
	return n, nil
}

// boolToInt converts a bool to an int for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

