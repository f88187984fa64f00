// Package store provides SQLite-backed persistence for mistakes, the
// shared explanation cache, and per-user mistake cards.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// Sentinel errors for the store package.
var (
	ErrNotFound        = errors.New("store: not found")
	ErrCardExists      = errors.New("store: card already exists")
	ErrVersionConflict = errors.New("store: card version conflict")
)

// Store is a SQLite-backed store for all engine entities.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store at dbPath. The path can be a file path
// or ":memory:" for an in-memory database. Creates tables and indexes if
// they don't exist.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Serialized access keeps an in-memory database coherent and avoids
	// SQLITE_BUSY under concurrent ingestion pipelines.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mistakes (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		ply INTEGER NOT NULL,
		color TEXT NOT NULL,
		position_key TEXT NOT NULL,
		move_played TEXT,
		best_move TEXT,
		eval_before INTEGER NOT NULL,
		eval_after INTEGER NOT NULL,
		delta_cp INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		explanation_key TEXT NOT NULL DEFAULT '',
		explanation_status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(game_id, ply)
	);

	CREATE INDEX IF NOT EXISTS idx_mistakes_game ON mistakes(game_id);
	CREATE INDEX IF NOT EXISTS idx_mistakes_status ON mistakes(explanation_status);

	CREATE TABLE IF NOT EXISTS explanations (
		key TEXT PRIMARY KEY,
		position_key TEXT NOT NULL,
		context_hash TEXT NOT NULL,
		text TEXT NOT NULL,
		category TEXT,
		why_good TEXT,
		why_failed TEXT,
		pattern TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		mistake_id TEXT NOT NULL,
		state TEXT NOT NULL,
		interval_secs INTEGER NOT NULL DEFAULT 0,
		due_at DATETIME NOT NULL,
		streak INTEGER NOT NULL DEFAULT 0,
		cap_streak INTEGER NOT NULL DEFAULT 0,
		lapses INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, mistake_id),
		FOREIGN KEY (mistake_id) REFERENCES mistakes(id)
	);

	CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(user_id, due_at);

	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		card_id TEXT NOT NULL,
		reviewed_at DATETIME NOT NULL,
		prior_state TEXT NOT NULL,
		outcome TEXT NOT NULL,
		new_interval_secs INTEGER NOT NULL,
		FOREIGN KEY (card_id) REFERENCES cards(id)
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_card ON reviews(card_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
