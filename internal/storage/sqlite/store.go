// Package sqlite persists the match snapshot in an embedded SQLite file.
// Durability is best-effort: a snapshot that cannot be read or written is
// logged and the live session keeps going.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"tabletally/internal/match"
)

const schema = `
CREATE TABLE IF NOT EXISTS match_snapshot (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL,
	document TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);
`

// Store is the durable snapshot gateway. One row holds the whole match.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the snapshot store, creating the file and schema as needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("snapshot path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save writes the full snapshot document, replacing whatever was there.
func (s *Store) Save(snap match.Snapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.sqlDB.Exec(`
		INSERT INTO match_snapshot (id, version, document, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			version = excluded.version,
			document = excluded.document,
			saved_at = excluded.saved_at`,
		snap.Version, string(doc), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot if one exists. Unknown fields in the
// document are ignored and missing ones keep their defaults, so older
// snapshots load cleanly. A corrupt or unreadable document is a cold
// start, logged here and never raised.
func (s *Store) Load() (match.Snapshot, bool) {
	var doc string
	err := s.sqlDB.QueryRow(`SELECT document FROM match_snapshot WHERE id = 1`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return match.Snapshot{}, false
	}
	if err != nil {
		log.Error().Err(err).Msg("snapshot unreadable, starting cold")
		return match.Snapshot{}, false
	}

	var snap match.Snapshot
	if err := json.Unmarshal([]byte(doc), &snap); err != nil {
		log.Error().Err(err).Msg("snapshot corrupt, starting cold")
		return match.Snapshot{}, false
	}
	return snap, true
}
