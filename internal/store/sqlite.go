package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// snapshotKey is stable across versions; changing it orphans saved state.
const snapshotKey = "support_assistant_state_v1"

// SnapshotStore persists the state snapshot in a local SQLite key-value
// table.
type SnapshotStore struct {
	db *sql.DB
}

// DefaultDBPath resolves the snapshot database location under XDG_DATA_HOME,
// falling back to ~/.local/share.
func DefaultDBPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return filepath.Join(xdg, "soudan", "soudan.sqlite"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "soudan", "soudan.sqlite"), nil
}

// DBPath places the database in dir when set, else at the default location.
func DBPath(dir string) (string, error) {
	if strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, "soudan.sqlite"), nil
	}
	return DefaultDBPath()
}

// OpenSnapshotStore opens (creating when needed) the snapshot database.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshot (key TEXT PRIMARY KEY, value BLOB NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Load reads the persisted snapshot. A missing or unparsable value yields
// the empty initial state; only I/O failures surface as errors.
func (s *SnapshotStore) Load() (Snapshot, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT value FROM snapshot WHERE key = ?`, snapshotKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return EmptySnapshot(), nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return DecodeSnapshot(raw), nil
}

// Save upserts the full snapshot value.
func (s *SnapshotStore) Save(snap Snapshot) error {
	raw, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshot (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		snapshotKey, raw,
	)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Wipe removes the stored snapshot entirely.
func (s *SnapshotStore) Wipe() error {
	if _, err := s.db.Exec(`DELETE FROM snapshot WHERE key = ?`, snapshotKey); err != nil {
		return fmt.Errorf("wipe snapshot: %w", err)
	}
	return nil
}
