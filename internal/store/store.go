// Package store is the operator-local SQLite database: persisted UI
// preferences and a journal of operator actions. Package state itself is the
// data service's concern; nothing here holds content.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// Pref key for the navigation panel collapse toggle.
const navCollapsedKey = "nav_collapsed"

// Store wraps the local SQLite database.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the local database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// NavCollapsed reads the persisted navigation panel preference. A missing
// row reads as false.
func (s *Store) NavCollapsed() (bool, error) {
	var value string
	err := sq.Select("value").From("prefs").
		Where(sq.Eq{"key": navCollapsedKey}).
		RunWith(s.conn).QueryRow().Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading nav preference: %w", err)
	}
	return value == "1", nil
}

// SetNavCollapsed writes the navigation panel preference.
func (s *Store) SetNavCollapsed(collapsed bool) error {
	value := "0"
	if collapsed {
		value = "1"
	}
	_, err := sq.Replace("prefs").
		Columns("key", "value").
		Values(navCollapsedKey, value).
		RunWith(s.conn).Exec()
	if err != nil {
		return fmt.Errorf("writing nav preference: %w", err)
	}
	return nil
}

// Action is one journaled operator action.
type Action struct {
	ID     int64
	At     string
	Kind   string
	Detail string
}

// RecordAction appends an entry to the journal.
func (s *Store) RecordAction(kind, detail string) error {
	_, err := sq.Insert("journal").
		Columns("kind", "detail").
		Values(kind, detail).
		RunWith(s.conn).Exec()
	if err != nil {
		return fmt.Errorf("recording action: %w", err)
	}
	return nil
}

// RecentActions returns the newest journal entries, newest first.
func (s *Store) RecentActions(limit int) ([]Action, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := sq.Select("id", "at", "kind", "detail").From("journal").
		OrderBy("id DESC").
		Limit(uint64(limit)).
		RunWith(s.conn).Query()
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var a Action
		if err := rows.Scan(&a.ID, &a.At, &a.Kind, &a.Detail); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// Stats contains aggregate local-store statistics.
type Stats struct {
	JournalEntries int
	Promotions     int
	Regenerations  int
}

// GetStats summarizes the journal for the status command.
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	row := sq.Select(
		"COUNT(*)",
		"COALESCE(SUM(kind = 'promote'), 0)",
		"COALESCE(SUM(kind = 'regenerate'), 0)",
	).From("journal").RunWith(s.conn).QueryRow()
	if err := row.Scan(&stats.JournalEntries, &stats.Promotions, &stats.Regenerations); err != nil {
		return nil, fmt.Errorf("reading journal stats: %w", err)
	}
	return stats, nil
}
