package rules

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists rules to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite rule store.
// The path should be a file path (e.g., "./rules.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rules (
			name TEXT NOT NULL PRIMARY KEY,
			id TEXT NOT NULL,
			expr TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(rule Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO rules (name, id, expr, description, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			id = excluded.id,
			expr = excluded.expr,
			description = excluded.description,
			created_at = excluded.created_at
	`, rule.Name, rule.ID, rule.Expr, rule.Description,
		rule.CreatedAt.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("save rule: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(name string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Rule{}, ErrStoreClosed
	}

	var rule Rule
	var created string
	err := s.db.QueryRow(`
		SELECT name, id, expr, description, created_at FROM rules
		WHERE name = ?
	`, name).Scan(&rule.Name, &rule.ID, &rule.Expr, &rule.Description, &created)

	if err == sql.ErrNoRows {
		return Rule{}, ErrNotFound
	}
	if err != nil {
		return Rule{}, fmt.Errorf("load rule: %w", err)
	}
	rule.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return rule, nil
}

// List implements Store.
func (s *SQLiteStore) List() ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT name, id, expr, description, created_at
		FROM rules
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var all []Rule
	for rows.Next() {
		var rule Rule
		var created string
		if err := rows.Scan(&rule.Name, &rule.ID, &rule.Expr, &rule.Description, &created); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		all = append(all, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	return all, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`DELETE FROM rules WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
