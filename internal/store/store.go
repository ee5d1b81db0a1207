// Package store implements the persisted mirror: durable storage for
// issues, labels, sync history, and repo config in SQLite. The store is
// the authority for mirrored data; query failures surface as errors so
// callers know when durability is in question.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// PageSize is the fixed page size for issue queries.
const PageSize = 50

// maxSyncRecords is the number of sync history records retained per
// (owner, repo). Older records are pruned after each insert.
const maxSyncRecords = 20

// Store wraps the database connection.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS issues (
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		issue_number INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		state TEXT NOT NULL,
		labels TEXT NOT NULL DEFAULT '[]',
		github_created_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (owner, repo, issue_number)
	);

	CREATE INDEX IF NOT EXISTS idx_issues_github_created
		ON issues(owner, repo, github_created_at DESC);

	CREATE TABLE IF NOT EXISTS labels (
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		name TEXT NOT NULL,
		color TEXT NOT NULL,
		description TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (owner, repo, name)
	);

	CREATE TABLE IF NOT EXISTS sync_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		status TEXT NOT NULL,
		issues_synced INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		sync_type TEXT NOT NULL,
		last_sync_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sync_history_repo
		ON sync_history(owner, repo, last_sync_at DESC);

	CREATE TABLE IF NOT EXISTS repo_config (
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		issues_per_page INTEGER NOT NULL,
		token TEXT,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (owner, repo)
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
