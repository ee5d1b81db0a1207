package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/memohq/memomirror/internal/model"
)

// GetRepoConfig returns the persisted repo config, or nil if absent.
// The token column holds ciphertext; decryption is the caller's job.
func (s *Store) GetRepoConfig(ctx context.Context, owner, repo string) (*model.RepoConfig, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT owner, repo, issues_per_page, token FROM repo_config
	WHERE owner = ? AND repo = ?`, owner, repo)

	var cfg model.RepoConfig
	var token sql.NullString
	err := row.Scan(&cfg.Owner, &cfg.Repo, &cfg.IssuesPerPage, &token)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repo config: %w", err)
	}

	if token.Valid {
		cfg.Token = token.String
	}
	return &cfg, nil
}

// SaveRepoConfig upserts the repo config row. cfg.Token must already be
// encrypted.
func (s *Store) SaveRepoConfig(ctx context.Context, cfg model.RepoConfig) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO repo_config (owner, repo, issues_per_page, token, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(owner, repo) DO UPDATE SET
		issues_per_page = excluded.issues_per_page,
		token = excluded.token,
		updated_at = excluded.updated_at
	`, cfg.Owner, cfg.Repo, cfg.IssuesPerPage, cfg.Token, s.now())
	if err != nil {
		return fmt.Errorf("failed to save repo config: %w", err)
	}
	return nil
}
