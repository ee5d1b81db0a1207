package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/memohq/memomirror/internal/log"
	"github.com/memohq/memomirror/internal/model"
)

// RecordSync appends a sync history record and prunes the history to
// the most recent maxSyncRecords per (owner, repo). Pruning failure is
// logged but does not fail the record write.
func (s *Store) RecordSync(ctx context.Context, owner, repo, status string, issuesSynced int, errorMessage *string, syncType string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO sync_history (owner, repo, status, issues_synced, error_message, sync_type, last_sync_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		owner, repo, status, issuesSynced, errorMessage, syncType, s.now())
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	DELETE FROM sync_history
	WHERE owner = ? AND repo = ? AND id NOT IN (
		SELECT id FROM sync_history
		WHERE owner = ? AND repo = ?
		ORDER BY last_sync_at DESC, id DESC
		LIMIT ?
	)`, owner, repo, owner, repo, maxSyncRecords)
	if err != nil {
		log.Warn("failed to prune sync history", "owner", owner, "repo", repo, "error", err)
	}
	return nil
}

// CheckSyncStatus reads the most recent sync record. NeedsSync is true
// when no record exists or the latest attempt failed.
func (s *Store) CheckSyncStatus(ctx context.Context, owner, repo string) (model.SyncStatus, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT status, issues_synced, last_sync_at FROM sync_history
	WHERE owner = ? AND repo = ?
	ORDER BY last_sync_at DESC, id DESC
	LIMIT 1`, owner, repo)

	var status model.SyncStatus
	var lastSyncAt sql.NullTime
	err := row.Scan(&status.Status, &status.IssuesSynced, &lastSyncAt)
	if err == sql.ErrNoRows {
		return model.SyncStatus{NeedsSync: true}, nil
	}
	if err != nil {
		return model.SyncStatus{}, fmt.Errorf("failed to check sync status: %w", err)
	}

	if lastSyncAt.Valid {
		t := lastSyncAt.Time
		status.LastSyncAt = &t
	}
	status.NeedsSync = status.Status == model.SyncStatusFailed
	return status, nil
}

// SyncHistory returns up to limit most recent sync records.
func (s *Store) SyncHistory(ctx context.Context, owner, repo string, limit int) ([]model.SyncRecord, error) {
	if limit <= 0 || limit > maxSyncRecords {
		limit = maxSyncRecords
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT owner, repo, status, issues_synced, error_message, sync_type, last_sync_at
	FROM sync_history
	WHERE owner = ? AND repo = ?
	ORDER BY last_sync_at DESC, id DESC
	LIMIT ?`, owner, repo, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync history: %w", err)
	}
	defer rows.Close()

	var records []model.SyncRecord
	for rows.Next() {
		var r model.SyncRecord
		if err := rows.Scan(&r.Owner, &r.Repo, &r.Status, &r.IssuesSynced, &r.ErrorMessage, &r.SyncType, &r.LastSyncAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
