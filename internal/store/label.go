package store

import (
	"context"
	"fmt"

	"github.com/memohq/memomirror/internal/model"
)

// UpsertLabel saves a label by natural key (owner, repo, name). Color
// and description are always overwritten; created_at is preserved by
// the conflict clause.
func (s *Store) UpsertLabel(ctx context.Context, owner, repo string, label model.Label) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO labels (owner, repo, name, color, description, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(owner, repo, name) DO UPDATE SET
		color = excluded.color,
		description = excluded.description,
		updated_at = excluded.updated_at
	`, owner, repo, label.Name, label.Color, label.Description, now, now)
	if err != nil {
		return fmt.Errorf("failed to save label %s: %w", label.Name, err)
	}
	return nil
}

// UpsertLabels saves each label in turn.
func (s *Store) UpsertLabels(ctx context.Context, owner, repo string, labels []model.Label) error {
	for _, label := range labels {
		if err := s.UpsertLabel(ctx, owner, repo, label); err != nil {
			return err
		}
	}
	return nil
}

// GetLabels returns all labels for the repository ordered by name.
func (s *Store) GetLabels(ctx context.Context, owner, repo string) ([]model.Label, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT name, color, description FROM labels
	WHERE owner = ? AND repo = ?
	ORDER BY name`, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("failed to query labels: %w", err)
	}
	defer rows.Close()

	var labels []model.Label
	for rows.Next() {
		label := model.Label{Owner: owner, Repo: repo}
		if err := rows.Scan(&label.Name, &label.Color, &label.Description); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return labels, nil
}
