package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/memohq/memomirror/internal/model"
)

// IssuesPage is one page of issues plus the total matching count.
type IssuesPage struct {
	Issues []model.Issue
	Total  int
}

// UpsertIssue saves a single issue by natural key (owner, repo, number).
func (s *Store) UpsertIssue(ctx context.Context, owner, repo string, issue model.Issue) error {
	return s.UpsertIssues(ctx, owner, repo, []model.Issue{issue})
}

// UpsertIssues batch-upserts issues by natural key.
//
// Invariant: created_at is written once. The existing rows are looked up
// first and their created_at carried forward unchanged; only the mutable
// fields and updated_at are overwritten on conflict. One existence query
// plus one batched transaction bounds round-trips.
func (s *Store) UpsertIssues(ctx context.Context, owner, repo string, issues []model.Issue) error {
	if len(issues) == 0 {
		return nil
	}

	existing, err := s.existingCreatedAt(ctx, owner, repo, issues)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO issues (owner, repo, issue_number, title, body, state, labels, github_created_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(owner, repo, issue_number) DO UPDATE SET
		title = excluded.title,
		body = excluded.body,
		state = excluded.state,
		labels = excluded.labels,
		github_created_at = excluded.github_created_at,
		updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare issue upsert: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	for _, issue := range issues {
		createdAt := now
		if prior, ok := existing[issue.Number]; ok {
			createdAt = prior
		}

		labels, err := json.Marshal(issue.LabelNames())
		if err != nil {
			return fmt.Errorf("failed to encode labels for issue #%d: %w", issue.Number, err)
		}

		if _, err := stmt.ExecContext(ctx,
			owner, repo, issue.Number,
			issue.Title, issue.Body, issue.State,
			string(labels), issue.GitHubCreatedAt, createdAt, now,
		); err != nil {
			return fmt.Errorf("failed to save issue #%d: %w", issue.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit issue upsert: %w", err)
	}
	return nil
}

// existingCreatedAt fetches the created_at of rows that already exist
// for the given issues, keyed by issue number.
func (s *Store) existingCreatedAt(ctx context.Context, owner, repo string, issues []model.Issue) (map[int]time.Time, error) {
	placeholders := make([]string, len(issues))
	args := make([]any, 0, len(issues)+2)
	args = append(args, owner, repo)
	for i, issue := range issues {
		placeholders[i] = "?"
		args = append(args, issue.Number)
	}

	query := fmt.Sprintf(
		`SELECT issue_number, created_at FROM issues WHERE owner = ? AND repo = ? AND issue_number IN (%s)`,
		strings.Join(placeholders, ","),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing issues: %w", err)
	}
	defer rows.Close()

	existing := make(map[int]time.Time)
	for rows.Next() {
		var number int
		var createdAt time.Time
		if err := rows.Scan(&number, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan existing issue: %w", err)
		}
		existing[number] = createdAt
	}
	return existing, rows.Err()
}

// GetIssues returns one page of issues ordered by github_created_at
// descending, optionally filtered to issues whose label set is a
// superset of labelFilter. Label names are joined against the labels
// table; names with no matching row get a synthetic placeholder.
func (s *Store) GetIssues(ctx context.Context, owner, repo string, page int, labelFilter []string) (IssuesPage, error) {
	if page < 1 {
		page = 1
	}

	where := "owner = ? AND repo = ?"
	args := []any{owner, repo}
	for _, name := range labelFilter {
		// Label names are stored JSON-quoted, so matching on the quoted
		// form is exact, not a substring of another label.
		where += " AND instr(labels, ?) > 0"
		quoted, err := json.Marshal(name)
		if err != nil {
			return IssuesPage{}, fmt.Errorf("failed to encode label filter: %w", err)
		}
		args = append(args, string(quoted))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM issues WHERE " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return IssuesPage{}, fmt.Errorf("failed to count issues: %w", err)
	}

	query := `SELECT owner, repo, issue_number, title, body, state, labels, github_created_at, created_at, updated_at
	FROM issues WHERE ` + where + `
	ORDER BY github_created_at DESC, issue_number DESC
	LIMIT ? OFFSET ?`
	args = append(args, PageSize, (page-1)*PageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return IssuesPage{}, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	issues := make([]model.Issue, 0, PageSize)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return IssuesPage{}, err
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return IssuesPage{}, fmt.Errorf("failed to read issues: %w", err)
	}

	if err := s.attachLabels(ctx, owner, repo, issues); err != nil {
		return IssuesPage{}, err
	}

	return IssuesPage{Issues: issues, Total: total}, nil
}

// GetIssue returns a single issue by number, or nil if absent.
func (s *Store) GetIssue(ctx context.Context, owner, repo string, number int) (*model.Issue, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT owner, repo, issue_number, title, body, state, labels, github_created_at, created_at, updated_at
	FROM issues WHERE owner = ? AND repo = ? AND issue_number = ?`,
		owner, repo, number)

	issue, err := scanIssue(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	issues := []model.Issue{issue}
	if err := s.attachLabels(ctx, owner, repo, issues); err != nil {
		return nil, err
	}
	return &issues[0], nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(row scanner) (model.Issue, error) {
	var issue model.Issue
	var labels string
	err := row.Scan(
		&issue.Owner, &issue.Repo, &issue.Number,
		&issue.Title, &issue.Body, &issue.State,
		&labels, &issue.GitHubCreatedAt, &issue.CreatedAt, &issue.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return issue, err
		}
		return issue, fmt.Errorf("failed to scan issue: %w", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(labels), &names); err != nil {
		return issue, fmt.Errorf("failed to decode labels for issue #%d: %w", issue.Number, err)
	}
	issue.Labels = make([]model.Label, 0, len(names))
	for _, name := range names {
		issue.Labels = append(issue.Labels, model.Label{Name: name})
	}
	return issue, nil
}

// attachLabels replaces each issue's name-only labels with full label
// rows. A name with no matching row keeps a placeholder instead of
// failing the query.
func (s *Store) attachLabels(ctx context.Context, owner, repo string, issues []model.Issue) error {
	if len(issues) == 0 {
		return nil
	}

	known, err := s.GetLabels(ctx, owner, repo)
	if err != nil {
		return err
	}
	byName := make(map[string]model.Label, len(known))
	for _, l := range known {
		byName[l.Name] = l
	}

	for i := range issues {
		for j, l := range issues[i].Labels {
			if full, ok := byName[l.Name]; ok {
				issues[i].Labels[j] = full
			} else {
				issues[i].Labels[j] = model.PlaceholderLabel(l.Name)
			}
		}
	}
	return nil
}
