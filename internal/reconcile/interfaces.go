package reconcile

import (
	"context"
	"time"

	"github.com/memohq/memomirror/internal/model"
	"github.com/memohq/memomirror/internal/store"
)

// Remote is the explicit allow-list of upstream operations the
// orchestrator may drive. Nothing outside this surface is ever
// forwarded to the remote client.
type Remote interface {
	ListIssues(ctx context.Context, owner, repo string, page, perPage int, labels []string, since time.Time) ([]model.Issue, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (model.Issue, error)
	CreateIssue(ctx context.Context, owner, repo, title string, body *string, labels []string) (model.Issue, error)
	UpdateIssue(ctx context.Context, owner, repo string, number int, title, body, state *string, labels []string) (model.Issue, error)
	ListLabels(ctx context.Context, owner, repo string) ([]model.Label, error)
	CreateLabel(ctx context.Context, owner, repo, name, color string, description *string) (model.Label, error)
}

// Mirror is the durable store surface the orchestrator writes through.
// Mirror errors propagate; the store is the authority and callers must
// know when durability is in question.
type Mirror interface {
	UpsertIssue(ctx context.Context, owner, repo string, issue model.Issue) error
	UpsertIssues(ctx context.Context, owner, repo string, issues []model.Issue) error
	GetIssues(ctx context.Context, owner, repo string, page int, labelFilter []string) (store.IssuesPage, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*model.Issue, error)
	UpsertLabel(ctx context.Context, owner, repo string, label model.Label) error
	UpsertLabels(ctx context.Context, owner, repo string, labels []model.Label) error
	GetLabels(ctx context.Context, owner, repo string) ([]model.Label, error)
	RecordSync(ctx context.Context, owner, repo, status string, issuesSynced int, errorMessage *string, syncType string) error
	CheckSyncStatus(ctx context.Context, owner, repo string) (model.SyncStatus, error)
	SyncHistory(ctx context.Context, owner, repo string, limit int) ([]model.SyncRecord, error)
	GetRepoConfig(ctx context.Context, owner, repo string) (*model.RepoConfig, error)
	SaveRepoConfig(ctx context.Context, cfg model.RepoConfig) error
}

// Ensure the concrete store satisfies Mirror.
var _ Mirror = (*store.Store)(nil)
