// Package github adapts the upstream issue tracker's API to the
// mirror's model. Only the allow-listed operations the reconciliation
// core needs are exposed; callers never dispatch arbitrary remote
// methods.
package github

import (
	"context"
	"net/http"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/memohq/memomirror/internal/model"
	"golang.org/x/oauth2"
)

// Client wraps the upstream API client.
type Client struct {
	client *gh.Client
	// writable records whether a token was supplied. Read operations
	// work without one (public, rate-limited mode); writes do not.
	writable bool
}

// NewClient creates a client. An empty token yields a read-only client
// for public repositories.
func NewClient(ctx context.Context, token string) *Client {
	state := &rateLimitState{}

	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(ctx, ts)
		hc.Transport = &rateLimitTransport{base: hc.Transport, state: state}
	} else {
		hc = &http.Client{
			Transport: &rateLimitTransport{base: http.DefaultTransport, state: state},
		}
	}

	return &Client{
		client:   gh.NewClient(hc),
		writable: token != "",
	}
}

// ListIssues returns one page of issues. When since is non-zero only
// issues updated after it are returned; an empty result is a valid
// response, not an error. Pull requests are excluded from the mirror.
func (c *Client) ListIssues(ctx context.Context, owner, repo string, page, perPage int, labels []string, since time.Time) ([]model.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:     "all",
		Labels:    labels,
		Sort:      "created",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			Page:    page,
			PerPage: perPage,
		},
	}
	if !since.IsZero() {
		opts.Since = since
	}

	ghIssues, _, err := c.client.Issues.ListByRepo(ctx, owner, repo, opts)
	if err != nil {
		return nil, classify("failed to list issues", err)
	}

	issues := make([]model.Issue, 0, len(ghIssues))
	for _, issue := range ghIssues {
		if issue.IsPullRequest() {
			continue
		}
		issues = append(issues, convertIssue(owner, repo, issue))
	}
	return issues, nil
}

// GetIssue fetches a single issue by number.
func (c *Client) GetIssue(ctx context.Context, owner, repo string, number int) (model.Issue, error) {
	issue, _, err := c.client.Issues.Get(ctx, owner, repo, number)
	if err != nil {
		return model.Issue{}, classify("failed to get issue", err)
	}
	return convertIssue(owner, repo, issue), nil
}

// CreateIssue creates an issue upstream. Requires a write-capable
// credential.
func (c *Client) CreateIssue(ctx context.Context, owner, repo, title string, body *string, labels []string) (model.Issue, error) {
	if !c.writable {
		return model.Issue{}, ErrNoToken
	}

	req := &gh.IssueRequest{
		Title:  gh.String(title),
		Body:   body,
		Labels: &labels,
	}
	issue, _, err := c.client.Issues.Create(ctx, owner, repo, req)
	if err != nil {
		return model.Issue{}, classify("failed to create issue", err)
	}
	return convertIssue(owner, repo, issue), nil
}

// UpdateIssue updates an issue's title, body, state, and labels. Nil
// fields are left unchanged upstream; labels always replace.
func (c *Client) UpdateIssue(ctx context.Context, owner, repo string, number int, title, body, state *string, labels []string) (model.Issue, error) {
	if !c.writable {
		return model.Issue{}, ErrNoToken
	}

	req := &gh.IssueRequest{
		Title:  title,
		Body:   body,
		State:  state,
		Labels: &labels,
	}
	issue, _, err := c.client.Issues.Edit(ctx, owner, repo, number, req)
	if err != nil {
		return model.Issue{}, classify("failed to update issue", err)
	}
	return convertIssue(owner, repo, issue), nil
}

// ListLabels returns all labels for the repository.
func (c *Client) ListLabels(ctx context.Context, owner, repo string) ([]model.Label, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var labels []model.Label
	for {
		ghLabels, resp, err := c.client.Issues.ListLabels(ctx, owner, repo, opts)
		if err != nil {
			return nil, classify("failed to list labels", err)
		}
		for _, label := range ghLabels {
			labels = append(labels, convertLabel(owner, repo, label))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return labels, nil
}

// RateLimits reports the upstream API quota for this credential.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, classify("failed to get rate limits", err)
	}
	return limits, nil
}

// CreateLabel creates a label upstream. Requires a write-capable
// credential.
func (c *Client) CreateLabel(ctx context.Context, owner, repo, name, color string, description *string) (model.Label, error) {
	if !c.writable {
		return model.Label{}, ErrNoToken
	}

	label, _, err := c.client.Issues.CreateLabel(ctx, owner, repo, &gh.Label{
		Name:        gh.String(name),
		Color:       gh.String(color),
		Description: description,
	})
	if err != nil {
		return model.Label{}, classify("failed to create label", err)
	}
	return convertLabel(owner, repo, label), nil
}
