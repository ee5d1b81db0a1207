// Package model defines the entities mirrored from the upstream issue
// tracker: issues, labels, and the sync history that records how fresh
// the local mirror is.
package model

import "time"

// Issue states.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Sync outcomes recorded in the sync history.
const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// Sync modes. A full sync treats the remote as authoritative for the
// whole page; an add sync only fetches changes since the last success.
const (
	SyncTypeFull = "full"
	SyncTypeAdd  = "add"
)

// PlaceholderColor is used for labels referenced by an issue but missing
// from the labels table. Matches GitHub's default gray.
const PlaceholderColor = "ededed"

// Issue is a mirrored issue. (Owner, Repo, Number) is the natural key.
//
// CreatedAt is the mirror-local creation timestamp and is written once:
// upserts carry it forward unchanged. GitHubCreatedAt is the upstream
// authoritative creation time and drives display ordering.
type Issue struct {
	Owner           string    `json:"owner"`
	Repo            string    `json:"repo"`
	Number          int       `json:"number"`
	Title           string    `json:"title"`
	Body            *string   `json:"body"`
	State           string    `json:"state"`
	Labels          []Label   `json:"labels"`
	GitHubCreatedAt time.Time `json:"githubCreatedAt"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// LabelNames returns the ordered label names attached to the issue.
func (i *Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		names = append(names, l.Name)
	}
	return names
}

// HasLabels reports whether the issue's label set is a superset of want.
func (i *Issue) HasLabels(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]bool, len(i.Labels))
	for _, l := range i.Labels {
		have[l.Name] = true
	}
	for _, name := range want {
		if !have[name] {
			return false
		}
	}
	return true
}

// Label is a mirrored label. (Owner, Repo, Name) is the natural key;
// upserts overwrite color and description.
type Label struct {
	Owner       string  `json:"-"`
	Repo        string  `json:"-"`
	Name        string  `json:"name"`
	Color       string  `json:"color"` // hex, no leading '#'
	Description *string `json:"description"`
}

// PlaceholderLabel returns a synthetic label for a name that has no row
// in the labels table. Partial data is recovered, never surfaced as an
// error.
func PlaceholderLabel(name string) Label {
	return Label{Name: name, Color: PlaceholderColor}
}

// SyncRecord is one entry in the append-only sync history for a
// repository. Only the most recent record determines the current sync
// mode; at most 20 are retained per (owner, repo).
type SyncRecord struct {
	Owner        string    `json:"owner"`
	Repo         string    `json:"repo"`
	Status       string    `json:"status"`
	IssuesSynced int       `json:"issuesSynced"`
	ErrorMessage *string   `json:"errorMessage"`
	SyncType     string    `json:"syncType"`
	LastSyncAt   time.Time `json:"lastSyncAt"`
}

// SyncStatus summarizes the latest sync record for mode decisions.
// NeedsSync is true when no record exists or the latest attempt failed.
type SyncStatus struct {
	NeedsSync    bool       `json:"needsSync"`
	LastSyncAt   *time.Time `json:"lastSyncAt"`
	Status       string     `json:"status,omitempty"`
	IssuesSynced int        `json:"issuesSynced"`
}

// RepoConfig identifies the mirrored repository and carries the write
// credential. Token is only ever stored and transmitted in encrypted
// form; the client-facing variant omits it entirely.
type RepoConfig struct {
	Owner         string `json:"owner"`
	Repo          string `json:"repo"`
	IssuesPerPage int    `json:"issuesPerPage"`
	Token         string `json:"token,omitempty"` // encrypted; server-side only
}

// ClientView returns the client-facing variant with the token stripped.
func (c RepoConfig) ClientView() RepoConfig {
	c.Token = ""
	return c
}
