package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Version should be bumped when the cached data shape changes so stale
// envelopes from older builds invalidate instead of deserializing badly.
const Version = "1"

// keyPrefix namespaces every cache key so the cache can coexist with
// unrelated storage and Clear/Stats scans stay scoped.
const keyPrefix = "memomirror:"

// Cache categories.
const (
	CategoryIssues = "issues"
	CategoryLabels = "labels"
	CategoryConfig = "config"
)

// Per-category TTLs.
const (
	IssuesTTL = 15 * time.Minute
	LabelsTTL = 15 * time.Minute
	ConfigTTL = 15 * time.Minute
)

// entry is the stored envelope. Data is kept serialized so a corrupt
// value surfaces as a deserialization failure on read, not a panic.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
	ExpiryMS  int64           `json:"expiry"` // duration in milliseconds
}

// Options controls how an entry is written.
type Options struct {
	Expiry  time.Duration
	Version string
}

// Key builds a namespaced cache key:
// memomirror:{category}:{owner}:{repo}:{discriminators...}
func Key(category, owner, repo string, discriminators ...string) string {
	parts := append([]string{category, owner, repo}, discriminators...)
	return keyPrefix + strings.Join(parts, ":")
}

// IssuesKey is the composite key for a page of issues, including the
// label filter so differently-filtered pages never collide.
func IssuesKey(owner, repo string, page int, labels []string) string {
	return Key(CategoryIssues, owner, repo, fmt.Sprintf("%d", page), strings.Join(labels, ","))
}

// IssueKey is the key for a single issue.
func IssueKey(owner, repo string, number int) string {
	return Key(CategoryIssues, owner, repo, "one", fmt.Sprintf("%d", number))
}

// LabelsKey is the key for a repository's label list.
func LabelsKey(owner, repo string) string {
	return Key(CategoryLabels, owner, repo)
}

// ConfigKey is the key for the client-facing repo config.
func ConfigKey(owner, repo string) string {
	return Key(CategoryConfig, owner, repo)
}

// Stats describes the cache's current contents.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}
