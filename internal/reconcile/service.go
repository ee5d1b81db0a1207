// Package reconcile is the decision engine of the mirror: given a
// request for issues or labels, it decides whether the local cache, the
// persisted store, or the remote source answers it, drives incremental
// and full synchronization, and writes results back through the tiers
// in order (store before cache before sync record) so a crash can never
// leave the disposable cache ahead of the durable store.
package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/memohq/memomirror/internal/cache"
	"github.com/memohq/memomirror/internal/log"
	"github.com/memohq/memomirror/internal/model"
	"github.com/memohq/memomirror/internal/secret"
)

// ErrConfigMissing is returned when no repo config can be resolved from
// the environment or the store.
var ErrConfigMissing = errors.New("repository not configured")

// Service orchestrates the cache, store, and remote tiers for one
// mirrored repository. It owns no persistent state itself.
type Service struct {
	owner   string
	repo    string
	perPage int

	cache  cache.Cacher
	mirror Mirror
	remote Remote
	keeper *secret.Keeper

	// env carries the environment-sourced repo config, which takes
	// precedence over the persisted row. Token is plaintext here and
	// never stored or returned without encryption.
	env model.RepoConfig
}

// Options configures a Service.
type Options struct {
	Owner         string
	Repo          string
	IssuesPerPage int
	EnvToken      string // plaintext token from the environment, may be empty
}

// New creates a Service. The cache is injected, never reached through
// package state, so tests can substitute a fake clock behind it.
func New(opts Options, mirror Mirror, c cache.Cacher, remote Remote, keeper *secret.Keeper) *Service {
	perPage := opts.IssuesPerPage
	if perPage <= 0 {
		perPage = 50
	}
	return &Service{
		owner:   opts.Owner,
		repo:    opts.Repo,
		perPage: perPage,
		cache:   c,
		mirror:  mirror,
		remote:  remote,
		keeper:  keeper,
		env: model.RepoConfig{
			Owner:         opts.Owner,
			Repo:          opts.Repo,
			IssuesPerPage: perPage,
			Token:         opts.EnvToken,
		},
	}
}

// SyncOutcome reports how a request's synchronization went.
type SyncOutcome struct {
	Success     bool       `json:"success"`
	TotalSynced int        `json:"totalSynced"`
	LastSyncAt  *time.Time `json:"lastSyncAt"`
}

// IssuesResult is the response payload for an issues request.
type IssuesResult struct {
	Issues     []model.Issue `json:"issues"`
	Total      int           `json:"total"`
	SyncStatus *SyncOutcome  `json:"syncStatus"`
}

// cachedPage is the serialized shape of one issues page in the cache.
type cachedPage struct {
	Issues []model.Issue `json:"issues"`
	Total  int           `json:"total"`
}

// GetIssues serves one page of issues through the tiered lookup:
//
//	CHECK_SYNC_STATUS -> DECIDE_MODE -> {TRY_CACHE, TRY_STORE, FETCH_REMOTE}
//	-> PERSIST -> RESPOND
//
// A full sync happens when forced or when no sync has ever completed;
// otherwise cache and store are consulted before the remote, and an
// incremental fetch returning zero changes is a successful steady
// state, not an error.
func (s *Service) GetIssues(ctx context.Context, page int, labels []string, force bool) (IssuesResult, error) {
	if page < 1 {
		page = 1
	}

	status, err := s.mirror.CheckSyncStatus(ctx, s.owner, s.repo)
	if err != nil {
		return IssuesResult{}, err
	}

	isFullSync := force || status.LastSyncAt == nil

	if !isFullSync {
		key := cache.IssuesKey(s.owner, s.repo, page, labels)

		var cached cachedPage
		if s.cache.Get(key, &cached) {
			log.Debug("issues served from cache", "page", page)
			// The check still moves the "last checked" clock, without
			// claiming new data was synced.
			s.recordSyncQuiet(ctx, model.SyncStatusSuccess, 0, nil, model.SyncTypeAdd)
			return s.respond(ctx, cached.Issues, cached.Total, 0), nil
		}

		pageData, err := s.mirror.GetIssues(ctx, s.owner, s.repo, page, labels)
		if err != nil {
			return IssuesResult{}, err
		}
		if len(pageData.Issues) > 0 {
			log.Debug("issues served from store", "page", page, "count", len(pageData.Issues))
			s.cache.Set(key, cachedPage{Issues: pageData.Issues, Total: pageData.Total},
				cache.Options{Expiry: cache.IssuesTTL})
			s.recordSyncQuiet(ctx, model.SyncStatusSuccess, 0, nil, model.SyncTypeAdd)
			return s.respond(ctx, pageData.Issues, pageData.Total, 0), nil
		}
	}

	result, err := s.syncIssues(ctx, page, labels, isFullSync, status.LastSyncAt)
	if err != nil {
		msg := err.Error()
		s.recordSyncQuiet(ctx, model.SyncStatusFailed, 0, &msg, syncType(isFullSync))
		return IssuesResult{}, err
	}
	return result, nil
}

// syncIssues performs FETCH_REMOTE -> PERSIST -> RESPOND. The store and
// cache are only written after a complete, successful remote fetch;
// they keep their last-known-good contents on any failure.
func (s *Service) syncIssues(ctx context.Context, page int, labels []string, isFullSync bool, lastSyncAt *time.Time) (IssuesResult, error) {
	var since time.Time
	if !isFullSync && lastSyncAt != nil {
		since = *lastSyncAt
	}

	var issues []model.Issue
	var remoteLabels []model.Label

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		issues, err = s.remote.ListIssues(gctx, s.owner, s.repo, page, s.perPage, labels, since)
		return err
	})
	if isFullSync {
		// A full pass also refreshes the label table so joins have
		// authoritative colors and descriptions.
		g.Go(func() error {
			var err error
			remoteLabels, err = s.remote.ListLabels(gctx, s.owner, s.repo)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return IssuesResult{}, err
	}

	if len(issues) == 0 && !isFullSync {
		// No upstream changes: a valid, expected steady state.
		log.Debug("incremental sync found no changes")
		s.recordSyncQuiet(ctx, model.SyncStatusSuccess, 0, nil, model.SyncTypeAdd)
		return s.respond(ctx, []model.Issue{}, 0, 0), nil
	}

	// PERSIST: store first, then cache, then the sync record.
	if err := s.mirror.UpsertLabels(ctx, s.owner, s.repo, collectLabels(issues, remoteLabels)); err != nil {
		return IssuesResult{}, err
	}
	if err := s.mirror.UpsertIssues(ctx, s.owner, s.repo, issues); err != nil {
		return IssuesResult{}, err
	}

	pageData, err := s.mirror.GetIssues(ctx, s.owner, s.repo, page, labels)
	if err != nil {
		return IssuesResult{}, err
	}

	key := cache.IssuesKey(s.owner, s.repo, page, labels)
	s.cache.Set(key, cachedPage{Issues: pageData.Issues, Total: pageData.Total},
		cache.Options{Expiry: cache.IssuesTTL})

	if err := s.mirror.RecordSync(ctx, s.owner, s.repo, model.SyncStatusSuccess, len(issues), nil, syncType(isFullSync)); err != nil {
		return IssuesResult{}, err
	}

	log.Info("sync complete", "type", syncType(isFullSync), "synced", len(issues))
	return s.respond(ctx, pageData.Issues, pageData.Total, len(issues)), nil
}

// respond builds the response payload, attaching the freshest sync
// status the store will report.
func (s *Service) respond(ctx context.Context, issues []model.Issue, total, synced int) IssuesResult {
	outcome := &SyncOutcome{Success: true, TotalSynced: synced}
	if status, err := s.mirror.CheckSyncStatus(ctx, s.owner, s.repo); err == nil {
		outcome.LastSyncAt = status.LastSyncAt
	}
	if issues == nil {
		issues = []model.Issue{}
	}
	return IssuesResult{Issues: issues, Total: total, SyncStatus: outcome}
}

// recordSyncQuiet appends a sync record best-effort: a failure to
// record must never fail the request being served.
func (s *Service) recordSyncQuiet(ctx context.Context, status string, synced int, errorMessage *string, syncType string) {
	if err := s.mirror.RecordSync(ctx, s.owner, s.repo, status, synced, errorMessage, syncType); err != nil {
		log.Warn("failed to record sync", "owner", s.owner, "repo", s.repo, "error", err)
	}
}

// SyncStatus reports the latest sync record for the repo.
func (s *Service) SyncStatus(ctx context.Context) (model.SyncStatus, error) {
	return s.mirror.CheckSyncStatus(ctx, s.owner, s.repo)
}

// SyncHistory returns up to limit recent sync records for the repo.
func (s *Service) SyncHistory(ctx context.Context, limit int) ([]model.SyncRecord, error) {
	return s.mirror.SyncHistory(ctx, s.owner, s.repo, limit)
}

// CacheStats reports the cache's current size and keys.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ClearCache drops every cached entry. The store is untouched.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// invalidateIssuePages removes every cached issues page for the repo.
// Walking the cache's own stats keeps the scan scoped to our keys.
func (s *Service) invalidateIssuePages() {
	prefix := cache.Key(cache.CategoryIssues, s.owner, s.repo)
	for _, key := range s.cache.Stats().Keys {
		if strings.HasPrefix(key, prefix) {
			s.cache.Remove(key)
		}
	}
}

// collectLabels merges the labels embedded in fetched issues with an
// optional authoritative remote label list, deduplicated by name.
func collectLabels(issues []model.Issue, remoteLabels []model.Label) []model.Label {
	seen := make(map[string]bool)
	var labels []model.Label
	for _, l := range remoteLabels {
		if !seen[l.Name] {
			seen[l.Name] = true
			labels = append(labels, l)
		}
	}
	for _, issue := range issues {
		for _, l := range issue.Labels {
			if !seen[l.Name] {
				seen[l.Name] = true
				labels = append(labels, l)
			}
		}
	}
	return labels
}

func syncType(isFullSync bool) string {
	if isFullSync {
		return model.SyncTypeFull
	}
	return model.SyncTypeAdd
}
