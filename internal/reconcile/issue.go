package reconcile

import (
	"context"

	"github.com/memohq/memomirror/internal/cache"
	"github.com/memohq/memomirror/internal/log"
	"github.com/memohq/memomirror/internal/model"
)

// GetIssue serves a single issue through the same tiered lookup as
// pages (cache, store, remote) at single-key granularity. There is no
// full/incremental distinction for one resource.
func (s *Service) GetIssue(ctx context.Context, number int) (model.Issue, error) {
	key := cache.IssueKey(s.owner, s.repo, number)

	var cached model.Issue
	if s.cache.Get(key, &cached) {
		log.Debug("issue served from cache", "number", number)
		return cached, nil
	}

	stored, err := s.mirror.GetIssue(ctx, s.owner, s.repo, number)
	if err != nil {
		return model.Issue{}, err
	}
	if stored != nil {
		s.cache.Set(key, *stored, cache.Options{Expiry: cache.IssuesTTL})
		return *stored, nil
	}

	fetched, err := s.remote.GetIssue(ctx, s.owner, s.repo, number)
	if err != nil {
		return model.Issue{}, err
	}

	if err := s.persistIssue(ctx, fetched); err != nil {
		return model.Issue{}, err
	}

	stored, err = s.mirror.GetIssue(ctx, s.owner, s.repo, number)
	if err != nil {
		return model.Issue{}, err
	}
	s.cache.Set(key, *stored, cache.Options{Expiry: cache.IssuesTTL})
	return *stored, nil
}

// CreateIssue creates the issue upstream, mirrors it, and invalidates
// the cached issue pages it would appear on. Requires a write-capable
// credential on the remote client.
func (s *Service) CreateIssue(ctx context.Context, title string, body *string, labelNames []string) (model.Issue, error) {
	created, err := s.remote.CreateIssue(ctx, s.owner, s.repo, title, body, labelNames)
	if err != nil {
		return model.Issue{}, err
	}

	if err := s.persistIssue(ctx, created); err != nil {
		return model.Issue{}, err
	}

	s.invalidateIssuePages()
	return s.GetIssue(ctx, created.Number)
}

// UpdateIssue updates the issue upstream, mirrors the result, and
// refreshes the caches. Nil fields are left unchanged upstream.
func (s *Service) UpdateIssue(ctx context.Context, number int, title, body, state *string, labelNames []string) (model.Issue, error) {
	updated, err := s.remote.UpdateIssue(ctx, s.owner, s.repo, number, title, body, state, labelNames)
	if err != nil {
		return model.Issue{}, err
	}

	if err := s.persistIssue(ctx, updated); err != nil {
		return model.Issue{}, err
	}

	s.invalidateIssuePages()
	s.cache.Remove(cache.IssueKey(s.owner, s.repo, number))
	return s.GetIssue(ctx, number)
}

// persistIssue upserts an issue and the labels it carries, store
// before cache ordering preserved by the callers.
func (s *Service) persistIssue(ctx context.Context, issue model.Issue) error {
	if err := s.mirror.UpsertLabels(ctx, s.owner, s.repo, collectLabels([]model.Issue{issue}, nil)); err != nil {
		return err
	}
	return s.mirror.UpsertIssue(ctx, s.owner, s.repo, issue)
}
