package reconcile

import (
	"context"

	"github.com/memohq/memomirror/internal/cache"
	"github.com/memohq/memomirror/internal/log"
	"github.com/memohq/memomirror/internal/model"
)

// GetLabels serves the repository's labels through the tiered lookup.
func (s *Service) GetLabels(ctx context.Context) ([]model.Label, error) {
	key := cache.LabelsKey(s.owner, s.repo)

	var cached []model.Label
	if s.cache.Get(key, &cached) {
		log.Debug("labels served from cache")
		return cached, nil
	}

	stored, err := s.mirror.GetLabels(ctx, s.owner, s.repo)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		s.cache.Set(key, stored, cache.Options{Expiry: cache.LabelsTTL})
		return stored, nil
	}

	fetched, err := s.remote.ListLabels(ctx, s.owner, s.repo)
	if err != nil {
		return nil, err
	}

	if err := s.mirror.UpsertLabels(ctx, s.owner, s.repo, fetched); err != nil {
		return nil, err
	}

	stored, err = s.mirror.GetLabels(ctx, s.owner, s.repo)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, stored, cache.Options{Expiry: cache.LabelsTTL})
	return stored, nil
}

// CreateLabel creates the label upstream, mirrors it, and invalidates
// the cached label list. Requires a write-capable credential.
func (s *Service) CreateLabel(ctx context.Context, name, color string, description *string) (model.Label, error) {
	created, err := s.remote.CreateLabel(ctx, s.owner, s.repo, name, color, description)
	if err != nil {
		return model.Label{}, err
	}

	if err := s.mirror.UpsertLabel(ctx, s.owner, s.repo, created); err != nil {
		return model.Label{}, err
	}

	s.cache.Remove(cache.LabelsKey(s.owner, s.repo))
	return created, nil
}
