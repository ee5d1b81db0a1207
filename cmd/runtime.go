package cmd

import (
	"context"
	"fmt"

	"github.com/memohq/memomirror/config"
	"github.com/memohq/memomirror/internal/cache"
	"github.com/memohq/memomirror/internal/github"
	"github.com/memohq/memomirror/internal/reconcile"
	"github.com/memohq/memomirror/internal/secret"
	"github.com/memohq/memomirror/internal/store"
)

// runtime bundles the wired-up application stack for one command run.
type runtime struct {
	cfg    *config.Config
	store  *store.Store
	cache  *cache.Cache
	keeper *secret.Keeper
	svc    *reconcile.Service
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("no repository configured: set owner and repo in %s or MEMOMIRROR_OWNER/MEMOMIRROR_REPO", config.ConfigPath())
	}

	keeper, err := secret.NewKeeper(cfg.GetSecretKey())
	if err != nil {
		return nil, fmt.Errorf("MEMOMIRROR_SECRET_KEY is required: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.DBPath, err)
	}

	token := cfg.GetGitHubToken()
	client := github.NewClient(ctx, token)
	c := cache.New(cfg.CacheCapacity)

	svc := reconcile.New(reconcile.Options{
		Owner:         cfg.Owner,
		Repo:          cfg.Repo,
		IssuesPerPage: cfg.IssuesPerPage,
		EnvToken:      token,
	}, st, c, client, keeper)

	return &runtime{cfg: cfg, store: st, cache: c, keeper: keeper, svc: svc}, nil
}

func (r *runtime) Close() error {
	return r.store.Close()
}
