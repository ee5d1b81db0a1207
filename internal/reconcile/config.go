package reconcile

import (
	"context"
	"fmt"

	"github.com/memohq/memomirror/internal/model"
)

// Config resolves the repo config with precedence environment > store.
// The token is always returned encrypted; when it is sourced from the
// store it is decrypted and re-encrypted even if it was already
// ciphertext, normalizing against key rotation and legacy plaintext
// rows. Plaintext is never cached or returned.
func (s *Service) Config(ctx context.Context, includeToken bool) (model.RepoConfig, error) {
	cfg, err := s.resolveConfig(ctx)
	if err != nil {
		return model.RepoConfig{}, err
	}
	if !includeToken {
		return cfg.ClientView(), nil
	}
	return cfg, nil
}

func (s *Service) resolveConfig(ctx context.Context) (model.RepoConfig, error) {
	if s.env.Owner != "" && s.env.Repo != "" {
		cfg := model.RepoConfig{
			Owner:         s.env.Owner,
			Repo:          s.env.Repo,
			IssuesPerPage: s.env.IssuesPerPage,
		}
		if s.env.Token != "" {
			encrypted, err := s.keeper.Encrypt(s.env.Token)
			if err != nil {
				return model.RepoConfig{}, fmt.Errorf("failed to encrypt token: %w", err)
			}
			cfg.Token = encrypted
		}
		return cfg, nil
	}

	stored, err := s.mirror.GetRepoConfig(ctx, s.owner, s.repo)
	if err != nil {
		return model.RepoConfig{}, err
	}
	if stored == nil {
		return model.RepoConfig{}, ErrConfigMissing
	}

	cfg := *stored
	if cfg.Token != "" {
		plaintext := cfg.Token
		if s.keeper.IsEncrypted(cfg.Token) {
			plaintext, err = s.keeper.Decrypt(cfg.Token)
			if err != nil {
				return model.RepoConfig{}, fmt.Errorf("failed to decrypt stored token: %w", err)
			}
		}
		// Re-encrypt unconditionally so legacy plaintext rows and
		// rotated keys converge on the current encryption state.
		cfg.Token, err = s.keeper.Encrypt(plaintext)
		if err != nil {
			return model.RepoConfig{}, fmt.Errorf("failed to re-encrypt token: %w", err)
		}
	}
	return cfg, nil
}
