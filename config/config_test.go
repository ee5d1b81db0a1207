package config

import (
	"strings"
	"testing"
)

func TestMergeConfigLocalWins(t *testing.T) {
	global := &Config{
		ListenAddr:    ":9000",
		Owner:         "octo",
		Repo:          "memos",
		IssuesPerPage: 25,
		CacheCapacity: 512,
	}
	local := &Config{
		Owner: "other",
		Repo:  "notes",
	}

	merged := mergeConfig(global, local)

	if merged.Owner != "other" || merged.Repo != "notes" {
		t.Errorf("expected local repo to win, got %s/%s", merged.Owner, merged.Repo)
	}
	if merged.ListenAddr != ":9000" {
		t.Errorf("expected global listen addr preserved, got %q", merged.ListenAddr)
	}
	if merged.IssuesPerPage != 25 || merged.CacheCapacity != 512 {
		t.Errorf("expected global numeric values preserved, got %d/%d", merged.IssuesPerPage, merged.CacheCapacity)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("expected default listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.IssuesPerPage != DefaultIssuesPerPage {
		t.Errorf("expected default page size, got %d", cfg.IssuesPerPage)
	}
	if cfg.CacheCapacity != DefaultCacheCapacity {
		t.Errorf("expected default cache capacity, got %d", cfg.CacheCapacity)
	}
	if cfg.DBPath == "" {
		t.Error("expected default db path")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MEMOMIRROR_OWNER", "envowner")
	t.Setenv("MEMOMIRROR_REPO", "envrepo")
	t.Setenv("MEMOMIRROR_LISTEN_ADDR", ":1234")

	cfg := &Config{Owner: "fileowner", Repo: "filerepo", ListenAddr: ":9000"}
	cfg.applyEnv()

	if cfg.Owner != "envowner" || cfg.Repo != "envrepo" {
		t.Errorf("expected environment to win, got %s/%s", cfg.Owner, cfg.Repo)
	}
	if cfg.ListenAddr != ":1234" {
		t.Errorf("expected env listen addr, got %q", cfg.ListenAddr)
	}
}

func TestSecretsComeFromEnvironmentOnly(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("MEMOMIRROR_SECRET_KEY", "passphrase")
	t.Setenv("MEMOMIRROR_ADMIN_PASSWORD", "hunter2")

	cfg := &Config{}
	if cfg.GetGitHubToken() != "ghp_test" {
		t.Error("expected token from environment")
	}
	if cfg.GetSecretKey() != "passphrase" {
		t.Error("expected secret key from environment")
	}
	if cfg.GetAdminPassword() != "hunter2" {
		t.Error("expected admin password from environment")
	}

	// Secrets never round-trip through YAML.
	out, err := cfg.ToYAML()
	if err != nil {
		t.Fatal(err)
	}
	for _, secret := range []string{"ghp_test", "passphrase", "hunter2"} {
		if strings.Contains(out, secret) {
			t.Errorf("secret %q leaked into serialized config", secret)
		}
	}
}
