package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Server settings
	ListenAddr string `yaml:"listen_addr,omitempty"`
	DBPath     string `yaml:"db_path,omitempty"`

	// Mirrored repository
	Owner         string `yaml:"owner,omitempty"`
	Repo          string `yaml:"repo,omitempty"`
	IssuesPerPage int    `yaml:"issues_per_page,omitempty"`

	// Cache tuning
	CacheCapacity int `yaml:"cache_capacity,omitempty"`
}

// Defaults applied when neither config file nor environment sets a value.
const (
	DefaultListenAddr    = ":8799"
	DefaultIssuesPerPage = 50
	DefaultCacheCapacity = 1024
)

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".memomirror"
	}
	return filepath.Join(configDir, "memomirror")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".memomirror.yaml"
}

// DefaultDBPath returns the default sqlite database location.
func DefaultDBPath() string {
	return filepath.Join(DefaultConfigDir(), "memomirror.db")
}

// Load loads the configuration from disk and environment.
// It first loads the global config from the XDG config directory, then
// merges any local .memomirror.yaml on top (local values take
// precedence), then applies environment overrides on top of both.
func Load() (*Config, error) {
	cfg := &Config{}

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}
		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}
		cfg = mergeConfig(cfg, &localCfg)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{}

	if local.ListenAddr != "" {
		result.ListenAddr = local.ListenAddr
	} else {
		result.ListenAddr = global.ListenAddr
	}

	if local.DBPath != "" {
		result.DBPath = local.DBPath
	} else {
		result.DBPath = global.DBPath
	}

	if local.Owner != "" {
		result.Owner = local.Owner
	} else {
		result.Owner = global.Owner
	}

	if local.Repo != "" {
		result.Repo = local.Repo
	} else {
		result.Repo = global.Repo
	}

	if local.IssuesPerPage > 0 {
		result.IssuesPerPage = local.IssuesPerPage
	} else {
		result.IssuesPerPage = global.IssuesPerPage
	}

	if local.CacheCapacity > 0 {
		result.CacheCapacity = local.CacheCapacity
	} else {
		result.CacheCapacity = global.CacheCapacity
	}

	return result
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MEMOMIRROR_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("MEMOMIRROR_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("MEMOMIRROR_OWNER"); v != "" {
		c.Owner = v
	}
	if v := os.Getenv("MEMOMIRROR_REPO"); v != "" {
		c.Repo = v
	}
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath()
	}
	if c.IssuesPerPage <= 0 {
		c.IssuesPerPage = DefaultIssuesPerPage
	}
	if c.CacheCapacity <= 0 {
		c.CacheCapacity = DefaultCacheCapacity
	}
}

// GetGitHubToken returns the GitHub token from the GITHUB_TOKEN environment variable.
// Following 12-factor app best practices, tokens are only read from the environment.
func (c *Config) GetGitHubToken() string {
	return os.Getenv("GITHUB_TOKEN")
}

// GetSecretKey returns the passphrase used to derive the token
// encryption key. Only read from the environment, never from disk.
func (c *Config) GetSecretKey() string {
	return os.Getenv("MEMOMIRROR_SECRET_KEY")
}

// GetAdminPassword returns the password that gates write access over the
// HTTP API. Only read from the environment, never from disk.
func (c *Config) GetAdminPassword() string {
	return os.Getenv("MEMOMIRROR_ADMIN_PASSWORD")
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configDir := DefaultConfigDir()

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# memomirror configuration file

# Repository to mirror
# owner: octocat
# repo: hello-world

# HTTP listen address
listen_addr: ":8799"

# SQLite database path (defaults to the config directory)
# db_path: /var/lib/memomirror/memomirror.db

# Issues fetched per page
issues_per_page: 50

# In-memory cache entry capacity
cache_capacity: 1024
`
}
