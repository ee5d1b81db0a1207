package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/memohq/memomirror/config"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage memomirror configuration",
	}

	cmd.AddCommand(newCmdConfigShow())
	cmd.AddCommand(newCmdConfigInit())
	cmd.AddCommand(newCmdConfigPath())

	return cmd
}

func newCmdConfigShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE:  runConfigShow,
	}
}

func newCmdConfigInit() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE:  runConfigInit,
	}
}

func newCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file locations",
		RunE:  runConfigPath,
	}
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out, err := cfg.ToYAML()
	if err != nil {
		return err
	}
	fmt.Print(out)

	// Secrets are environment-only and shown by presence, never value.
	fmt.Printf("github_token: %s\n", redacted(cfg.GetGitHubToken()))
	fmt.Printf("secret_key: %s\n", redacted(cfg.GetSecretKey()))
	fmt.Printf("admin_password: %s\n", redacted(cfg.GetAdminPassword()))
	return nil
}

func redacted(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "(set)"
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(config.DefaultConfigDir(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.MinimalConfig()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	info := config.GetConfigPaths()
	fmt.Printf("global: %s (exists: %t)\n", info.GlobalPath, info.GlobalExists)
	fmt.Printf("local:  %s (exists: %t)\n", info.LocalPath, info.LocalExists)
	return nil
}
