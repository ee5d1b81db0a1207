package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/memohq/memomirror/internal/log"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "memomirror",
		Short: "GitHub issues mirror with tiered caching",
		Long: `A service that mirrors a GitHub repository's issues and labels into
a local store, serving reads from an in-memory cache and SQLite before
falling back to the GitHub API.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Initialize(opts.Verbosity, os.Stderr)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v",
		"increase verbosity (-v info, -vv debug, -vvv trace)")

	rootCmd.AddCommand(NewCmdServe(opts))
	rootCmd.AddCommand(NewCmdSync(opts))
	rootCmd.AddCommand(NewCmdHistory(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdRateLimit())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
