package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewCmdSync creates the sync command.
func NewCmdSync(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync issues and labels from GitHub into the local mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "issues page to sync")
	cmd.Flags().StringSliceVar(&opts.Labels, "labels", nil, "only sync issues carrying all of these labels")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "force a full sync regardless of sync history")

	return cmd
}

func runSync(cmd *cobra.Command, opts *Options) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.svc.GetIssues(cmd.Context(), opts.Page, opts.Labels, opts.Force)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Printf("%s %s/%s\n", green("synced"), rt.cfg.Owner, rt.cfg.Repo)
	if result.SyncStatus != nil {
		fmt.Printf("  issues synced: %s\n", bold(result.SyncStatus.TotalSynced))
		if result.SyncStatus.LastSyncAt != nil {
			fmt.Printf("  last sync:     %s\n", result.SyncStatus.LastSyncAt.Format("2006-01-02 15:04:05"))
		}
	}
	fmt.Printf("  issues total:  %d\n", result.Total)

	for _, issue := range result.Issues {
		state := issue.State
		if state == "open" {
			state = green(state)
		}
		fmt.Printf("  #%-5d %s  %s\n", issue.Number, state, issue.Title)
	}

	fmt.Printf("  cache entries: %d\n", rt.svc.CacheStats().Size)
	return nil
}
