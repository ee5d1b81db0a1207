package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/memohq/memomirror/internal/model"
)

// NewCmdHistory creates the history command.
func NewCmdHistory(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync attempts for the mirrored repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum records to show (default all retained)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *Options) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	records, err := rt.svc.SyncHistory(cmd.Context(), opts.Limit)
	if err != nil {
		return fmt.Errorf("failed to read sync history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No sync history yet.")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, r := range records {
		status := green(r.Status)
		if r.Status == model.SyncStatusFailed {
			status = red(r.Status)
		}
		line := fmt.Sprintf("%s  %-7s %-4s synced=%d",
			r.LastSyncAt.Format("2006-01-02 15:04:05"), status, r.SyncType, r.IssuesSynced)
		if r.ErrorMessage != nil {
			line += "  " + *r.ErrorMessage
		}
		fmt.Println(line)
	}
	return nil
}
