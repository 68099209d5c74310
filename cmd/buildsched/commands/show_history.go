package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/buildsched/buildsched/internal/state"
	"github.com/buildsched/buildsched/internal/vcsref"
)

func newShowHistoryCommand(gf *globalFlags) *cobra.Command {
	var historyCount int

	cmd := &cobra.Command{
		Use:   "show-history",
		Short: "Print the N newest commits and their recorded state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(gf)
			if err != nil {
				return err
			}
			defer a.obsShutdown()

			ctx := cmd.Context()

			head, err := a.tracker.Head(ctx)
			if err != nil {
				return fmt.Errorf("show-history: %w", err)
			}

			commits, err := newestNCommits(ctx, a, head, historyCount)
			if err != nil {
				return fmt.Errorf("show-history: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"commit", "state", "builder", "started", "finished", "age"})

			for _, commit := range commits {
				cs, getErr := a.store.GetState(ctx, commit)
				if getErr != nil {
					return fmt.Errorf("show-history: %w", getErr)
				}

				t.AppendRow(table.Row{
					commit, cs.State, cs.Builder,
					formatTimestamp(cs.Started), formatTimestamp(cs.Finished),
					relativeAge(cs.Finished),
				})
			}

			t.Render()

			return nil
		},
	}

	cmd.Flags().IntVar(&historyCount, "history-count", 20, "number of newest commits to print")

	return cmd
}

// newestNCommits returns the N newest commits at/before head, newest first.
func newestNCommits(ctx context.Context, a *app, head vcsref.Hash, n int) ([]vcsref.Hash, error) {
	all, err := a.adapter.ListCommits(ctx, vcsref.ZeroHash(), head)
	if err != nil {
		return nil, err
	}

	if n > 0 && n < len(all) {
		all = all[:n]
	}

	return all, nil
}

// formatTimestamp renders an optional state.Timestamp, or "-" when unset.
func formatTimestamp(ts *state.Timestamp) string {
	if ts == nil {
		return "-"
	}

	return ts.Time.Format("2006-01-02T15:04:05Z07:00")
}

// relativeAge renders an optional state.Timestamp as a human-friendly
// relative duration ("3 hours ago"), or "-" when unset.
func relativeAge(ts *state.Timestamp) string {
	if ts == nil {
		return "-"
	}

	return humanize.Time(ts.Time)
}
