package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/buildsched/buildsched/internal/vcsref"
)

func newShowStateCommand(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show-state",
		Short: "Print the tracker summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(gf)
			if err != nil {
				return err
			}
			defer a.obsShutdown()

			return runShowState(cmd.Context(), a)
		},
	}
}

func runShowState(ctx context.Context, a *app) error {
	head, err := a.tracker.Head(ctx)
	if err != nil {
		return fmt.Errorf("show-state: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"field", "value"})
	t.AppendRow(table.Row{"repo", a.cfg.Repo})
	t.AppendRow(table.Row{"branch", a.cfg.Branch})
	t.AppendRow(table.Row{"platform", a.cfg.Platform})
	t.AppendRow(table.Row{"head", head})

	pointers := []struct {
		name    string
		resolve func(context.Context) (vcsref.Hash, bool, error)
	}{
		{"last_good", a.tracker.LastGood},
		{"first_bad", a.tracker.FirstBad},
		{"last_bad", a.tracker.LastBad},
	}

	for _, p := range pointers {
		hash, ok, resolveErr := p.resolve(ctx)
		if resolveErr != nil {
			return fmt.Errorf("show-state: resolve %s: %w", p.name, resolveErr)
		}

		if !ok {
			t.AppendRow(table.Row{p.name, "<unset>"})

			continue
		}

		distance, distErr := a.adapter.Distance(ctx, hash, head)
		if distErr != nil {
			return fmt.Errorf("show-state: distance %s: %w", p.name, distErr)
		}

		t.AppendRow(table.Row{p.name, fmt.Sprintf("%s (%d behind head)", hash, distance)})
	}

	t.Render()

	return nil
}
