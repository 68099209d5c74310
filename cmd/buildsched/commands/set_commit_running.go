package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSetCommitRunningCommand(gf *globalFlags) *cobra.Command {
	var estimatedMinutes int

	cmd := &cobra.Command{
		Use:   "set-commit-running <commit>",
		Short: "Record that a commit has started building",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commit, err := parseCommit(args[0])
			if err != nil {
				return err
			}

			a, err := newApp(gf)
			if err != nil {
				return err
			}
			defer a.obsShutdown()

			estimated := time.Duration(estimatedMinutes) * time.Minute

			if err := a.engine.SetScheduled(cmd.Context(), commit, a.cfg.Builder, estimated); err != nil {
				return fmt.Errorf("set-commit-running: %w", err)
			}

			a.transitionMetrics.RecordOutcome(cmd.Context(), "RUNNING")
			a.logger.Info("commit running", "commit", commit, "builder", a.cfg.Builder, "estimate", estimated)
			fmt.Fprintf(cmd.OutOrStdout(), "set-commit-running: %s -> RUNNING (%s)\n", commit, a.cfg.Builder)

			return nil
		},
	}

	cmd.Flags().IntVar(&estimatedMinutes, "estimated-duration", 0, "estimated build duration in minutes")

	return cmd
}
