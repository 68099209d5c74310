package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buildsched/buildsched/internal/transition"
)

func newSetCommitFinishedCommand(gf *globalFlags) *cobra.Command {
	var (
		result          string
		resultReference string
	)

	cmd := &cobra.Command{
		Use:   "set-commit-finished <commit>",
		Short: "Record a commit's build outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commit, err := parseCommit(args[0])
			if err != nil {
				return err
			}

			outcome, err := parseOutcome(result)
			if err != nil {
				return err
			}

			a, err := newApp(gf)
			if err != nil {
				return err
			}
			defer a.obsShutdown()

			if err := a.engine.SetFinished(cmd.Context(), commit, a.cfg.Builder, outcome, resultReference); err != nil {
				return fmt.Errorf("set-commit-finished: %w", err)
			}

			a.transitionMetrics.RecordOutcome(cmd.Context(), string(outcome))
			a.logger.Info("commit finished", "commit", commit, "outcome", string(outcome))
			fmt.Fprintf(cmd.OutOrStdout(), "set-commit-finished: %s -> %s\n", commit, result)

			return nil
		},
	}

	cmd.Flags().StringVar(&result, "result", "", "build result: good or bad")
	cmd.Flags().StringVar(&resultReference, "result-reference", "", "opaque artifact reference for this build")

	return cmd
}

func parseOutcome(raw string) (transition.Outcome, error) {
	switch strings.ToLower(raw) {
	case "good":
		return transition.OutcomeGood, nil
	case "bad":
		return transition.OutcomeBad, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidResult, raw)
	}
}
