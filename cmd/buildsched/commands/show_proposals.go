package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/buildsched/buildsched/internal/scheduler"
)

func newShowProposalsCommand(gf *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show-proposals",
		Short: "Print ranked build candidates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(gf)
			if err != nil {
				return err
			}
			defer a.obsShutdown()

			proposals, err := a.mergeSched.GetProposals(cmd.Context(), time.Now())
			if err != nil {
				return fmt.Errorf("show-proposals: %w", err)
			}

			recordProposalMetrics(cmd.Context(), a, proposals)

			switch format {
			case "", "text":
				return renderProposalsTable(proposals)
			case "json":
				return renderProposalsJSON(proposals)
			case "yaml":
				return renderProposalsYAML(proposals)
			default:
				return fmt.Errorf("%w: %q", ErrInvalidFormat, format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json, or yaml")

	return cmd
}

// recordProposalMetrics groups proposals by strategy and reports their score
// distribution, so each strategy's activity shows up as its own metric
// series.
func recordProposalMetrics(ctx context.Context, a *app, proposals []scheduler.Proposal) {
	byStrategy := make(map[string][]float64)
	for _, p := range proposals {
		byStrategy[p.Strategy] = append(byStrategy[p.Strategy], p.Score)
	}

	for strategy, scores := range byStrategy {
		a.proposalMetrics.RecordProposals(ctx, strategy, scores)
	}
}

func renderProposalsTable(proposals []scheduler.Proposal) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"commit", "score", "strategy", "platform", "branch"})

	for _, p := range proposals {
		t.AppendRow(table.Row{p.Commit, fmt.Sprintf("%.4f", p.Score), p.Strategy, p.Platform, p.Branch})
	}

	t.Render()

	return nil
}

// serializableProposal is the portable representation shared by the JSON
// and YAML renderers (vcsref.Hash has no natural JSON/YAML encoding of its
// own).
type serializableProposal struct {
	Commit   string  `json:"commit" yaml:"commit"`
	Score    float64 `json:"score" yaml:"score"`
	Strategy string  `json:"strategy" yaml:"strategy"`
	Platform string  `json:"platform" yaml:"platform"`
	Branch   string  `json:"branch" yaml:"branch"`
}

func toSerializableProposals(proposals []scheduler.Proposal) []serializableProposal {
	out := make([]serializableProposal, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, serializableProposal{
			Commit:   p.Commit.String(),
			Score:    p.Score,
			Strategy: p.Strategy,
			Platform: p.Platform,
			Branch:   p.Branch,
		})
	}

	return out
}

func renderProposalsJSON(proposals []scheduler.Proposal) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(toSerializableProposals(proposals)); err != nil {
		return fmt.Errorf("show-proposals: encode json: %w", err)
	}

	return nil
}

func renderProposalsYAML(proposals []scheduler.Proposal) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()

	if err := enc.Encode(toSerializableProposals(proposals)); err != nil {
		return fmt.Errorf("show-proposals: encode yaml: %w", err)
	}

	return nil
}
