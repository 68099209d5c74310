package scheduler

import (
	"context"
	"fmt"
	"time"
)

// weightedStrategy pairs a Strategy with the multiplier applied to every
// proposal it emits before merging.
type weightedStrategy struct {
	weight   float64
	strategy Strategy
}

// MergeStrategy combines proposals from several weighted strategies into
// one descending-score list.
type MergeStrategy struct {
	strategies []weightedStrategy
}

// NewMergeStrategy returns an empty MergeStrategy; use Add to register
// component strategies.
func NewMergeStrategy() *MergeStrategy {
	return &MergeStrategy{}
}

// Add registers a component strategy with the given weight. The weight is
// applied as given; a zero weight zeroes every score that strategy emits.
func (m *MergeStrategy) Add(strategy Strategy, weight float64) {
	m.strategies = append(m.strategies, weightedStrategy{weight: weight, strategy: strategy})
}

// GetProposals implements Strategy, collecting every component strategy's
// proposals, scaling by its weight, and sorting the merged set by
// descending score.
func (m *MergeStrategy) GetProposals(ctx context.Context, now time.Time) ([]Proposal, error) {
	var merged []Proposal

	for _, ws := range m.strategies {
		proposals, err := ws.strategy.GetProposals(ctx, now)
		if err != nil {
			return nil, fmt.Errorf("merge strategy: %w", err)
		}

		for _, p := range proposals {
			p.Score *= ws.weight
			merged = append(merged, p)
		}
	}

	sortByScoreDesc(merged)

	return merged, nil
}

var _ Strategy = (*MergeStrategy)(nil)
