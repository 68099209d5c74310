package scheduler

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/buildsched/buildsched/internal/annotation"
	"github.com/buildsched/buildsched/internal/tracker"
	"github.com/buildsched/buildsched/internal/vcsref"
)

// strategyNameHead is recorded on every Proposal this strategy emits.
const strategyNameHead = "HeadStrategy"

// HeadStrategy favors commits closest to the branch head, continuing
// forward from the last build. With no prior build it proposes head alone.
type HeadStrategy struct {
	base
}

// NewHeadStrategy constructs a HeadStrategy for platform/branch.
func NewHeadStrategy(adapter vcsref.Adapter, store annotation.Accessor, trk *tracker.Tracker, platform, branch string) *HeadStrategy {
	return &HeadStrategy{base: base{Adapter: adapter, Store: store, Tracker: trk, Platform: platform, Branch: branch}}
}

// GetProposals implements Strategy.
func (h *HeadStrategy) GetProposals(ctx context.Context, now time.Time) ([]Proposal, error) {
	head, err := h.Tracker.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("head strategy: %w", err)
	}

	lastBuild, hasLastBuild, err := h.Tracker.LastBuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("head strategy: %w", err)
	}

	if !hasLastBuild {
		return []Proposal{h.makeProposal(strategyNameHead, 1.0, head)}, nil
	}

	commits, err := enumerate(ctx, h.Adapter, h.Store, lastBuild, head)
	if err != nil {
		return nil, fmt.Errorf("head strategy: %w", err)
	}

	n := len(commits)
	proposals := make([]Proposal, 0, n)

	for _, c := range commits {
		distance := float64(n) - float64(c.idx)
		score := 1 - 1/(math.Pow(distance, 2)+1)
		proposals = append(proposals, h.makeProposal(strategyNameHead, score, c.hash))
	}

	reduceAll := dampenRunning(commits, proposals, now)
	normalize(proposals, reduceAll)

	return proposals, nil
}

var _ Strategy = (*HeadStrategy)(nil)
