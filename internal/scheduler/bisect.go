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

// strategyNameBisect is recorded on every Proposal this strategy emits.
const strategyNameBisect = "BisectStrategy"

// BisectStrategy favors the commit that best splits the open
// last_good..first_bad range, i.e. the midpoint. With no open bisection
// (either pointer unset) it proposes nothing.
type BisectStrategy struct {
	base
}

// NewBisectStrategy constructs a BisectStrategy for platform/branch.
func NewBisectStrategy(adapter vcsref.Adapter, store annotation.Accessor, trk *tracker.Tracker, platform, branch string) *BisectStrategy {
	return &BisectStrategy{base: base{Adapter: adapter, Store: store, Tracker: trk, Platform: platform, Branch: branch}}
}

// GetProposals implements Strategy.
func (b *BisectStrategy) GetProposals(ctx context.Context, now time.Time) ([]Proposal, error) {
	lastGood, hasLastGood, err := b.Tracker.LastGood(ctx)
	if err != nil {
		return nil, fmt.Errorf("bisect strategy: %w", err)
	}

	firstBad, hasFirstBad, err := b.Tracker.FirstBad(ctx)
	if err != nil {
		return nil, fmt.Errorf("bisect strategy: %w", err)
	}

	if !hasLastGood || !hasFirstBad {
		return nil, nil
	}

	// (lastGood, firstBad] newest-first, then drop first_bad itself to get
	// the strictly-interior bisectable range.
	full, err := enumerate(ctx, b.Adapter, b.Store, lastGood, firstBad)
	if err != nil {
		return nil, fmt.Errorf("bisect strategy: %w", err)
	}

	if len(full) == 0 {
		return nil, nil
	}

	commits := full[1:]
	n := len(commits)

	proposals := make([]Proposal, 0, n)

	for i, c := range commits {
		idx := float64(i)
		score := 1.0
		score *= 1 - 1/(math.Pow(idx, 2)+1)
		score *= 1 - 1/(math.Pow(idx-float64(n), 2)+1)

		proposals = append(proposals, b.makeProposal(strategyNameBisect, score, c.hash))
	}

	// Re-index the dampening pass against the trimmed, re-numbered range.
	reindexed := make([]commitEntry, len(commits))
	for i, c := range commits {
		reindexed[i] = commitEntry{idx: i, hash: c.hash, state: c.state}
	}

	reduceAll := dampenRunning(reindexed, proposals, now)
	normalize(proposals, reduceAll)

	return proposals, nil
}

var _ Strategy = (*BisectStrategy)(nil)
