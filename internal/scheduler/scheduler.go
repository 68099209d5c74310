// Package scheduler ranks candidate commits for build scheduling. Each
// Strategy proposes commits with a relative score; HeadStrategy favors
// recent commits on top of the last build, BisectStrategy favors commits
// that best split an open good/bad range, and MergeStrategy combines
// several weighted strategies into one ranked list.
package scheduler

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/buildsched/buildsched/internal/annotation"
	"github.com/buildsched/buildsched/internal/state"
	"github.com/buildsched/buildsched/internal/tracker"
	"github.com/buildsched/buildsched/internal/vcsref"
)

// Proposal is one candidate commit to build, with a relative score - higher
// is more urgent. Scores are only meaningful relative to other proposals
// from the same Strategy.
type Proposal struct {
	Score    float64
	Commit   vcsref.Hash
	Strategy string
	Platform string
	Branch   string
}

// Strategy proposes commits to build at the given instant.
type Strategy interface {
	GetProposals(ctx context.Context, now time.Time) ([]Proposal, error)
}

// base holds the collaborators every concrete strategy needs.
type base struct {
	Adapter  vcsref.Adapter
	Store    annotation.Accessor
	Tracker  *tracker.Tracker
	Platform string
	Branch   string
}

func (b base) makeProposal(name string, score float64, commit vcsref.Hash) Proposal {
	return Proposal{Score: score, Commit: commit, Strategy: name, Platform: b.Platform, Branch: b.Branch}
}

// commitEntry is one commit in an enumerated range, tagged with its
// position (0 = newest) and its recorded build state.
type commitEntry struct {
	idx   int
	hash  vcsref.Hash
	state state.CommitState
}

// enumerate lists the commits in (fromExclusive, toInclusive] newest-first,
// annotated with their current recorded state, indexed from 0.
func enumerate(
	ctx context.Context, adapter vcsref.Adapter, store annotation.Accessor, fromExclusive, toInclusive vcsref.Hash,
) ([]commitEntry, error) {
	hashes, err := adapter.ListCommits(ctx, fromExclusive, toInclusive)
	if err != nil {
		return nil, fmt.Errorf("enumerate commits: %w", err)
	}

	entries := make([]commitEntry, 0, len(hashes))

	for i, h := range hashes {
		cs, getErr := store.GetState(ctx, h)
		if getErr != nil {
			return nil, fmt.Errorf("enumerate commits: %w", getErr)
		}

		entries = append(entries, commitEntry{idx: i, hash: h, state: cs})
	}

	return entries, nil
}

// dampenRunning reduces the score of proposals near any commit that is
// currently RUNNING. The reduction is strongest for a freshly started build
// and weakens as its running time grows relative to its estimated
// duration. It returns the aggregate score reduction still
// owed to the whole proposal set by normalize.
func dampenRunning(commits []commitEntry, proposals []Proposal, now time.Time) float64 {
	reduceAll := 0.0

	for _, commit := range commits {
		if commit.state.State != state.Running {
			continue
		}

		if commit.state.Started == nil || commit.state.EstimatedDuration == nil {
			continue
		}

		runningTime := now.Sub(commit.state.Started.Time)
		if runningTime < 0 {
			runningTime = 0
		}

		estimated := commit.state.EstimatedDuration.Duration
		if estimated <= 0 {
			continue
		}

		timeDistance := runningTime.Seconds() / estimated.Seconds()

		for idx := range proposals {
			indexDistance := math.Abs(float64(commit.idx - idx))
			proposals[idx].Score *= 1 - 1/(math.Pow(indexDistance+timeDistance, 2)+1)
		}

		reduceAll -= math.Exp(-math.Pow(timeDistance, 2))
	}

	return reduceAll
}

// normalize rescales proposals so the highest score becomes
// len(proposals)+offset, preserving relative ordering. A non-positive max
// score (or an empty set) leaves the proposals untouched.
func normalize(proposals []Proposal, offset float64) {
	if len(proposals) == 0 {
		return
	}

	maxScore := 0.0

	for _, p := range proposals {
		maxScore = math.Max(maxScore, p.Score)
	}

	if maxScore <= 0 {
		return
	}

	multiplier := (float64(len(proposals)) + offset) / maxScore

	for idx := range proposals {
		proposals[idx].Score *= multiplier
	}
}

// sortByScoreDesc sorts proposals from highest to lowest score.
func sortByScoreDesc(proposals []Proposal) {
	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].Score > proposals[j].Score
	})
}
