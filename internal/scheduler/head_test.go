package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildsched/buildsched/internal/scheduler"
	"github.com/buildsched/buildsched/internal/tracker"
	"github.com/buildsched/buildsched/internal/vcsreftest"
)

const testPrefix = "refs/buildsched/state"

func newTracker(adapter *vcsreftest.Adapter) *tracker.Tracker {
	return tracker.New(adapter, testPrefix, "linux", "main")
}

// Clean repo, no prior build: HeadStrategy proposes head alone at score 1.
func TestHeadStrategy_NoBuildYieldsHeadAlone(t *testing.T) {
	adapter := vcsreftest.NewLinearHistory("main", 10)
	store := vcsreftest.NewStore(adapter)
	trk := newTracker(adapter)
	strat := scheduler.NewHeadStrategy(adapter, store, trk, "linux", "main")

	proposals, err := strat.GetProposals(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, vcsreftest.HashAt(9), proposals[0].Commit)
	assert.InDelta(t, 1.0, proposals[0].Score, 1e-9)
}

// Mirrors tb3's scheduler test: 9 commits enumerated after last_good, head
// scores exactly 9 once normalized.
func TestHeadStrategy_ScoresPeakAtHead(t *testing.T) {
	adapter := vcsreftest.NewLinearHistory("main", 10)
	store := vcsreftest.NewStore(adapter)
	trk := newTracker(adapter)

	require.NoError(t, trk.SetLastGood(context.Background(), vcsreftest.HashAt(0)))

	strat := scheduler.NewHeadStrategy(adapter, store, trk, "linux", "main")

	proposals, err := strat.GetProposals(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, proposals, 9)

	best := proposals[0]
	var headScore float64

	for _, p := range proposals {
		if p.Score > best.Score {
			best = p
		}

		if p.Commit == vcsreftest.HashAt(9) {
			headScore = p.Score
		}
	}

	assert.Equal(t, vcsreftest.HashAt(9), best.Commit)
	assert.InDelta(t, 9.0, headScore, 1e-9)
}

// Dampening suppresses neighbors of a commit currently RUNNING.
func TestHeadStrategy_DampeningSuppressesRunningHead(t *testing.T) {
	adapter := vcsreftest.NewLinearHistory("main", 10)
	store := vcsreftest.NewStore(adapter)
	trk := newTracker(adapter)

	ctx := context.Background()
	require.NoError(t, trk.SetLastGood(ctx, vcsreftest.HashAt(0)))

	started := time.Now()
	require.NoError(t, store.SetState(ctx, vcsreftest.HashAt(9), stateRunning(started, 4*time.Hour)))

	strat := scheduler.NewHeadStrategy(adapter, store, trk, "linux", "main")

	proposals, err := strat.GetProposals(ctx, started)
	require.NoError(t, err)
	require.Len(t, proposals, 9)

	var headScore float64

	for _, p := range proposals {
		if p.Commit == vcsreftest.HashAt(9) {
			headScore = p.Score
		}
	}

	best := proposals[0]
	for _, p := range proposals[1:] {
		if p.Score > best.Score {
			best = p
		}
	}

	assert.NotEqual(t, vcsreftest.HashAt(9), best.Commit, "a currently-running head must no longer be the top proposal")
	assert.Less(t, headScore, best.Score)
}
