package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildsched/buildsched/internal/scheduler"
	"github.com/buildsched/buildsched/internal/vcsreftest"
)

// Merge preserves provenance: with an open bisect range disjoint from
// the head-to-last-build range, the merged proposal set contains entries
// from both component strategies and its size is the union of both.
func TestMergeStrategy_PreservesProvenance(t *testing.T) {
	adapter := vcsreftest.NewLinearHistory("main", 10)
	store := vcsreftest.NewStore(adapter)
	trk := newTracker(adapter)

	ctx := context.Background()
	require.NoError(t, trk.SetLastGood(ctx, vcsreftest.HashAt(0)))
	require.NoError(t, trk.SetFirstBad(ctx, vcsreftest.HashAt(3)))
	require.NoError(t, trk.SetLastBad(ctx, vcsreftest.HashAt(7)))

	head := scheduler.NewHeadStrategy(adapter, store, trk, "linux", "main")
	bisect := scheduler.NewBisectStrategy(adapter, store, trk, "linux", "main")

	merged := scheduler.NewMergeStrategy()
	merged.Add(head, 1.0)
	merged.Add(bisect, 1.0)

	headProposals, err := head.GetProposals(ctx, time.Now())
	require.NoError(t, err)

	bisectProposals, err := bisect.GetProposals(ctx, time.Now())
	require.NoError(t, err)

	proposals, err := merged.GetProposals(ctx, time.Now())
	require.NoError(t, err)

	assert.Len(t, proposals, len(headProposals)+len(bisectProposals))

	strategies := make(map[string]bool)
	for _, p := range proposals {
		strategies[p.Strategy] = true
	}

	assert.True(t, strategies["HeadStrategy"])
	assert.True(t, strategies["BisectStrategy"])
}

func TestMergeStrategy_EmptyWhenNoComponents(t *testing.T) {
	merged := scheduler.NewMergeStrategy()

	proposals, err := merged.GetProposals(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, proposals)
}
