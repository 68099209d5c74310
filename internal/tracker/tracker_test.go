package tracker_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildsched/buildsched/internal/tracker"
	"github.com/buildsched/buildsched/internal/vcsreftest"
)

const testPrefix = "refs/buildsched/state"

func newTracker(t *testing.T, n int) (*vcsreftest.Adapter, *tracker.Tracker) {
	t.Helper()

	adapter := vcsreftest.NewLinearHistory("main", n)
	trk := tracker.New(adapter, testPrefix, "linux", "main")

	return adapter, trk
}

func TestTracker_PointersDefaultUnset(t *testing.T) {
	_, trk := newTracker(t, 5)
	ctx := context.Background()

	_, has, err := trk.LastGood(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	_, has, err = trk.FirstBad(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	_, has, err = trk.LastBad(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestTracker_SetAndClearRoundTrip(t *testing.T) {
	_, trk := newTracker(t, 5)
	ctx := context.Background()

	c2 := vcsreftest.HashAt(2)

	require.NoError(t, trk.SetLastGood(ctx, c2))

	got, has, err := trk.LastGood(ctx)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, c2, got)

	require.NoError(t, trk.ClearLastGood(ctx))

	_, has, err = trk.LastGood(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestTracker_Head(t *testing.T) {
	_, trk := newTracker(t, 5)

	head, err := trk.Head(context.Background())
	require.NoError(t, err)
	assert.Equal(t, vcsreftest.HashAt(4), head)
}

func TestTracker_Sync_CallsFetchAll(t *testing.T) {
	adapter, trk := newTracker(t, 5)

	require.NoError(t, trk.Sync(context.Background()))
	assert.Equal(t, 1, adapter.FetchCount())
}

func TestTracker_LastBuild_NeitherSet(t *testing.T) {
	_, trk := newTracker(t, 5)

	_, has, err := trk.LastBuild(context.Background())
	require.NoError(t, err)
	assert.False(t, has)
}

func TestTracker_LastBuild_OnlyGoodSet(t *testing.T) {
	_, trk := newTracker(t, 5)
	ctx := context.Background()

	c2 := vcsreftest.HashAt(2)
	require.NoError(t, trk.SetLastGood(ctx, c2))

	got, has, err := trk.LastBuild(ctx)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, c2, got)
}

func TestTracker_LastBuild_OnlyBadSet(t *testing.T) {
	_, trk := newTracker(t, 5)
	ctx := context.Background()

	c3 := vcsreftest.HashAt(3)
	require.NoError(t, trk.SetLastBad(ctx, c3))

	got, has, err := trk.LastBuild(ctx)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, c3, got)
}

// When both pointers are set, the descendant of the two wins.
func TestTracker_LastBuild_PicksDescendant(t *testing.T) {
	_, trk := newTracker(t, 5)
	ctx := context.Background()

	c1, c3 := vcsreftest.HashAt(1), vcsreftest.HashAt(3)

	require.NoError(t, trk.SetLastGood(ctx, c1))
	require.NoError(t, trk.SetLastBad(ctx, c3))

	got, has, err := trk.LastBuild(ctx)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, c3, got, "last_bad is the descendant of last_good, so it wins")
}

func TestTracker_LastBuild_GoodAheadOfBad(t *testing.T) {
	_, trk := newTracker(t, 5)
	ctx := context.Background()

	c1, c3 := vcsreftest.HashAt(1), vcsreftest.HashAt(3)

	require.NoError(t, trk.SetLastGood(ctx, c3))
	require.NoError(t, trk.SetLastBad(ctx, c1))

	got, has, err := trk.LastBuild(ctx)
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, c3, got, "last_good is the descendant of last_bad, so it wins")
}
