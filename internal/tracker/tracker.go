// Package tracker maintains the three named pointers (last_good, first_bad,
// last_bad) that summarize a branch's build state, and derives last_build
// from them.
package tracker

import (
	"context"
	"fmt"

	"github.com/buildsched/buildsched/internal/vcsref"
)

// Tracker reads and writes the repository-state pointers for one
// platform/branch pair.
type Tracker struct {
	Adapter  vcsref.Adapter
	Prefix   string // e.g. "refs/buildsched/state"
	Platform string
	Branch   string
}

// New constructs a Tracker for the given platform/branch.
func New(adapter vcsref.Adapter, prefix, platform, branch string) *Tracker {
	return &Tracker{Adapter: adapter, Prefix: prefix, Platform: platform, Branch: branch}
}

func (t *Tracker) ref(name string) string {
	return fmt.Sprintf("%s/%s/%s/%s", t.Prefix, t.Platform, t.Branch, name)
}

// LastGood resolves the last_good pointer.
func (t *Tracker) LastGood(ctx context.Context) (vcsref.Hash, bool, error) {
	return t.Adapter.Resolve(ctx, t.ref("last_good"))
}

// SetLastGood moves the last_good pointer to target.
func (t *Tracker) SetLastGood(ctx context.Context, target vcsref.Hash) error {
	return t.Adapter.SetRef(ctx, t.ref("last_good"), target)
}

// ClearLastGood deletes the last_good pointer.
func (t *Tracker) ClearLastGood(ctx context.Context) error {
	return t.Adapter.ClearRef(ctx, t.ref("last_good"))
}

// FirstBad resolves the first_bad pointer.
func (t *Tracker) FirstBad(ctx context.Context) (vcsref.Hash, bool, error) {
	return t.Adapter.Resolve(ctx, t.ref("first_bad"))
}

// SetFirstBad moves the first_bad pointer to target.
func (t *Tracker) SetFirstBad(ctx context.Context, target vcsref.Hash) error {
	return t.Adapter.SetRef(ctx, t.ref("first_bad"), target)
}

// ClearFirstBad deletes the first_bad pointer.
func (t *Tracker) ClearFirstBad(ctx context.Context) error {
	return t.Adapter.ClearRef(ctx, t.ref("first_bad"))
}

// LastBad resolves the last_bad pointer.
func (t *Tracker) LastBad(ctx context.Context) (vcsref.Hash, bool, error) {
	return t.Adapter.Resolve(ctx, t.ref("last_bad"))
}

// SetLastBad moves the last_bad pointer to target.
func (t *Tracker) SetLastBad(ctx context.Context, target vcsref.Hash) error {
	return t.Adapter.SetRef(ctx, t.ref("last_bad"), target)
}

// ClearLastBad deletes the last_bad pointer.
func (t *Tracker) ClearLastBad(ctx context.Context) error {
	return t.Adapter.ClearRef(ctx, t.ref("last_bad"))
}

// Head resolves the branch's actual HEAD commit.
func (t *Tracker) Head(ctx context.Context) (vcsref.Hash, error) {
	return t.Adapter.Head(ctx, t.Branch)
}

// Sync fetches all remotes before any pointer reads, so decisions are made
// against current upstream state.
func (t *Tracker) Sync(ctx context.Context) error {
	return t.Adapter.FetchAll(ctx)
}

// LastBuild derives the most recent build pointer: if both last_bad and
// last_good are set, whichever is the descendant of the other wins; if only
// one is set, that one is returned; if neither is set, there is no build yet.
func (t *Tracker) LastBuild(ctx context.Context) (vcsref.Hash, bool, error) {
	lastBad, hasBad, err := t.LastBad(ctx)
	if err != nil {
		return vcsref.ZeroHash(), false, err
	}

	lastGood, hasGood, err := t.LastGood(ctx)
	if err != nil {
		return vcsref.ZeroHash(), false, err
	}

	if !hasBad {
		return lastGood, hasGood, nil
	}

	if !hasGood {
		return lastBad, true, nil
	}

	goodIsAncestorOfBad, err := t.Adapter.IsAncestor(ctx, lastGood, lastBad)
	if err != nil {
		return vcsref.ZeroHash(), false, err
	}

	if goodIsAncestorOfBad {
		return lastBad, true, nil
	}

	return lastGood, true, nil
}
