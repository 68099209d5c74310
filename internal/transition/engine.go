// Package transition implements the state-transition engine: recording a
// commit as scheduled or finished, painting the ASSUMED_*/POSSIBLY_* range
// states this implies about its neighbors, and finalizing a bisection once
// its last_bad/last_good pointers converge.
package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buildsched/buildsched/internal/annotation"
	"github.com/buildsched/buildsched/internal/state"
	"github.com/buildsched/buildsched/internal/tracker"
	"github.com/buildsched/buildsched/internal/vcsref"
)

// Outcome is the result of a finished build - only GOOD and BAD are valid
// terminal outcomes a builder can report.
type Outcome state.State

// The two valid terminal outcomes.
const (
	OutcomeGood Outcome = Outcome(state.Good)
	OutcomeBad  Outcome = Outcome(state.Bad)
)

// ErrUnknownOutcome is returned when SetFinished is called with an outcome
// other than GOOD or BAD.
var ErrUnknownOutcome = errors.New("transition: outcome must be GOOD or BAD")

// ErrBisectPrecondition is returned when the invariant that last_good and
// first_bad must be ancestor-related to the commit in question does not
// hold - an invariant violation rather than a normal validation failure.
var ErrBisectPrecondition = errors.New("transition: bisect ancestry precondition violated")

// DefaultMinEstimate is the default for Engine.MinEstimate, the minimum
// estimated build duration enforced on every scheduled commit regardless of
// what the caller requests.
const DefaultMinEstimate = 4 * time.Hour

// skipOnRangePaint is the set of states that a range-painting pass must
// never overwrite: commits that have already been definitively built.
var skipOnRangePaint = map[state.State]struct{}{
	state.Good: {},
	state.Bad:  {},
}

// Engine implements the per-commit transitions of spec §4.D.
type Engine struct {
	Adapter     vcsref.Adapter
	Store       annotation.Accessor
	Tracker     *tracker.Tracker
	Now         func() time.Time
	MinEstimate time.Duration
	Logger      *slog.Logger
}

// New builds an Engine with the given collaborators. Now defaults to
// time.Now and MinEstimate to DefaultMinEstimate when zero-valued.
func New(adapter vcsref.Adapter, store annotation.Accessor, trk *tracker.Tracker) *Engine {
	return &Engine{
		Adapter:     adapter,
		Store:       store,
		Tracker:     trk,
		Now:         time.Now,
		MinEstimate: DefaultMinEstimate,
		Logger:      slog.Default(),
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}

	return time.Now()
}

// SetScheduled records commit as RUNNING under builder, with an estimated
// duration floored at MinEstimate.
func (e *Engine) SetScheduled(ctx context.Context, commit vcsref.Hash, builder string, estimated time.Duration) error {
	minEstimate := e.MinEstimate
	if minEstimate <= 0 {
		minEstimate = DefaultMinEstimate
	}

	if estimated < minEstimate {
		estimated = minEstimate
	}

	started := e.now()

	cs := state.CommitState{
		State:             state.Running,
		Builder:           builder,
		Started:           state.NewTimestamp(started),
		EstimatedDuration: state.NewDuration(estimated),
	}

	err := e.Store.SetState(ctx, commit, cs)
	if err != nil {
		return fmt.Errorf("set scheduled: %w", err)
	}

	e.Logger.InfoContext(ctx, "commit scheduled", "commit", commit.String(), "builder", builder, "estimated", estimated)

	return nil
}

// SetFinished records commit's build outcome, updates the last_good/
// first_bad/last_bad pointers, paints the implied range states, and
// finalizes any bisection that outcome completes.
func (e *Engine) SetFinished(
	ctx context.Context, commit vcsref.Hash, builder string, outcome Outcome, artifact string,
) error {
	if outcome != OutcomeGood && outcome != OutcomeBad {
		return fmt.Errorf("%w: got %q", ErrUnknownOutcome, outcome)
	}

	current, err := e.Store.GetState(ctx, commit)
	if err != nil {
		return fmt.Errorf("set finished: %w", err)
	}

	// BAD is sticky: a later GOOD report for the same commit never
	// overwrites an existing BAD verdict, but a later BAD confirms it.
	if current.State == state.Bad && outcome != OutcomeBad {
		e.Logger.InfoContext(ctx, "ignoring GOOD report for already-BAD commit", "commit", commit.String())

		return nil
	}

	finished := e.now()

	cs := state.CommitState{
		State:             state.State(outcome),
		Builder:           builder,
		Started:           current.Started,
		Finished:          state.NewTimestamp(finished),
		ArtifactReference: artifact,
	}

	setErr := e.Store.SetState(ctx, commit, cs)
	if setErr != nil {
		return fmt.Errorf("set finished: %w", setErr)
	}

	if outcome == OutcomeGood {
		return e.finishGood(ctx, commit)
	}

	return e.finishBad(ctx, commit)
}

func (e *Engine) finishGood(ctx context.Context, commit vcsref.Hash) error {
	lastGood, hasLastGood, err := e.Tracker.LastGood(ctx)
	if err != nil {
		return fmt.Errorf("finish good: %w", err)
	}

	if hasLastGood {
		updateErr := e.update(ctx, commit, state.AssumedGood, state.PossiblyFixing, false, state.AssumedGood)
		if updateErr != nil {
			return fmt.Errorf("finish good: %w", updateErr)
		}
	}

	if !hasLastGood {
		setErr := e.Tracker.SetLastGood(ctx, commit)
		if setErr != nil {
			return fmt.Errorf("finish good: %w", setErr)
		}
	} else {
		isAncestor, ancestorErr := e.Adapter.IsAncestor(ctx, lastGood, commit)
		if ancestorErr != nil {
			return fmt.Errorf("finish good: %w", ancestorErr)
		}

		if isAncestor {
			setErr := e.Tracker.SetLastGood(ctx, commit)
			if setErr != nil {
				return fmt.Errorf("finish good: %w", setErr)
			}
		}
	}

	return e.finalizeBisect(ctx)
}

func (e *Engine) finishBad(ctx context.Context, commit vcsref.Hash) error {
	updateErr := e.update(ctx, commit, state.PossiblyBreaking, state.AssumedBad, true, state.AssumedBad)
	if updateErr != nil {
		return fmt.Errorf("finish bad: %w", updateErr)
	}

	firstBad, hasFirstBad, err := e.Tracker.FirstBad(ctx)
	if err != nil {
		return fmt.Errorf("finish bad: %w", err)
	}

	shouldSetFirstBad := !hasFirstBad

	if hasFirstBad {
		isAncestor, ancestorErr := e.Adapter.IsAncestor(ctx, commit, firstBad)
		if ancestorErr != nil {
			return fmt.Errorf("finish bad: %w", ancestorErr)
		}

		shouldSetFirstBad = isAncestor
	}

	if shouldSetFirstBad {
		setErr := e.Tracker.SetFirstBad(ctx, commit)
		if setErr != nil {
			return fmt.Errorf("finish bad: %w", setErr)
		}
	}

	_, hasLastBad, err := e.Tracker.LastBad(ctx)
	if err != nil {
		return fmt.Errorf("finish bad: %w", err)
	}

	if !hasLastBad {
		setErr := e.Tracker.SetLastBad(ctx, commit)
		if setErr != nil {
			return fmt.Errorf("finish bad: %w", setErr)
		}
	}

	return e.finalizeBisect(ctx)
}

// update paints the range implied by commit's new verdict: if commit is
// reachable from last_build, the whole last_build..commit span is painted
// with goodState (when last_build==last_good, i.e. a clean continuation) or
// badState (an interrupted run); otherwise commit is assumed to lie inside
// an open bisection, and the range between last_good/first_bad and commit
// (direction given by forward) is painted with bisectState.
func (e *Engine) update(
	ctx context.Context, commit vcsref.Hash, goodState, badState state.State, forward bool, bisectState state.State,
) error {
	lastBuild, hasLastBuild, err := e.Tracker.LastBuild(ctx)
	if err != nil {
		return err
	}

	lastGood, hasLastGood, err := e.Tracker.LastGood(ctx)
	if err != nil {
		return err
	}

	if !hasLastBuild || !hasLastGood {
		return nil
	}

	builtAncestor, err := e.Adapter.IsAncestor(ctx, lastBuild, commit)
	if err != nil {
		return err
	}

	if builtAncestor {
		rangeState := badState
		if lastBuild == lastGood {
			rangeState = goodState
		}

		return e.Store.UpdateRange(ctx, lastBuild, commit, state.CommitState{State: rangeState}, skipOnRangePaint)
	}

	firstBad, hasFirstBad, err := e.Tracker.FirstBad(ctx)
	if err != nil {
		return err
	}

	if !hasFirstBad {
		return nil
	}

	goodAncestor, err := e.Adapter.IsAncestor(ctx, lastGood, commit)
	if err != nil {
		return err
	}

	if !goodAncestor {
		return fmt.Errorf("%w: last_good %s is not an ancestor of %s", ErrBisectPrecondition, lastGood, commit)
	}

	commitAncestor, err := e.Adapter.IsAncestor(ctx, commit, firstBad)
	if err != nil {
		return err
	}

	if !commitAncestor {
		return fmt.Errorf("%w: %s is not an ancestor of first_bad %s", ErrBisectPrecondition, commit, firstBad)
	}

	begin, end := lastGood, commit
	if forward {
		begin, end = commit, firstBad
	}

	return e.Store.UpdateRange(ctx, begin, end, state.CommitState{State: bisectState}, skipOnRangePaint)
}

// finalizeBisect marks first_bad as BREAKING once last_good is confirmed to
// be its immediate predecessor, and clears the bisection pointers once
// last_bad has been subsumed by a later last_good.
func (e *Engine) finalizeBisect(ctx context.Context) error {
	firstBad, hasFirstBad, err := e.Tracker.FirstBad(ctx)
	if err != nil {
		return err
	}

	if !hasFirstBad {
		return nil
	}

	lastGood, hasLastGood, err := e.Tracker.LastGood(ctx)
	if err != nil {
		return err
	}

	if !hasLastGood {
		return nil
	}

	immediatePredecessor, err := e.isImmediateParent(ctx, lastGood, firstBad)
	if err != nil {
		return err
	}

	if immediatePredecessor {
		cs, getErr := e.Store.GetState(ctx, firstBad)
		if getErr != nil {
			return getErr
		}

		cs.State = state.Breaking

		setErr := e.Store.SetState(ctx, firstBad, cs)
		if setErr != nil {
			return setErr
		}
	}

	lastBad, hasLastBad, err := e.Tracker.LastBad(ctx)
	if err != nil {
		return err
	}

	if !hasLastBad {
		return nil
	}

	subsumed, err := e.Adapter.IsAncestor(ctx, lastBad, lastGood)
	if err != nil {
		return err
	}

	if subsumed {
		clearErr := e.Tracker.ClearFirstBad(ctx)
		if clearErr != nil {
			return clearErr
		}

		return e.Tracker.ClearLastBad(ctx)
	}

	return nil
}

// isImmediateParent reports whether candidate is exactly commit's first
// parent, by checking that candidate is an ancestor of commit and that the
// (candidate, commit] range contains exactly one commit.
func (e *Engine) isImmediateParent(ctx context.Context, candidate, commit vcsref.Hash) (bool, error) {
	isAncestor, err := e.Adapter.IsAncestor(ctx, candidate, commit)
	if err != nil {
		return false, err
	}

	if !isAncestor {
		return false, nil
	}

	between, err := e.Adapter.ListCommits(ctx, candidate, commit)
	if err != nil {
		return false, err
	}

	return len(between) == 1, nil
}
