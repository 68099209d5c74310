package vcsreftest

import (
	"context"

	"github.com/buildsched/buildsched/internal/state"
	"github.com/buildsched/buildsched/internal/vcsref"
)

// Store is an in-memory fake of annotation.Accessor, backed by a plain map
// rather than git notes. It is driven by the same *Adapter used for the
// commit graph, so UpdateRange's enumeration matches what the real
// annotation.Store would see against a real repository.
type Store struct {
	adapter *Adapter
	states  map[vcsref.Hash]state.CommitState
}

// NewStore returns an empty fake annotation store walking adapter's graph.
func NewStore(adapter *Adapter) *Store {
	return &Store{adapter: adapter, states: make(map[vcsref.Hash]state.CommitState)}
}

// GetState implements annotation.Accessor.
func (s *Store) GetState(_ context.Context, commit vcsref.Hash) (state.CommitState, error) {
	cs, ok := s.states[commit]
	if !ok {
		return state.NewCommitState(), nil
	}

	return cs, nil
}

// SetState implements annotation.Accessor.
func (s *Store) SetState(_ context.Context, commit vcsref.Hash, cs state.CommitState) error {
	validateErr := cs.Validate()
	if validateErr != nil {
		return validateErr
	}

	s.states[commit] = cs

	return nil
}

// UpdateRange implements annotation.Accessor, with the same (begin, end)
// strictly-interior, skip-set semantics as annotation.Store.UpdateRange.
func (s *Store) UpdateRange(
	ctx context.Context, begin, end vcsref.Hash, cs state.CommitState, skip map[state.State]struct{},
) error {
	commits, err := s.adapter.ListCommits(ctx, begin, end)
	if err != nil {
		return err
	}

	if len(commits) == 0 {
		return nil
	}

	interior := commits[1:]

	for _, commit := range interior {
		old, getErr := s.GetState(ctx, commit)
		if getErr != nil {
			return getErr
		}

		if _, skipped := skip[old.State]; skipped {
			continue
		}

		setErr := s.SetState(ctx, commit, cs)
		if setErr != nil {
			return setErr
		}
	}

	return nil
}
