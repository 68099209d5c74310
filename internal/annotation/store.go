// Package annotation stores and retrieves per-commit build state as git
// notes, namespaced per platform, under the configured notes ref prefix.
package annotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/buildsched/buildsched/internal/state"
	"github.com/buildsched/buildsched/internal/vcsref"
)

// noteAuthor is the identity attached to every git-notes write. The
// annotation store is machine-authored, so a fixed identity is used rather
// than reading the repository's user.name/user.email config.
const (
	noteAuthorName  = "buildsched"
	noteAuthorEmail = "buildsched@localhost"
)

// Accessor is the read/write surface transition.Engine and the scheduler
// strategies depend on, satisfied by Store and by in-memory fakes in tests.
type Accessor interface {
	GetState(ctx context.Context, commit vcsref.Hash) (state.CommitState, error)
	SetState(ctx context.Context, commit vcsref.Hash, cs state.CommitState) error
	UpdateRange(ctx context.Context, begin, end vcsref.Hash, cs state.CommitState, skip map[state.State]struct{}) error
}

// Store reads and writes CommitState annotations as git notes under
// <notesPrefix>/<platform>.
type Store struct {
	repo     *git2go.Repository
	adapter  vcsref.Adapter
	notesRef string
}

// New returns a Store backed by repo's notes, namespaced by platform under
// notesPrefix (e.g. "refs/notes/buildsched/history").
func New(repo *vcsref.Repo, adapter vcsref.Adapter, notesPrefix, platform string) *Store {
	return &Store{
		repo:     repo.Native(),
		adapter:  adapter,
		notesRef: notesPrefix + "/" + platform,
	}
}

// GetState returns the annotation recorded against commit, or the zero
// UNKNOWN state if no note has been written yet.
func (s *Store) GetState(_ context.Context, commit vcsref.Hash) (state.CommitState, error) {
	note, err := s.repo.Notes.Read(s.notesRef, commit.ToOid())
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return state.NewCommitState(), nil
		}

		return state.CommitState{}, fmt.Errorf("read note for %s: %w", commit, err)
	}
	defer note.Free()

	cs, decodeErr := state.Decode([]byte(note.Message()))
	if decodeErr != nil {
		return state.CommitState{}, fmt.Errorf("decode note for %s: %w", commit, decodeErr)
	}

	return cs, nil
}

// SetState force-overwrites the annotation recorded against commit.
func (s *Store) SetState(_ context.Context, commit vcsref.Hash, cs state.CommitState) error {
	validateErr := cs.Validate()
	if validateErr != nil {
		return fmt.Errorf("set state for %s: %w", commit, validateErr)
	}

	payload, encodeErr := state.Encode(cs)
	if encodeErr != nil {
		return fmt.Errorf("set state for %s: %w", commit, encodeErr)
	}

	sig := &git2go.Signature{Name: noteAuthorName, Email: noteAuthorEmail, When: time.Now()}

	// Any prior note is removed first, then the new one is created without
	// libgit2's force flag.
	removeErr := s.repo.Notes.Remove(s.notesRef, sig, sig, commit.ToOid())
	if removeErr != nil && !git2go.IsErrorCode(removeErr, git2go.ErrorCodeNotFound) {
		return fmt.Errorf("remove prior note for %s: %w", commit, removeErr)
	}

	_, createErr := s.repo.Notes.Create(s.notesRef, sig, sig, commit.ToOid(), string(payload), false)
	if createErr != nil {
		return fmt.Errorf("create note for %s: %w", commit, createErr)
	}

	return nil
}

var _ Accessor = (*Store)(nil)

// ErrEmptyRange names an empty or invalid interior range. UpdateRange does
// not return it: an empty range is a no-op there.
var ErrEmptyRange = errors.New("annotation: empty range")

// UpdateRange paints cs onto every commit strictly between begin and end
// (both endpoints excluded), skipping any commit whose current state is in
// skip. begin and end keep whatever state was (or will be) assigned to them
// directly by the caller.
func (s *Store) UpdateRange(
	ctx context.Context, begin, end vcsref.Hash, cs state.CommitState, skip map[state.State]struct{},
) error {
	commits, err := s.adapter.ListCommits(ctx, begin, end)
	if err != nil {
		return fmt.Errorf("update range (%s, %s): %w", begin, end, err)
	}

	if len(commits) == 0 {
		return nil
	}

	// commits is (begin, end] newest-first; drop end itself to get the
	// strictly-interior range (begin, end).
	interior := commits[1:]

	for _, commit := range interior {
		old, getErr := s.GetState(ctx, commit)
		if getErr != nil {
			return fmt.Errorf("update range (%s, %s): %w", begin, end, getErr)
		}

		if _, skipped := skip[old.State]; skipped {
			continue
		}

		setErr := s.SetState(ctx, commit, cs)
		if setErr != nil {
			return fmt.Errorf("update range (%s, %s): %w", begin, end, setErr)
		}
	}

	return nil
}
