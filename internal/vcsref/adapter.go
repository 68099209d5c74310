// Package vcsref adapts a real git repository (via libgit2) to the narrow
// set of operations the repository-state tracker, transition engine, and
// proposal scheduler need: resolving and moving named references, walking
// commit ranges, and testing ancestry.
package vcsref

import (
	"context"
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrTransport is returned when an adapter operation fails for reasons other
// than "not found" - a corrupt object, a failed fetch, a libgit2 internal
// error.
var ErrTransport = errors.New("vcsref: transport error")

// Adapter is the version-control surface the rest of the scheduler core
// depends on. Resolve reports not-found as (zero, false, nil), never as an
// error - only transport-layer failures are errors.
type Adapter interface {
	Resolve(ctx context.Context, refname string) (Hash, bool, error)
	SetRef(ctx context.Context, refname string, target Hash) error
	ClearRef(ctx context.Context, refname string) error
	ListCommits(ctx context.Context, fromExclusive, toInclusive Hash) ([]Hash, error)
	IsAncestor(ctx context.Context, a, b Hash) (bool, error)
	Distance(ctx context.Context, a, b Hash) (int, error)
	Head(ctx context.Context, branch string) (Hash, error)
	FetchAll(ctx context.Context) error
}

// Repo is the libgit2-backed Adapter implementation. It also exposes the
// native repository handle so internal/annotation can share the same open
// repository for git-notes access.
type Repo struct {
	repo *git2go.Repository
	path string
}

// Open opens the git repository at path.
func Open(path string) (*Repo, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repo{repo: repo, path: path}, nil
}

// Path returns the filesystem path of the repository.
func (r *Repo) Path() string {
	return r.path
}

// Native returns the underlying libgit2 repository handle.
func (r *Repo) Native() *git2go.Repository {
	return r.repo
}

// Free releases the repository's native resources.
func (r *Repo) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Resolve looks up refname and returns its target commit hash.
func (r *Repo) Resolve(_ context.Context, refname string) (Hash, bool, error) {
	ref, err := r.repo.References.Lookup(refname)
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return ZeroHash(), false, nil
		}

		return ZeroHash(), false, fmt.Errorf("%w: lookup %s: %w", ErrTransport, refname, err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), true, nil
}

// SetRef creates or moves refname to target, force-overwriting any existing
// value - every pointer write in this system is a single atomic operation.
func (r *Repo) SetRef(_ context.Context, refname string, target Hash) error {
	ref, err := r.repo.References.Create(refname, target.ToOid(), true, "")
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrTransport, refname, err)
	}
	defer ref.Free()

	return nil
}

// ClearRef deletes refname. Deleting an already-absent ref is not an error.
func (r *Repo) ClearRef(_ context.Context, refname string) error {
	err := r.repo.References.Remove(refname)
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return nil
		}

		return fmt.Errorf("%w: clear %s: %w", ErrTransport, refname, err)
	}

	return nil
}

// ListCommits returns the commits in (fromExclusive, toInclusive], newest
// first - the same order as `git rev-list fromExclusive..toInclusive`.
func (r *Repo) ListCommits(_ context.Context, fromExclusive, toInclusive Hash) ([]Hash, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("%w: create revwalk: %w", ErrTransport, err)
	}
	defer walk.Free()

	walk.Sorting(git2go.SortTopological | git2go.SortTime)

	err = walk.Push(toInclusive.ToOid())
	if err != nil {
		return nil, fmt.Errorf("%w: push %s: %w", ErrTransport, toInclusive, err)
	}

	if !fromExclusive.IsZero() {
		err = walk.Hide(fromExclusive.ToOid())
		if err != nil {
			return nil, fmt.Errorf("%w: hide %s: %w", ErrTransport, fromExclusive, err)
		}
	}

	var commits []Hash

	oid := new(git2go.Oid)

	for {
		nextErr := walk.Next(oid)
		if nextErr != nil {
			break
		}

		commits = append(commits, HashFromOid(oid))
	}

	return commits, nil
}

// IsAncestor reports whether a is an ancestor of (or equal to) b.
func (r *Repo) IsAncestor(_ context.Context, a, b Hash) (bool, error) {
	if a == b {
		return true, nil
	}

	base, err := r.repo.MergeBase(a.ToOid(), b.ToOid())
	if err != nil {
		if git2go.IsErrorCode(err, git2go.ErrorCodeNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("%w: merge-base %s %s: %w", ErrTransport, a, b, err)
	}

	return HashFromOid(base) == a, nil
}

// Distance counts the commits in (a, b], i.e. `git rev-list --count a..b`.
func (r *Repo) Distance(ctx context.Context, a, b Hash) (int, error) {
	commits, err := r.ListCommits(ctx, a, b)
	if err != nil {
		return 0, err
	}

	return len(commits), nil
}

// Head resolves refs/heads/<branch> to its commit hash.
func (r *Repo) Head(ctx context.Context, branch string) (Hash, error) {
	hash, found, err := r.Resolve(ctx, "refs/heads/"+branch)
	if err != nil {
		return ZeroHash(), err
	}

	if !found {
		return ZeroHash(), fmt.Errorf("%w: branch %s has no HEAD", ErrTransport, branch)
	}

	return hash, nil
}

// FetchAll fetches every configured remote, mirroring `git fetch --all`.
func (r *Repo) FetchAll(_ context.Context) error {
	names, err := r.repo.Remotes.List()
	if err != nil {
		return fmt.Errorf("%w: list remotes: %w", ErrTransport, err)
	}

	for _, name := range names {
		remote, lookupErr := r.repo.Remotes.Lookup(name)
		if lookupErr != nil {
			return fmt.Errorf("%w: lookup remote %s: %w", ErrTransport, name, lookupErr)
		}

		fetchErr := remote.Fetch(nil, nil, "")
		remote.Free()

		if fetchErr != nil {
			return fmt.Errorf("%w: fetch remote %s: %w", ErrTransport, name, fetchErr)
		}
	}

	return nil
}

var _ Adapter = (*Repo)(nil)
