// Package vcsreftest provides an in-memory fake of vcsref.Adapter for unit
// tests, avoiding the need for a real libgit2-backed repository when
// exercising the transition engine and scheduler strategies.
package vcsreftest

import (
	"context"
	"fmt"
	"sort"

	"github.com/buildsched/buildsched/internal/vcsref"
)

// node is one commit in the fake graph.
type node struct {
	hash   vcsref.Hash
	parent vcsref.Hash
	hasPar bool
	seq    int // topological order, higher = newer
}

// Adapter is a deterministic, linear-history fake of vcsref.Adapter.
// Commits are identified by synthetic hashes built from their index, so
// tests can construct them with NewLinearHistory and assert on exact
// proposal ordering.
type Adapter struct {
	commits map[vcsref.Hash]node
	order   []vcsref.Hash // oldest first
	refs    map[string]vcsref.Hash
	heads   map[string]vcsref.Hash
	fetches int
}

// New returns an empty fake adapter.
func New() *Adapter {
	return &Adapter{
		commits: make(map[vcsref.Hash]node),
		refs:    make(map[string]vcsref.Hash),
		heads:   make(map[string]vcsref.Hash),
	}
}

// HashAt derives the deterministic synthetic hash for linear-history index i.
func HashAt(i int) vcsref.Hash {
	return vcsref.NewHash(fmt.Sprintf("%040x", i+1))
}

// NewLinearHistory builds a fake adapter with a single linear chain of n
// commits (index 0 = root, n-1 = HEAD), all on branch.
func NewLinearHistory(branch string, n int) *Adapter {
	a := New()

	var parent vcsref.Hash

	hasParent := false

	for i := range n {
		h := HashAt(i)
		a.commits[h] = node{hash: h, parent: parent, hasPar: hasParent, seq: i}
		a.order = append(a.order, h)
		parent = h
		hasParent = true
	}

	if n > 0 {
		a.heads[branch] = HashAt(n - 1)
	}

	return a
}

// FetchCount returns how many times FetchAll was called.
func (a *Adapter) FetchCount() int {
	return a.fetches
}

// Resolve implements vcsref.Adapter.
func (a *Adapter) Resolve(_ context.Context, refname string) (vcsref.Hash, bool, error) {
	h, ok := a.refs[refname]
	if !ok {
		return vcsref.ZeroHash(), false, nil
	}

	return h, true, nil
}

// SetRef implements vcsref.Adapter.
func (a *Adapter) SetRef(_ context.Context, refname string, target vcsref.Hash) error {
	a.refs[refname] = target

	return nil
}

// ClearRef implements vcsref.Adapter.
func (a *Adapter) ClearRef(_ context.Context, refname string) error {
	delete(a.refs, refname)

	return nil
}

// ListCommits implements vcsref.Adapter, returning commits in
// (fromExclusive, toInclusive] newest first.
func (a *Adapter) ListCommits(_ context.Context, fromExclusive, toInclusive vcsref.Hash) ([]vcsref.Hash, error) {
	toNode, ok := a.commits[toInclusive]
	if !ok {
		return nil, fmt.Errorf("%w: unknown commit %s", errUnknownCommit, toInclusive)
	}

	minSeq := -1

	if !fromExclusive.IsZero() {
		fromNode, found := a.commits[fromExclusive]
		if !found {
			return nil, fmt.Errorf("%w: unknown commit %s", errUnknownCommit, fromExclusive)
		}

		minSeq = fromNode.seq
	}

	var result []vcsref.Hash

	for seq := toNode.seq; seq > minSeq; seq-- {
		result = append(result, a.order[seq])
	}

	return result, nil
}

// IsAncestor implements vcsref.Adapter.
func (a *Adapter) IsAncestor(_ context.Context, x, y vcsref.Hash) (bool, error) {
	if x == y {
		return true, nil
	}

	xn, ok := a.commits[x]
	if !ok {
		return false, fmt.Errorf("%w: unknown commit %s", errUnknownCommit, x)
	}

	yn, ok := a.commits[y]
	if !ok {
		return false, fmt.Errorf("%w: unknown commit %s", errUnknownCommit, y)
	}

	return xn.seq <= yn.seq, nil
}

// Distance implements vcsref.Adapter.
func (a *Adapter) Distance(ctx context.Context, x, y vcsref.Hash) (int, error) {
	commits, err := a.ListCommits(ctx, x, y)
	if err != nil {
		return 0, err
	}

	return len(commits), nil
}

// Head implements vcsref.Adapter.
func (a *Adapter) Head(_ context.Context, branch string) (vcsref.Hash, error) {
	h, ok := a.heads[branch]
	if !ok {
		return vcsref.ZeroHash(), fmt.Errorf("%w: branch %s", errUnknownCommit, branch)
	}

	return h, nil
}

// FetchAll implements vcsref.Adapter.
func (a *Adapter) FetchAll(_ context.Context) error {
	a.fetches++

	return nil
}

// SetHead repoints branch's head at the given commit, for tests that
// simulate new commits landing.
func (a *Adapter) SetHead(branch string, h vcsref.Hash) {
	a.heads[branch] = h
}

// AddCommit appends a new commit on top of parent, returning its hash.
func (a *Adapter) AddCommit(parent vcsref.Hash) vcsref.Hash {
	seq := len(a.order)
	h := HashAt(seq)
	a.commits[h] = node{hash: h, parent: parent, hasPar: !parent.IsZero() || seq == 0, seq: seq}
	a.order = append(a.order, h)

	return h
}

// Refs returns a sorted snapshot of all set reference names, for assertions.
func (a *Adapter) Refs() []string {
	names := make([]string, 0, len(a.refs))
	for name := range a.refs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

var errUnknownCommit = fmt.Errorf("vcsreftest: unknown commit")
