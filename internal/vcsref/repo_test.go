package vcsref_test

import (
	"context"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildsched/buildsched/internal/vcsref"
)

// testRepo wraps a temporary on-disk repository for integration testing.
type testRepo struct {
	t      *testing.T
	path   string
	native *git2go.Repository
}

func newTestRepo(t *testing.T) *testRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &testRepo{t: t, path: dir, native: repo}
}

func (tr *testRepo) commitFile(name, content string, parents ...vcsref.Hash) vcsref.Hash {
	tr.t.Helper()

	blobOid, err := tr.native.CreateBlobFromBuffer([]byte(content))
	require.NoError(tr.t, err)

	builder, err := tr.native.TreeBuilder()
	require.NoError(tr.t, err)

	defer builder.Free()

	err = builder.Insert(name, blobOid, git2go.FilemodeBlob)
	require.NoError(tr.t, err)

	treeOid, err := builder.Write()
	require.NoError(tr.t, err)

	tree, err := tr.native.LookupTree(treeOid)
	require.NoError(tr.t, err)

	defer tree.Free()

	sig := &git2go.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()}

	var parentCommits []*git2go.Commit

	for _, p := range parents {
		pc, lookupErr := tr.native.LookupCommit(p.ToOid())
		require.NoError(tr.t, lookupErr)

		parentCommits = append(parentCommits, pc)
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, "commit "+name, tree, parentCommits...)
	require.NoError(tr.t, err)

	for _, pc := range parentCommits {
		pc.Free()
	}

	return vcsref.HashFromOid(oid)
}

func TestRepo_ResolveAndSetRef(t *testing.T) {
	tr := newTestRepo(t)
	c1 := tr.commitFile("a.txt", "a")

	repo, err := vcsref.Open(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	ctx := context.Background()

	_, found, err := repo.Resolve(ctx, "refs/buildsched/missing")
	require.NoError(t, err)
	assert.False(t, found)

	err = repo.SetRef(ctx, "refs/buildsched/state/p/b/last_good", c1)
	require.NoError(t, err)

	got, found, err := repo.Resolve(ctx, "refs/buildsched/state/p/b/last_good")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, c1, got)

	err = repo.ClearRef(ctx, "refs/buildsched/state/p/b/last_good")
	require.NoError(t, err)

	_, found, err = repo.Resolve(ctx, "refs/buildsched/state/p/b/last_good")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRepo_ClearRefMissingIsNotError(t *testing.T) {
	tr := newTestRepo(t)
	tr.commitFile("a.txt", "a")

	repo, err := vcsref.Open(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	err = repo.ClearRef(context.Background(), "refs/buildsched/state/never/set")
	assert.NoError(t, err)
}

func TestRepo_ListCommitsAndIsAncestor(t *testing.T) {
	tr := newTestRepo(t)

	c1 := tr.commitFile("1.txt", "1")
	c2 := tr.commitFile("2.txt", "2", c1)
	c3 := tr.commitFile("3.txt", "3", c2)

	repo, err := vcsref.Open(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	ctx := context.Background()

	commits, err := repo.ListCommits(ctx, vcsref.ZeroHash(), c3)
	require.NoError(t, err)
	assert.Equal(t, []vcsref.Hash{c3, c2, c1}, commits)

	commits, err = repo.ListCommits(ctx, c1, c3)
	require.NoError(t, err)
	assert.Equal(t, []vcsref.Hash{c3, c2}, commits)

	isAncestor, err := repo.IsAncestor(ctx, c1, c3)
	require.NoError(t, err)
	assert.True(t, isAncestor)

	isAncestor, err = repo.IsAncestor(ctx, c3, c1)
	require.NoError(t, err)
	assert.False(t, isAncestor)

	isAncestor, err = repo.IsAncestor(ctx, c2, c2)
	require.NoError(t, err)
	assert.True(t, isAncestor)
}

func TestRepo_Distance(t *testing.T) {
	tr := newTestRepo(t)

	c1 := tr.commitFile("1.txt", "1")
	c2 := tr.commitFile("2.txt", "2", c1)
	c3 := tr.commitFile("3.txt", "3", c2)

	repo, err := vcsref.Open(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	distance, err := repo.Distance(context.Background(), c1, c3)
	require.NoError(t, err)
	assert.Equal(t, 2, distance)
}

func TestRepo_HeadResolvesBranch(t *testing.T) {
	tr := newTestRepo(t)
	c1 := tr.commitFile("1.txt", "1")

	headRef, err := tr.native.Head()
	require.NoError(t, err)

	branch := headRef.Shorthand()
	headRef.Free()

	repo, err := vcsref.Open(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	head, err := repo.Head(context.Background(), branch)
	require.NoError(t, err)
	assert.Equal(t, c1, head)
}

func TestRepo_HeadUnknownBranch(t *testing.T) {
	tr := newTestRepo(t)
	tr.commitFile("1.txt", "1")

	repo, err := vcsref.Open(tr.path)
	require.NoError(t, err)

	defer repo.Free()

	_, err = repo.Head(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, vcsref.ErrTransport)
}

func TestOpen_NotFound(t *testing.T) {
	_, err := vcsref.Open(t.TempDir() + "/missing")
	assert.Error(t, err)
}
