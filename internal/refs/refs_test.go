package refs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureRepo(t *testing.T) *git.Repository {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.adoc"), []byte("= A"), 0o644))
	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add("a.adoc")
	require.NoError(t, err)
	hash, err := w.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.org", When: time.Now()},
	})
	require.NoError(t, err)

	for _, branch := range []string{"v1.0", "v2.0", "develop"} {
		require.NoError(t, repo.Storer.SetReference(
			plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), hash)))
	}
	for _, tag := range []string{"rel-1.0", "rel-2.0"} {
		_, err := repo.CreateTag(tag, hash, nil)
		require.NoError(t, err)
	}
	return repo
}

func names(matched []Ref) []string {
	out := make([]string, len(matched))
	for i, r := range matched {
		out[i] = r.Name
	}
	return out
}

func TestEnumerateBranchPatterns(t *testing.T) {
	repo := fixtureRepo(t)

	matched, err := Enumerate(repo, []string{"v*"}, nil, "master")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1.0", "v2.0"}, names(matched))
	for _, r := range matched {
		assert.Equal(t, TypeBranch, r.Type)
	}
}

func TestEnumerateHeadSubstitution(t *testing.T) {
	repo := fixtureRepo(t)

	matched, err := Enumerate(repo, []string{"HEAD"}, nil, "master")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "master", matched[0].Name)
}

func TestEnumerateHeadSubstitutionLeavesLiteralNames(t *testing.T) {
	repo := fixtureRepo(t)
	head, err := repo.Head()
	require.NoError(t, err)
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("HEADLINE-1"), head.Hash())))

	// HEAD embedded in a longer name is not a token.
	matched, err := Enumerate(repo, []string{"HEADLINE*"}, nil, "master")
	require.NoError(t, err)
	assert.Equal(t, []string{"HEADLINE-1"}, names(matched))

	// A standalone token inside a brace alternative still resolves.
	matched, err = Enumerate(repo, []string{"{HEAD,v1.0}"}, nil, "master")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"master", "v1.0"}, names(matched))
}

func TestEnumerateNegation(t *testing.T) {
	repo := fixtureRepo(t)

	matched, err := Enumerate(repo, []string{"v*", "!v1.0"}, nil, "master")
	require.NoError(t, err)
	assert.Equal(t, []string{"v2.0"}, names(matched))
}

func TestEnumerateTags(t *testing.T) {
	repo := fixtureRepo(t)

	matched, err := Enumerate(repo, nil, []string{"rel-*"}, "master")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"rel-1.0", "rel-2.0"}, names(matched))
	for _, r := range matched {
		assert.Equal(t, TypeTag, r.Type)
	}
}

func TestEnumerateEmptyCategoryYieldsNothing(t *testing.T) {
	repo := fixtureRepo(t)

	matched, err := Enumerate(repo, nil, nil, "master")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestEnumerateDeduplicatesRemoteTracking(t *testing.T) {
	repo := fixtureRepo(t)
	head, err := repo.Head()
	require.NoError(t, err)

	// Remote-tracking refs as a bare cache clone would have them: one shadows
	// a local branch, one exists only remotely, plus the origin/HEAD pointer.
	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(
		plumbing.NewRemoteReferenceName("origin", "develop"), head.Hash())))
	require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(
		plumbing.NewRemoteReferenceName("origin", "release"), head.Hash())))
	require.NoError(t, repo.Storer.SetReference(plumbing.NewSymbolicReference(
		plumbing.NewRemoteHEADReferenceName("origin"),
		plumbing.NewBranchReferenceName("master"))))

	matched, err := Enumerate(repo, []string{"develop", "release"}, nil, "master")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"develop", "release"}, names(matched))

	byName := map[string]Ref{}
	for _, r := range matched {
		byName[r.Name] = r
	}
	// The local develop wins over its remote-tracking shadow.
	assert.True(t, byName["develop"].FullName.IsBranch())
	assert.True(t, byName["release"].FullName.IsRemote())
}

func TestResolveCommit(t *testing.T) {
	repo := fixtureRepo(t)
	head, err := repo.Head()
	require.NoError(t, err)

	matched, err := Enumerate(repo, []string{"v1.0"}, []string{"rel-1.0"}, "master")
	require.NoError(t, err)
	require.Len(t, matched, 2)
	for _, r := range matched {
		hash, err := ResolveCommit(repo, r)
		require.NoError(t, err)
		assert.Equal(t, head.Hash(), hash)
	}

	_, err = ResolveCommit(repo, Ref{
		Name: "gone", Type: TypeBranch,
		FullName: plumbing.NewBranchReferenceName("gone"),
	})
	require.Error(t, err)
}
