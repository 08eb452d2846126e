package gitlib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
)

// fixtureFile is rewritten on every TestRepo commit so each commit has a tree change.
const fixtureFile = "CHANGELOG"

// TestRepo builds throwaway repositories for tests in this and other packages.
type TestRepo struct {
	t      testing.TB
	path   string
	native *git2go.Repository
	clock  time.Time
}

// NewTestRepo initializes an empty repository in a temporary directory.
// The repository is freed when the test finishes.
func NewTestRepo(t testing.TB) *TestRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &TestRepo{
		t:      t,
		path:   dir,
		native: repo,
		clock:  time.Date(2019, time.January, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Path returns the working directory of the repository.
func (tr *TestRepo) Path() string {
	return tr.path
}

// Commit records a commit by author with the given message on HEAD. Author
// timestamps increase by one hour per commit.
func (tr *TestRepo) Commit(author, message string) Hash {
	tr.t.Helper()

	tr.clock = tr.clock.Add(time.Hour)

	return tr.CommitAt(author, message, tr.clock)
}

// CommitAt is Commit with an explicit author and committer time.
func (tr *TestRepo) CommitAt(author, message string, when time.Time) Hash {
	tr.t.Helper()

	return tr.CommitAs(author, message, when, when)
}

// CommitAs is CommitAt with separate author and committer times, as left
// behind by a rebase or cherry-pick.
func (tr *TestRepo) CommitAs(author, message string, authored, committed time.Time) Hash {
	tr.t.Helper()

	err := os.WriteFile(filepath.Join(tr.path, fixtureFile), []byte(message), 0o600)
	require.NoError(tr.t, err)

	index, err := tr.native.Index()
	require.NoError(tr.t, err)

	defer index.Free()

	require.NoError(tr.t, index.AddByPath(fixtureFile))
	require.NoError(tr.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(tr.t, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.t, err)

	defer tree.Free()

	authorSig := &git2go.Signature{Name: author, Email: "dev@example.com", When: authored}
	committerSig := &git2go.Signature{Name: author, Email: "dev@example.com", When: committed}

	var parents []*git2go.Commit

	head, err := tr.native.Head()
	if err == nil {
		headCommit, lookupErr := tr.native.LookupCommit(head.Target())
		require.NoError(tr.t, lookupErr)

		parents = append(parents, headCommit)

		head.Free()
	}

	oid, err := tr.native.CreateCommit("HEAD", authorSig, committerSig, message, tree, parents...)
	require.NoError(tr.t, err)

	for _, parent := range parents {
		parent.Free()
	}

	return HashFromOid(oid)
}

// Fixture creates the example history used across the test suites: four
// commits by two authors with five flagged words between them.
func (tr *TestRepo) Fixture() {
	tr.t.Helper()

	tr.Commit("Sondre Nilsen", "Initial commit, what the fuck")
	tr.Commit("John Doe", "Bloody build, damn it")
	tr.Commit("Sondre Nilsen", "Add a fucking README")
	tr.Commit("Sondre Nilsen", "Fix shitty typo")
}
