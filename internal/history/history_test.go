package history_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sondr3/git-anger-management/internal/anger"
	"github.com/sondr3/git-anger-management/internal/history"
	"github.com/sondr3/git-anger-management/pkg/gitlib"
	"github.com/sondr3/git-anger-management/pkg/words"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var discardLogger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

func fixtureRepo(t *testing.T) string {
	t.Helper()

	tr := gitlib.NewTestRepo(t)
	tr.Fixture()

	return tr.Path()
}

func TestScan_Fixture(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{0, 1, 4} {
		repo, stats, err := history.Scan(context.Background(), fixtureRepo(t), history.Options{
			Logger:  discardLogger,
			Workers: workers,
		})
		require.NoError(t, err, "workers=%d", workers)

		assert.Len(t, repo.Authors, 2)
		assert.Equal(t, 4, repo.TotalCommits)
		// John 2 + Sondre 3; the total follows additivity over the authors.
		assert.Equal(t, 5, repo.TotalCurses)
		assert.Equal(t, 4, stats.Ingested)
		assert.Zero(t, stats.Skipped)

		john := repo.Authors["John Doe"]
		require.NotNil(t, john)
		assert.Equal(t, 2, john.TotalCurses)
		assert.Equal(t, 1, john.Curses["bloody"])
		assert.Equal(t, 1, john.Curses["damn"])

		sondre := repo.Authors["Sondre Nilsen"]
		require.NotNil(t, sondre)
		assert.Equal(t, 3, sondre.TotalCurses)
		assert.Equal(t, 3, sondre.TotalCommits)
	}
}

func TestScan_OrderDoesNotMatter(t *testing.T) {
	t.Parallel()

	path := fixtureRepo(t)

	newest, _, err := history.Scan(context.Background(), path, history.Options{Logger: discardLogger})
	require.NoError(t, err)

	oldest, _, err := history.Scan(context.Background(), path, history.Options{Logger: discardLogger, Reverse: true})
	require.NoError(t, err)

	parallel, _, err := history.Scan(context.Background(), path, history.Options{Logger: discardLogger, Workers: 3, Buffer: 1})
	require.NoError(t, err)

	assert.Equal(t, newest, oldest)
	assert.Equal(t, newest, parallel)
}

func TestScan_RepositoryName(t *testing.T) {
	t.Parallel()

	repo, _, err := history.Scan(context.Background(), fixtureRepo(t), history.Options{Logger: discardLogger})
	require.NoError(t, err)

	assert.NotEmpty(t, repo.Name)
	assert.NotContains(t, repo.Name, string(filepath.Separator))
}

func TestScan_Limit(t *testing.T) {
	t.Parallel()

	repo, _, err := history.Scan(context.Background(), fixtureRepo(t), history.Options{Logger: discardLogger, Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, repo.TotalCommits)
	assert.Equal(t, 2, repo.TotalCurses, "newest two commits: fucking, shitty")
}

func TestScan_CustomWords(t *testing.T) {
	t.Parallel()

	repo, _, err := history.Scan(context.Background(), fixtureRepo(t), history.Options{
		Logger: discardLogger,
		Words:  words.New([]string{"typo", "readme"}),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, repo.TotalCurses)
	assert.Equal(t, map[string]int{"typo": 1, "readme": 1}, repo.Curses)
}

func TestScan_NotARepository(t *testing.T) {
	t.Parallel()

	_, _, err := history.Scan(context.Background(), t.TempDir(), history.Options{Logger: discardLogger})
	require.ErrorIs(t, err, history.ErrRepositoryAccess)
}

func TestScan_EmptyRepository(t *testing.T) {
	t.Parallel()

	tr := gitlib.NewTestRepo(t)

	_, _, err := history.Scan(context.Background(), tr.Path(), history.Options{Logger: discardLogger})
	require.ErrorIs(t, err, history.ErrRepositoryAccess)
}

func TestScan_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		_, _, err := history.Scan(ctx, fixtureRepo(t), history.Options{Logger: discardLogger, Workers: workers})
		require.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
}

func TestIngest_WarnsAndSkips(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))
	list := words.New([]string{"damn"})

	commits := []anger.Commit{
		anger.NewCommit("aaa", "Jane", "damn"),
		{ID: "bbb", Message: "damn", HasMessage: true},
		anger.NewCommit("ccc", "Jane", "fine"),
		{ID: "ddd", Author: "Jane", HasAuthor: true},
	}

	for _, workers := range []int{1, 2} {
		buf.Reset()

		agg := anger.NewAggregate("repo", list)

		stats, err := history.Ingest(context.Background(), agg, commits, history.Options{
			Words:   list,
			Logger:  logger,
			Workers: workers,
		})
		require.NoError(t, err)

		assert.Equal(t, 2, stats.Ingested)
		assert.Equal(t, 2, stats.Skipped)
		assert.Equal(t, 2, agg.TotalCommits())
		assert.Equal(t, 1, agg.TotalCurses())

		out := buf.String()
		assert.Equal(t, 2, strings.Count(out, "level=WARN"))
		assert.Contains(t, out, "commit=bbb")
		assert.Contains(t, out, "commit=ddd")
	}
}

func TestIngest_ManyCommitsParallel(t *testing.T) {
	t.Parallel()

	list := words.New([]string{"damn", "heck"})

	var commits []anger.Commit

	for i := range 500 {
		author := []string{"a", "b", "c"}[i%3]
		commits = append(commits, anger.NewCommit(strings.Repeat("x", i%7+1), author, "damn heck, damn"))
	}

	seq := anger.NewAggregate("repo", list)
	_, err := history.Ingest(context.Background(), seq, commits, history.Options{Words: list, Logger: discardLogger})
	require.NoError(t, err)

	par := anger.NewAggregate("repo", list)
	_, err = history.Ingest(context.Background(), par, commits, history.Options{Words: list, Logger: discardLogger, Workers: 8})
	require.NoError(t, err)

	want, err := seq.Finalize()
	require.NoError(t, err)

	got, err := par.Finalize()
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, 1500, got.TotalCurses)
}

func TestIngest_HugeWorkerCountIsClamped(t *testing.T) {
	t.Parallel()

	list := words.New([]string{"damn"})
	commits := []anger.Commit{
		anger.NewCommit("a1", "a", "damn"),
		anger.NewCommit("b1", "b", "fine"),
	}

	for _, opts := range []history.Options{
		{Words: list, Logger: discardLogger, Workers: 1 << 62},
		{Words: list, Logger: discardLogger, Workers: history.MaxWorkers + 1, Buffer: 1 << 62},
	} {
		agg := anger.NewAggregate("repo", list)

		stats, err := history.Ingest(context.Background(), agg, commits, opts)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Ingested)

		repo, err := agg.Finalize()
		require.NoError(t, err)
		assert.Equal(t, 1, repo.TotalCurses)
		assert.Equal(t, 2, repo.TotalCommits)
	}
}

func TestRepoName(t *testing.T) {
	t.Parallel()

	name, err := history.RepoName("/tmp/some/project")
	require.NoError(t, err)
	assert.Equal(t, "project", name)

	name, err = history.RepoName("/tmp/some/project/")
	require.NoError(t, err)
	assert.Equal(t, "project", name)

	cwd, err := os.Getwd()
	require.NoError(t, err)

	name, err = history.RepoName(".")
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(cwd), name)

	name, err = history.RepoName("/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(cwd), name)
}
