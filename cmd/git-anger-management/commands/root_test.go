package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sondr3/git-anger-management/cmd/git-anger-management/commands"
	"github.com/sondr3/git-anger-management/internal/config"
	"github.com/sondr3/git-anger-management/internal/history"
	"github.com/sondr3/git-anger-management/internal/render"
	"github.com/sondr3/git-anger-management/pkg/gitlib"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the command tree with args. A config file path is always
// passed so a developer's own .git-anger.yaml cannot leak into the test.
func execute(t *testing.T, args ...string) result {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{}\n"), 0o600))

	return executeWithConfig(t, cfgPath, args...)
}

func executeWithConfig(t *testing.T, cfgPath string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := cmd.Execute()

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func fixture(t *testing.T) string {
	t.Helper()

	repo := gitlib.NewTestRepo(t)
	repo.Fixture()

	return repo.Path()
}

func TestRoot_Table(t *testing.T) {
	t.Parallel()

	res := execute(t, "--no-color", fixture(t))
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "John Doe")
	assert.Contains(t, res.stdout, "Sondre Nilsen")
	assert.Contains(t, res.stdout, "Overall")
	assert.Contains(t, res.stderr, "Crunching commits...")
}

func TestRoot_Quiet(t *testing.T) {
	t.Parallel()

	res := execute(t, "-q", fixture(t))
	require.NoError(t, res.err)

	assert.NotContains(t, res.stderr, "Crunching commits...")
}

func TestRoot_SummaryOnly(t *testing.T) {
	t.Parallel()

	path := fixture(t)

	res := execute(t, "-q", "-r", path)
	require.NoError(t, res.err)

	assert.Equal(t, filepath.Base(path)+": (5/4) naughty commits/commits\n", res.stdout)
}

func TestRoot_JSON(t *testing.T) {
	t.Parallel()

	res := execute(t, "-q", "-j", fixture(t))
	require.NoError(t, res.err)

	require.NoError(t, render.Validate([]byte(res.stdout)))

	var report struct {
		TotalCommits int `json:"total_commits"`
		TotalCurses  int `json:"total_curses"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &report))

	assert.Equal(t, 4, report.TotalCommits)
	assert.Equal(t, 5, report.TotalCurses)
}

func TestRoot_FormatYAMLParallel(t *testing.T) {
	t.Parallel()

	res := execute(t, "-q", "--format", "yaml", "--workers", "4", fixture(t))
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "total_commits: 4")
	assert.Contains(t, res.stdout, "total_curses: 5")
}

func TestRoot_Limit(t *testing.T) {
	t.Parallel()

	path := fixture(t)

	res := execute(t, "-q", "-r", "--limit", "2", path)
	require.NoError(t, res.err)

	assert.Equal(t, filepath.Base(path)+": (2/2) naughty commits/commits\n", res.stdout)
}

func TestRoot_Verbose(t *testing.T) {
	t.Parallel()

	res := execute(t, "-v", "-r", fixture(t))
	require.NoError(t, res.err)

	assert.Contains(t, res.stderr, "Took ")
	assert.Contains(t, res.stderr, "to parse 4 commits in")
}

func TestRoot_CustomWords(t *testing.T) {
	t.Parallel()

	path := fixture(t)
	wordsPath := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(wordsPath, []byte("typo\nreadme\n"), 0o600))

	res := execute(t, "-q", "-r", "--words", wordsPath, path)
	require.NoError(t, res.err)

	assert.Equal(t, filepath.Base(path)+": (2/4) naughty commits/commits\n", res.stdout)
}

func TestRoot_ConfigFile(t *testing.T) {
	t.Parallel()

	path := fixture(t)
	cfgPath := filepath.Join(t.TempDir(), "anger.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  format: yaml\n"), 0o600))

	res := executeWithConfig(t, cfgPath, "-q", path)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "total_curses: 5")

	res = executeWithConfig(t, cfgPath, "-q", "--format", "json", path)
	require.NoError(t, res.err)
	assert.NoError(t, render.Validate([]byte(res.stdout)))
}

func TestRoot_InvalidFlags(t *testing.T) {
	t.Parallel()

	path := fixture(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"format", []string{"--format", "xml"}, config.ErrInvalidFormat},
		{"sort", []string{"--sort", "random"}, config.ErrInvalidSort},
		{"workers", []string{"--workers", "-1"}, config.ErrInvalidWorkers},
		{"too many workers", []string{"--workers", "100000"}, config.ErrInvalidWorkers},
		{"since", []string{"--since", "yesterday"}, config.ErrInvalidSince},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := execute(t, append(tt.args, "-q", path)...)
			assert.ErrorIs(t, res.err, tt.want)
		})
	}
}

func TestRoot_NotARepository(t *testing.T) {
	t.Parallel()

	res := execute(t, "-q", t.TempDir())
	assert.ErrorIs(t, res.err, history.ErrRepositoryAccess)
}

func TestRoot_TooManyArgs(t *testing.T) {
	t.Parallel()

	res := execute(t, "one", "two")
	assert.Error(t, res.err)
}
