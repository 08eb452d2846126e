// Package history walks a repository's commits and feeds them to an
// anger.Aggregate, either sequentially or through a worker pipeline.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/sondr3/git-anger-management/internal/anger"
	"github.com/sondr3/git-anger-management/internal/observability"
	"github.com/sondr3/git-anger-management/pkg/gitlib"
	"github.com/sondr3/git-anger-management/pkg/words"
)

// ErrRepositoryAccess marks failures to open or traverse the repository.
var ErrRepositoryAccess = errors.New("repository access failed")

// MaxWorkers caps Options.Workers; larger values are clamped to it.
const MaxWorkers = 256

// maxBuffer caps Options.Buffer.
const maxBuffer = 4 * MaxWorkers

// Options configures a scan.
type Options struct {
	// Words is the flagged-word list; nil selects words.Default().
	Words *words.List
	// Logger receives skip warnings; nil selects slog.Default().
	Logger *slog.Logger
	// Metrics records scan counters; nil disables metrics.
	Metrics *observability.ScanMetrics

	// Workers > 1 enables the concurrent pipeline. Values above MaxWorkers
	// are clamped.
	Workers int
	// Buffer is the channel capacity of the pipeline; zero means Workers*2.
	// It is capped at 4*MaxWorkers.
	Buffer int

	Since       *time.Time
	Limit       int
	FirstParent bool
	// Reverse walks oldest commit first. The result does not depend on it,
	// only the order of skip warnings does.
	Reverse bool
}

func (o Options) list() *words.List {
	if o.Words != nil {
		return o.Words
	}

	return words.Default()
}

func (o Options) workers() int {
	return min(o.Workers, MaxWorkers)
}

func (o Options) buffer() int {
	if o.Buffer <= 0 {
		return o.workers() * 2
	}

	return min(o.Buffer, maxBuffer)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.Default()
}

// Stats describes a finished scan.
type Stats struct {
	Ingested int
	Skipped  int
	Duration time.Duration
}

// Scan opens the repository at path, ingests every commit reachable from
// HEAD and returns the finalized result.
func Scan(ctx context.Context, path string, opts Options) (*anger.Repo, Stats, error) {
	start := time.Now()

	repo, err := gitlib.OpenLocal(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", ErrRepositoryAccess, err)
	}
	defer repo.Free()

	name, err := RepoName(path)
	if err != nil {
		return nil, Stats{}, err
	}

	iter, err := repo.Log(&gitlib.LogOptions{
		Since:       opts.Since,
		Limit:       opts.Limit,
		FirstParent: opts.FirstParent,
		Reverse:     opts.Reverse,
	})
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", ErrRepositoryAccess, err)
	}
	defer iter.Close()

	agg := anger.NewAggregate(name, opts.list())

	var stats Stats

	source := func(yield func(anger.Commit) error) error {
		var yieldErr error

		walkErr := iter.ForEach(func(c *gitlib.Commit) error {
			yieldErr = yield(FromGit(c))

			return yieldErr
		})
		if yieldErr != nil {
			return yieldErr
		}

		if walkErr != nil {
			return fmt.Errorf("%w: %w", ErrRepositoryAccess, walkErr)
		}

		return nil
	}

	if opts.workers() > 1 {
		stats, err = runPipeline(ctx, agg, source, opts)
	} else {
		stats, err = runSequential(ctx, agg, source, opts)
	}

	if err != nil {
		return nil, stats, err
	}

	result, err := agg.Finalize()
	if err != nil {
		return nil, stats, err
	}

	stats.Duration = time.Since(start)
	opts.Metrics.RecordScan(ctx, observability.ScanStats{
		Commits:  int64(stats.Ingested),
		Skipped:  int64(stats.Skipped),
		Curses:   int64(result.TotalCurses),
		Duration: stats.Duration,
	})

	return result, stats, nil
}

// Source pushes commits to yield in traversal order. It stops early and
// returns the error when yield fails.
type Source func(yield func(anger.Commit) error) error

// errStopped is used internally to unwind a Source when the scan is canceled.
var errStopped = errors.New("scan stopped")

// Ingest drives agg sequentially from commits. It is the building block of
// Scan and is exported for callers that already hold commits in memory.
func Ingest(ctx context.Context, agg *anger.Aggregate, commits []anger.Commit, opts Options) (Stats, error) {
	source := func(yield func(anger.Commit) error) error {
		for _, c := range commits {
			err := yield(c)
			if err != nil {
				return err
			}
		}

		return nil
	}

	if opts.workers() > 1 {
		return runPipeline(ctx, agg, source, opts)
	}

	return runSequential(ctx, agg, source, opts)
}

func runSequential(ctx context.Context, agg *anger.Aggregate, source Source, opts Options) (Stats, error) {
	var stats Stats

	logger := opts.logger()

	err := source(func(c anger.Commit) error {
		if ctx.Err() != nil {
			return errStopped
		}

		ingestErr := agg.Ingest(c)
		if errors.Is(ingestErr, anger.ErrSkippedCommit) {
			stats.Skipped++
			logSkip(ctx, logger, c, ingestErr)

			return nil
		}

		if ingestErr != nil {
			return ingestErr
		}

		stats.Ingested++

		return nil
	})

	if errors.Is(err, errStopped) {
		return stats, fmt.Errorf("scan canceled: %w", ctx.Err())
	}

	return stats, err
}

func logSkip(ctx context.Context, logger *slog.Logger, c anger.Commit, err error) {
	logger.WarnContext(ctx, "skipping commit because either the commit author or message is missing",
		"commit", c.ID, "reason", err)
}

// FromGit converts a libgit2 commit. An author name that is empty or not
// valid UTF-8 counts as missing, as does a message that is not valid UTF-8.
func FromGit(c *gitlib.Commit) anger.Commit {
	return newCommit(c.Hash().String(), c.Author().Name, c.Message())
}

func newCommit(id, author, message string) anger.Commit {
	return anger.Commit{
		ID:         id,
		Author:     author,
		Message:    message,
		HasAuthor:  author != "" && utf8.ValidString(author),
		HasMessage: utf8.ValidString(message),
	}
}

// RepoName derives the repository name from the final component of path,
// falling back to the working directory name when path has none.
func RepoName(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	name := filepath.Base(abs)
	if name != string(filepath.Separator) && name != "." {
		return name, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	return filepath.Base(cwd), nil
}
