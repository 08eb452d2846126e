package history

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sondr3/git-anger-management/internal/anger"
)

// scanResult carries either a Partial or the skip error of one commit.
type scanResult struct {
	commit anger.Commit
	part   anger.Partial
	err    error
}

// runPipeline fans commit scanning out to opts.workers() goroutines. A single
// consumer, the calling goroutine, applies every Partial, so the aggregate
// is never mutated concurrently. On cancellation the aggregate holds only
// whole commits.
func runPipeline(ctx context.Context, agg *anger.Aggregate, source Source, opts Options) (Stats, error) {
	buffer := opts.buffer()

	list := opts.list()
	logger := opts.logger()

	jobs := make(chan anger.Commit, buffer)
	results := make(chan scanResult, buffer)

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(jobs)

		return source(func(c anger.Commit) error {
			select {
			case jobs <- c:
				return nil
			case <-gctx.Done():
				return errStopped
			}
		})
	})

	scanners, sctx := errgroup.WithContext(gctx)

	for range opts.workers() {
		scanners.Go(func() error {
			for c := range jobs {
				part, err := anger.Scan(list, c)

				select {
				case results <- scanResult{commit: c, part: part, err: err}:
				case <-sctx.Done():
					return errStopped
				}
			}

			return nil
		})
	}

	group.Go(func() error {
		defer close(results)

		return scanners.Wait()
	})

	var (
		stats    Stats
		applyErr error
	)

	for res := range results {
		if applyErr != nil || gctx.Err() != nil {
			continue
		}

		if res.err != nil {
			stats.Skipped++
			logSkip(ctx, logger, res.commit, res.err)

			continue
		}

		applyErr = agg.Apply(res.part)
		if applyErr == nil {
			stats.Ingested++
		}
	}

	err := group.Wait()

	switch {
	case applyErr != nil:
		return stats, applyErr
	case ctx.Err() != nil:
		return stats, fmt.Errorf("scan canceled: %w", ctx.Err())
	case err != nil && !errors.Is(err, errStopped):
		return stats, err
	}

	return stats, nil
}
