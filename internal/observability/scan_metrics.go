package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const (
	metricScansTotal   = "anger.scans.total"
	metricScanDuration = "anger.scan.duration.seconds"
	metricCommitsTotal = "anger.commits.total"
	metricSkippedTotal = "anger.commits.skipped.total"
	metricCursesTotal  = "anger.curses.total"
)

// ScanMetrics holds the instruments describing history scans.
type ScanMetrics struct {
	scansTotal   metric.Int64Counter
	scanDuration metric.Float64Histogram
	commitsTotal metric.Int64Counter
	skippedTotal metric.Int64Counter
	cursesTotal  metric.Int64Counter
}

// ScanStats summarizes one finished scan.
type ScanStats struct {
	Commits  int64
	Skipped  int64
	Curses   int64
	Duration time.Duration
}

// NewScanMetrics creates scan metric instruments from the given meter.
func NewScanMetrics(mt metric.Meter) (*ScanMetrics, error) {
	b := newMetricBuilder(mt)

	sm := &ScanMetrics{
		scansTotal:   b.counter(metricScansTotal, "Completed repository scans", "{scan}"),
		scanDuration: b.histogram(metricScanDuration, "Wall time of a repository scan", "s", durationBucketBoundaries...),
		commitsTotal: b.counter(metricCommitsTotal, "Commits ingested", "{commit}"),
		skippedTotal: b.counter(metricSkippedTotal, "Commits skipped for a missing author or message", "{commit}"),
		cursesTotal:  b.counter(metricCursesTotal, "Flagged words found", "{word}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return sm, nil
}

// RecordScan records a completed scan. Safe to call on a nil receiver.
func (sm *ScanMetrics) RecordScan(ctx context.Context, stats ScanStats) {
	if sm == nil {
		return
	}

	sm.scansTotal.Add(ctx, 1)
	sm.scanDuration.Record(ctx, stats.Duration.Seconds())
	sm.commitsTotal.Add(ctx, stats.Commits)
	sm.skippedTotal.Add(ctx, stats.Skipped)
	sm.cursesTotal.Add(ctx, stats.Curses)
}
