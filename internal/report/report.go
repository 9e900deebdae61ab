// =============================================================================
// Legacy Mongo Migrator - Progress & Summary Reporter
// =============================================================================
//
// The reporter accumulates the five run counters and guarantees the balance
// invariant at the end of every run:
//
//   committed + skipped_existing + skipped_unresolved + failed == considered
//
// Progress is emitted at a fixed fraction of the total work (every 5%), not
// on a wall-clock timer, so the output cadence is the same against a local
// store and a slow remote one. The final summary is identical in shape for
// dry and real runs.
//
// =============================================================================

package report

import (
	"time"

	"go.uber.org/zap"
)

// progressSteps is the number of progress lines emitted across a full run.
const progressSteps = 20

// Reporter accumulates the per-category counters for one run.
type Reporter struct {
	log   *zap.Logger
	runID string
	label string

	total    int
	interval int
	start    time.Time

	considered        int
	committed         int
	skippedExisting   int
	skippedUnresolved int
	failed            int
}

// New builds a reporter for a run over total candidate units.
func New(log *zap.Logger, runID, label string, total int) *Reporter {
	interval := total / progressSteps
	if interval < 1 {
		interval = 1
	}
	return &Reporter{
		log:      log,
		runID:    runID,
		label:    label,
		total:    total,
		interval: interval,
		start:    time.Now(),
	}
}

// Considered records one candidate entering the pipeline and emits progress
// at the fixed fraction.
func (r *Reporter) Considered() {
	r.considered++
	if r.considered%r.interval == 0 && r.total > 0 {
		r.log.Info("progress",
			zap.String("run_id", r.runID),
			zap.String("what", r.label),
			zap.Int("processed", r.considered),
			zap.Int("total", r.total),
			zap.Int("pct", r.considered*100/r.total))
	}
}

// Committed records n successfully written (or dry-run confirmed) units.
func (r *Reporter) Committed(n int) { r.committed += n }

// SkippedExisting records n units skipped because the canonical document
// already exists.
func (r *Reporter) SkippedExisting(n int) { r.skippedExisting += n }

// SkippedUnresolved records n units skipped because a reference or match
// could not be resolved.
func (r *Reporter) SkippedUnresolved(n int) { r.skippedUnresolved += n }

// Failed records n units that failed during a flush.
func (r *Reporter) Failed(n int) { r.failed += n }

// Counts returns the current counter values in summary order: considered,
// committed, skipped-existing, skipped-unresolved, failed.
func (r *Reporter) Counts() (considered, committed, skippedExisting, skippedUnresolved, failed int) {
	return r.considered, r.committed, r.skippedExisting, r.skippedUnresolved, r.failed
}

// Balanced reports whether the counters satisfy the balance invariant.
func (r *Reporter) Balanced() bool {
	return r.committed+r.skippedExisting+r.skippedUnresolved+r.failed == r.considered
}

// Summary emits the final run report. Dry and real runs produce the same
// fields; only the mode tag differs.
func (r *Reporter) Summary(dryRun bool) {
	mode := "applied"
	if dryRun {
		mode = "dry-run"
	}
	r.log.Info("run summary",
		zap.String("run_id", r.runID),
		zap.String("what", r.label),
		zap.String("mode", mode),
		zap.Int("considered", r.considered),
		zap.Int("committed", r.committed),
		zap.Int("skipped_existing", r.skippedExisting),
		zap.Int("skipped_unresolved", r.skippedUnresolved),
		zap.Int("failed", r.failed),
		zap.Bool("balanced", r.Balanced()),
		zap.Duration("elapsed", time.Since(r.start)))
}
