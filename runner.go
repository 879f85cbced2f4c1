package inflight

import (
	"context"

	"github.com/gogpu/inflight/jobs"
)

// Runner is the job runner thread abstraction the coordinator consumes.
// [*jobs.Runner] implements it.
type Runner interface {
	// IsExecuting reports whether ctx belongs to a job running on this runner.
	IsExecuting(ctx context.Context) bool

	// RunNextJob runs one more ready job without blocking and reports
	// whether it ran one.
	RunNextJob(ctx context.Context) bool

	// QueueExclusive schedules job to run on this runner only and reports
	// whether it was accepted. A runner that has shut down returns false.
	// It may be called from any goroutine.
	QueueExclusive(job jobs.Job) bool
}

// RunnerLookup maps a context to the runner executing it.
type RunnerLookup func(ctx context.Context) (Runner, bool)

// CurrentRunner is the default RunnerLookup, backed by [jobs.Current].
func CurrentRunner(ctx context.Context) (Runner, bool) {
	r, ok := jobs.Current(ctx)
	if !ok {
		return nil, false
	}
	return r, true
}

var _ Runner = (*jobs.Runner)(nil)

// inlineRunner is the owner used when none is configured: every caller is
// treated as the owner and has no jobs to pump.
type inlineRunner struct{}

func (inlineRunner) IsExecuting(context.Context) bool { return true }
func (inlineRunner) RunNextJob(context.Context) bool  { return false }
func (inlineRunner) QueueExclusive(job jobs.Job) bool {
	job(context.Background())
	return true
}
