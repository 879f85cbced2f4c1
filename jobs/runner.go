package jobs

import (
	"context"
	"sync"
	"sync/atomic"
)

type runnerKey struct{}

// Current returns the runner executing the job that received ctx.
func Current(ctx context.Context) (*Runner, bool) {
	if ctx == nil {
		return nil, false
	}
	r, ok := ctx.Value(runnerKey{}).(*Runner)
	return r, ok && r != nil
}

// Runner is one goroutine of a Pool.
type Runner struct {
	pool *Pool
	id   int
	ctx  context.Context

	// queue holds jobs any runner may steal.
	queue chan Job

	// exclusive holds jobs that only this runner may run.
	exclusiveMu sync.Mutex
	exclusive   []Job

	// wake is signaled when an exclusive job arrives.
	wake chan struct{}

	executed atomic.Int64
	stolen   atomic.Int64
}

func newRunner(p *Pool, id, queueSize int) *Runner {
	r := &Runner{
		pool:  p,
		id:    id,
		queue: make(chan Job, queueSize),
		wake:  make(chan struct{}, 1),
	}
	r.ctx = context.WithValue(context.Background(), runnerKey{}, r)
	return r
}

// ID returns the runner's index in its pool.
func (r *Runner) ID() int { return r.id }

// Executed returns the number of jobs this runner has run.
func (r *Runner) Executed() int64 { return r.executed.Load() }

// Stolen returns the number of jobs this runner took from other runners.
func (r *Runner) Stolen() int64 { return r.stolen.Load() }

// IsExecuting reports whether ctx was handed out by this runner, meaning the
// caller runs on this runner's goroutine.
func (r *Runner) IsExecuting(ctx context.Context) bool {
	cur, ok := Current(ctx)
	return ok && cur == r
}

// Submit queues a stealable job on this runner.
// If the pool is closed, this is a no-op.
func (r *Runner) Submit(job Job) {
	r.submit(job)
}

// submit reports whether job was queued.
func (r *Runner) submit(job Job) bool {
	if job == nil || !r.pool.running.Load() {
		return false
	}
	select {
	case r.queue <- job:
		return true
	case <-r.pool.done:
		return false
	}
}

// QueueExclusive queues a job that is guaranteed to run on this runner only.
// Exclusive jobs run before any stealable work. It reports whether the job
// was queued; once the pool is closed it returns false and the job will
// never run.
func (r *Runner) QueueExclusive(job Job) bool {
	if job == nil {
		return false
	}
	// running is checked under the lock so Close cannot miss the job.
	r.exclusiveMu.Lock()
	if !r.pool.running.Load() {
		r.exclusiveMu.Unlock()
		return false
	}
	r.exclusive = append(r.exclusive, job)
	r.exclusiveMu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return true
}

// RunNextJob runs one ready job without blocking and reports whether it
// found one. Exclusive jobs come first, then the runner's own queue, then
// jobs stolen from other runners.
//
// It only runs jobs when ctx belongs to this runner; from any other caller it
// returns false.
func (r *Runner) RunNextJob(ctx context.Context) bool {
	if !r.IsExecuting(ctx) {
		return false
	}

	if job := r.popExclusive(); job != nil {
		r.run(job)
		return true
	}

	select {
	case job := <-r.queue:
		r.run(job)
		return true
	default:
	}

	if job := r.steal(); job != nil {
		r.stolen.Add(1)
		r.run(job)
		return true
	}
	return false
}

func (r *Runner) run(job Job) {
	r.executed.Add(1)
	job(r.ctx)
}

func (r *Runner) popExclusive() Job {
	r.exclusiveMu.Lock()
	defer r.exclusiveMu.Unlock()
	if len(r.exclusive) == 0 {
		return nil
	}
	job := r.exclusive[0]
	r.exclusive[0] = nil
	r.exclusive = r.exclusive[1:]
	return job
}

// steal attempts to take work from another runner's queue.
// Returns nil if no work is available.
func (r *Runner) steal() Job {
	for _, other := range r.pool.runners {
		if other == r {
			continue
		}
		select {
		case job := <-other.queue:
			return job
		default:
		}
	}
	return nil
}

func (r *Runner) queued() int {
	r.exclusiveMu.Lock()
	n := len(r.exclusive)
	r.exclusiveMu.Unlock()
	return n + len(r.queue)
}

// loop is the main loop of the runner goroutine.
func (r *Runner) loop() {
	defer r.pool.wg.Done()

	for {
		if r.RunNextJob(r.ctx) {
			continue
		}

		// No work available anywhere, block until something arrives.
		select {
		case <-r.pool.done:
			r.drain()
			return
		case <-r.wake:
		case job := <-r.queue:
			r.run(job)
		}
	}
}

// drain runs every job left in the runner's own queues.
func (r *Runner) drain() {
	for {
		if job := r.popExclusive(); job != nil {
			r.run(job)
			continue
		}
		select {
		case job := <-r.queue:
			r.run(job)
		default:
			return
		}
	}
}
