// Package jobs provides the job runner threads the frame lifecycle runs on.
//
// A [Pool] owns a fixed set of [Runner] goroutines. Each runner has its own
// work queue, steals from the others when idle and additionally owns an
// exclusive queue whose jobs only ever run on that runner. Jobs receive a
// context that identifies the runner executing them, so code deep inside a
// job can find its runner with [Current] and cooperatively run more work
// while it waits.
package jobs

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Job is a unit of work. ctx identifies the runner executing it and must not
// be retained past the job's return.
type Job func(ctx context.Context)

// Pool is a pool of runner goroutines.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	runners []*Runner

	// done signals runners to stop.
	done chan struct{}

	// wg waits for all runners to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool
}

// New creates a pool with the given number of runners.
// If workers is 0 or negative, GOMAXPROCS is used.
// The runners start immediately.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &Pool{
		runners: make([]*Runner, workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.runners[i] = newRunner(p, i, queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for _, r := range p.runners {
		go r.loop()
	}

	return p
}

// Runner returns the runner with index i.
func (p *Pool) Runner(i int) *Runner { return p.runners[i] }

// Workers returns the number of runners in the pool.
func (p *Pool) Workers() int { return len(p.runners) }

// IsRunning returns true if the pool is still accepting work.
func (p *Pool) IsRunning() bool { return p.running.Load() }

// QueuedWork returns the total number of queued jobs, exclusive ones
// included. This is an approximation as queues can change while iterating.
func (p *Pool) QueuedWork() int {
	total := 0
	for _, r := range p.runners {
		total += r.queued()
	}
	return total
}

// Submit sends one job to the runner with the shortest queue.
// If the pool is closed, this is a no-op.
func (p *Pool) Submit(job Job) {
	if job == nil || !p.running.Load() {
		return
	}

	minIdx, minLen := 0, len(p.runners[0].queue)
	for i := 1; i < len(p.runners); i++ {
		if n := len(p.runners[i].queue); n < minLen {
			minIdx, minLen = i, n
		}
	}
	p.runners[minIdx].Submit(job)
}

// ExecuteAll distributes jobs across runners and waits for all to complete.
//
// When ctx belongs to one of the pool's runners the wait is cooperative: the
// caller keeps running queued jobs instead of blocking its runner. If the
// pool is closed, this is a no-op.
func (p *Pool) ExecuteAll(ctx context.Context, jobs []Job) {
	if len(jobs) == 0 || !p.running.Load() {
		return
	}

	var remaining atomic.Int64
	remaining.Add(int64(len(jobs)))
	var wg sync.WaitGroup
	wg.Add(len(jobs))

	cur, onRunner := Current(ctx)
	onRunner = onRunner && cur.pool == p

	for i, job := range jobs {
		wrapped := func(ctx context.Context) {
			defer wg.Done()
			defer remaining.Add(-1)
			job(ctx)
		}
		r := p.runners[i%len(p.runners)]
		if !onRunner {
			if !r.submit(wrapped) {
				// Pool is closing
				wg.Done()
				remaining.Add(-1)
			}
			continue
		}
		// A runner must not block on a full queue it may be the one to drain.
		select {
		case r.queue <- wrapped:
		default:
			cur.run(wrapped)
		}
	}

	if onRunner {
		for remaining.Load() > 0 {
			if !cur.RunNextJob(ctx) {
				runtime.Gosched()
			}
		}
	}
	wg.Wait()
}

// Close gracefully shuts down the pool. It stops accepting new work, lets
// every runner drain its queues and then waits for the runners to exit.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	// A QueueExclusive that saw the pool running has appended by the time
	// its runner's lock is free again, so drain will find the job.
	for _, r := range p.runners {
		r.exclusiveMu.Lock()
		r.exclusiveMu.Unlock()
	}
	close(p.done)
	p.wg.Wait()
}
