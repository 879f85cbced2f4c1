package jobs

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Pool Creation Tests
// =============================================================================

func TestPool_Create(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("Pool should be running after creation")
	}
	for i := 0; i < 4; i++ {
		if pool.Runner(i).ID() != i {
			t.Errorf("Runner(%d).ID() = %d", i, pool.Runner(i).ID())
		}
	}
}

func TestPool_CreateZeroWorkers(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	if want := runtime.GOMAXPROCS(0); pool.Workers() != want {
		t.Errorf("Workers() = %d, want %d (GOMAXPROCS)", pool.Workers(), want)
	}
}

// =============================================================================
// Current Tests
// =============================================================================

func TestCurrent_OutsidePool(t *testing.T) {
	if _, ok := Current(context.Background()); ok {
		t.Error("Current(Background) reported a runner")
	}
	//nolint:staticcheck // nil context is part of the contract.
	if _, ok := Current(nil); ok {
		t.Error("Current(nil) reported a runner")
	}
}

func TestCurrent_InsideJob(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	got := make(chan *Runner, 1)
	pool.Runner(1).QueueExclusive(func(ctx context.Context) {
		r, _ := Current(ctx)
		got <- r
	})

	select {
	case r := <-got:
		if r != pool.Runner(1) {
			t.Errorf("Current() = runner %v, want runner 1", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("exclusive job did not run")
	}
}

// =============================================================================
// Submit / ExecuteAll Tests
// =============================================================================

func TestPool_Submit(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	var counter atomic.Int32
	var wg sync.WaitGroup
	const n = 100
	wg.Add(n)
	for i := 0; i < n; i++ {
		pool.Submit(func(context.Context) {
			counter.Add(1)
			wg.Done()
		})
	}
	wg.Wait()

	if counter.Load() != n {
		t.Errorf("counter = %d, want %d", counter.Load(), n)
	}
}

func TestPool_ExecuteAll(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]Job, 100)
	for i := range work {
		work[i] = func(context.Context) { counter.Add(1) }
	}
	pool.ExecuteAll(context.Background(), work)

	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
}

func TestPool_ExecuteAllNestedOnRunner(t *testing.T) {
	// A single runner must pump the nested jobs itself.
	pool := New(1)
	defer pool.Close()

	var inner atomic.Int64
	done := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		work := make([]Job, 50)
		for i := range work {
			work[i] = func(context.Context) { inner.Add(1) }
		}
		pool.ExecuteAll(ctx, work)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("nested ExecuteAll deadlocked")
	}
	if inner.Load() != 50 {
		t.Errorf("inner = %d, want 50", inner.Load())
	}
}

// =============================================================================
// Runner Tests
// =============================================================================

func TestRunner_QueueExclusiveStaysOnRunner(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	target := pool.Runner(2)
	var wrong atomic.Int32
	var wg sync.WaitGroup
	const n = 200
	wg.Add(n)
	for i := 0; i < n; i++ {
		target.QueueExclusive(func(ctx context.Context) {
			defer wg.Done()
			if !target.IsExecuting(ctx) {
				wrong.Add(1)
			}
		})
	}
	wg.Wait()

	if wrong.Load() != 0 {
		t.Errorf("%d exclusive jobs ran on another runner", wrong.Load())
	}
}

func TestRunner_RunNextJobForeignContext(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	if pool.Runner(0).RunNextJob(context.Background()) {
		t.Error("RunNextJob ran a job off its runner")
	}

	got := make(chan bool, 1)
	pool.Runner(1).QueueExclusive(func(ctx context.Context) {
		got <- pool.Runner(0).IsExecuting(ctx) || pool.Runner(0).RunNextJob(ctx)
	})
	if <-got {
		t.Error("runner 1 context was accepted by runner 0")
	}
}

func TestRunner_CooperativeWait(t *testing.T) {
	// The job waits for work that is queued behind it on its own runner.
	pool := New(1)
	defer pool.Close()

	r := pool.Runner(0)
	done := make(chan struct{})
	r.QueueExclusive(func(ctx context.Context) {
		var flag atomic.Bool
		r.QueueExclusive(func(context.Context) { flag.Store(true) })
		for !flag.Load() {
			if !r.RunNextJob(ctx) {
				runtime.Gosched()
			}
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cooperative wait deadlocked")
	}
	if r.Executed() < 2 {
		t.Errorf("Executed() = %d, want at least 2", r.Executed())
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestPool_CloseDrains(t *testing.T) {
	pool := New(2)

	var counter atomic.Int32
	block := make(chan struct{})
	if !pool.Runner(0).QueueExclusive(func(context.Context) { <-block }) {
		t.Fatal("QueueExclusive() = false on a running pool")
	}
	for i := 0; i < 5; i++ {
		pool.Runner(0).QueueExclusive(func(context.Context) { counter.Add(1) })
	}
	close(block)
	pool.Close()

	if counter.Load() != 5 {
		t.Errorf("counter = %d after Close, want 5", counter.Load())
	}
	if pool.IsRunning() {
		t.Error("Pool should not be running after Close")
	}
}

func TestPool_CloseIdempotent(t *testing.T) {
	pool := New(2)
	pool.Close()
	pool.Close()

	// Work after Close is dropped.
	pool.Submit(func(context.Context) { t.Error("job ran after Close") })
	if pool.Runner(0).QueueExclusive(func(context.Context) { t.Error("exclusive job ran after Close") }) {
		t.Error("QueueExclusive() = true after Close")
	}
	pool.ExecuteAll(context.Background(), []Job{func(context.Context) { t.Error("ExecuteAll ran after Close") }})

	if pool.QueuedWork() != 0 {
		t.Errorf("QueuedWork() = %d after Close", pool.QueuedWork())
	}
}

func TestRunner_QueueExclusiveNil(t *testing.T) {
	pool := New(1)
	defer pool.Close()

	if pool.Runner(0).QueueExclusive(nil) {
		t.Error("QueueExclusive(nil) = true")
	}
}
