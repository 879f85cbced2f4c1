package inflight

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/inflight/gpucore"
	"github.com/gogpu/inflight/internal/assert"
	"github.com/gogpu/inflight/jobs"
)

// Coordinator ties frame work tracking, deferred destruction and command
// pool recycling of every registered device to one owner runner.
//
// Start and Finish calls, Destroy calls and queries are safe from any
// goroutine. Pool resets and release queue flushes only run on the owner.
type Coordinator struct {
	frames FrameIndexSource
	owner  Runner
	runner RunnerLookup
	log    *slog.Logger

	// registry serializes RegisterDevice and UnregisterDevice. Lookups read
	// the device table atomically and never take it.
	registry sync.Mutex
	devices  [gpucore.MaxDevices]atomic.Pointer[device]

	flushes     atomic.Int64
	lostRaces   atomic.Int64
	misuses     atomic.Int64
	released    [gpucore.KindCount]atomic.Int64
	resetErrors atomic.Int64

	// afterTake, when set by tests, runs between detaching a slot's
	// resources and returning the slot to idle.
	afterTake func(id gpucore.DeviceID, slot gpucore.FrameSlot)
}

// New creates a coordinator reading the current frame slot from frames.
//
// Example:
//
//	var frames inflight.FrameCounter
//	pool := jobs.New(0)
//	c := inflight.New(&frames, inflight.WithOwner(pool.Runner(0)))
func New(frames FrameIndexSource, opts ...Option) *Coordinator {
	assert.That(frames != nil, "nil frame index source")

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.owner == nil {
		o.owner = inlineRunner{}
	}
	if o.logger == nil {
		o.logger = Logger()
	}

	return &Coordinator{
		frames: frames,
		owner:  o.owner,
		runner: o.lookup,
		log:    o.logger,
	}
}

// Owner returns the runner that performs frame flushes.
func (c *Coordinator) Owner() Runner { return c.owner }

// mustDevice returns the registration of id, asserting that it exists.
func (c *Coordinator) mustDevice(id gpucore.DeviceID, slot gpucore.FrameSlot) *device {
	assert.That(slot.Valid(), "frame slot %d out of range", slot)
	d := c.lookup(id)
	assert.That(d != nil, "device %d not registered", id)
	return d
}

// OnStartFrameCPUWork records the start of one CPU work unit of slot.
// Any number of units may run per frame, from any goroutine.
func (c *Coordinator) OnStartFrameCPUWork(id gpucore.DeviceID, slot gpucore.FrameSlot) {
	c.mustDevice(id, slot).frames[slot].state.StartCPU()
}

// OnFinishFrameCPUWork records the end of one CPU work unit of slot. When it
// retires the frame's last work the slot is flushed, inline if ctx belongs
// to the owner and as an exclusive owner job otherwise.
//
// A device that was unregistered concurrently is ignored.
func (c *Coordinator) OnFinishFrameCPUWork(ctx context.Context, id gpucore.DeviceID, slot gpucore.FrameSlot) {
	if !slot.Valid() {
		return
	}
	d := c.lookup(id)
	if d == nil {
		return
	}
	last, matched := d.frames[slot].state.FinishCPUChecked()
	if !matched {
		c.unmatchedFinish(ctx, d, slot, "cpu")
		return
	}
	if last {
		c.queueFinishFrameWork(ctx, d, slot)
	}
}

// OnStartFrameGPUWork records the start of one GPU work unit of slot. The
// frame's CPU side must have started.
func (c *Coordinator) OnStartFrameGPUWork(id gpucore.DeviceID, slot gpucore.FrameSlot) {
	c.mustDevice(id, slot).frames[slot].state.StartGPU()
}

// OnFinishFrameGPUWork records the end of one GPU work unit of slot and
// triggers the flush like OnFinishFrameCPUWork.
func (c *Coordinator) OnFinishFrameGPUWork(ctx context.Context, id gpucore.DeviceID, slot gpucore.FrameSlot) {
	d := c.mustDevice(id, slot)
	last, matched := d.frames[slot].state.FinishGPUChecked()
	if !matched {
		c.unmatchedFinish(ctx, d, slot, "gpu")
		return
	}
	if last {
		c.queueFinishFrameWork(ctx, d, slot)
	}
}

// unmatchedFinish handles a Finish without outstanding work. The call is a
// no-op; it is logged so the caller can be audited.
func (c *Coordinator) unmatchedFinish(ctx context.Context, d *device, slot gpucore.FrameSlot, side string) {
	c.misuses.Add(1)
	c.log.WarnContext(ctx, "inflight: finish without matching start",
		"device", d.id,
		"slot", slot,
		"work", side,
		"audit", true)
}

// queueFinishFrameWork schedules the flush of slot on the owner.
func (c *Coordinator) queueFinishFrameWork(ctx context.Context, d *device, slot gpucore.FrameSlot) {
	if c.owner.IsExecuting(ctx) {
		c.finishFrameWork(ctx, d.id, slot)
		return
	}
	id := d.id
	if !c.owner.QueueExclusive(func(ctx context.Context) {
		c.finishFrameWork(ctx, id, slot)
	}) {
		c.ownerStopped(ctx, "frame flush", func(ctx context.Context) {
			c.flushSlot(ctx, id, slot)
		})
	}
}

// finishFrameWork flushes a slot whose work has all retired and returns it
// to idle. It must run on the owner.
//
// Queued resources are detached before the slot is returned to idle and torn
// down only once that transition succeeded. If new work started in between,
// they go back to the queue untouched and the Finish that retires the new
// work schedules another flush.
func (c *Coordinator) finishFrameWork(ctx context.Context, id gpucore.DeviceID, slot gpucore.FrameSlot) {
	assert.That(c.owner.IsExecuting(ctx), "frame flush outside the owner runner")
	c.flushSlot(ctx, id, slot)
}

// flushSlot is finishFrameWork without the owner check, for an owner that
// has stopped.
func (c *Coordinator) flushSlot(ctx context.Context, id gpucore.DeviceID, slot gpucore.FrameSlot) {
	d := c.lookup(id)
	if d == nil {
		return
	}
	fd := &d.frames[slot]
	fd.flushing.Add(1)
	defer fd.flushing.Add(-1)

	if fd.state.IsProcessingFrame() || !fd.state.IsProcessingFrameOrAwaitingReset() {
		return
	}

	batch := fd.releases.Take()
	if c.afterTake != nil {
		c.afterTake(id, slot)
	}
	if !fd.state.TryFinishFrame() {
		fd.releases.Restore(batch)
		c.lostRaces.Add(1)
		c.log.DebugContext(ctx, "inflight: frame flush raced with new work",
			"device", id,
			"slot", slot,
			"deferred", batch.Len())
		return
	}

	if err := d.pools.RecycleFrame(slot); err != nil {
		c.resetErrors.Add(1)
		c.log.WarnContext(ctx, "inflight: command pool reset failed",
			"device", id,
			"slot", slot,
			"err", err)
	}

	counts := batch.Release(d.target)
	c.recordReleased(counts)

	c.flushes.Add(1)
	if c.log.Enabled(ctx, slog.LevelDebug) {
		c.log.DebugContext(ctx, "inflight: frame flushed",
			"device", id,
			"slot", slot,
			"released", sum(counts))
	}
}

// onOwner runs fn on the owner and waits for it to finish.
func (c *Coordinator) onOwner(ctx context.Context, fn jobs.Job) {
	if c.owner.IsExecuting(ctx) {
		fn(ctx)
		return
	}
	var done atomic.Bool
	if !c.owner.QueueExclusive(func(ctx context.Context) {
		fn(ctx)
		done.Store(true)
	}) {
		c.ownerStopped(ctx, "owner job", fn)
		return
	}
	c.await(ctx, done.Load)
}

// ownerStopped runs fn on the caller after the owner refused it. A stopped
// owner runs nothing else, so fn takes its place.
func (c *Coordinator) ownerStopped(ctx context.Context, what string, fn jobs.Job) {
	c.log.DebugContext(ctx, "inflight: owner stopped, running inline",
		"job", what)
	fn(ctx)
}

func (c *Coordinator) recordReleased(counts [gpucore.KindCount]int) {
	for k, n := range counts {
		if n > 0 {
			c.released[k].Add(int64(n))
		}
	}
}
