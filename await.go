package inflight

import (
	"context"
	"runtime"

	"github.com/gogpu/inflight/gpucore"
)

// IsProcessingFrame reports whether slot of id has outstanding CPU or GPU
// work. Unknown devices report false.
func (c *Coordinator) IsProcessingFrame(id gpucore.DeviceID, slot gpucore.FrameSlot) bool {
	d := c.lookup(id)
	if d == nil || !slot.Valid() {
		return false
	}
	return d.frames[slot].state.IsProcessingFrame()
}

// IsProcessingAnyFrames reports whether any slot in mask of id has
// outstanding work.
func (c *Coordinator) IsProcessingAnyFrames(id gpucore.DeviceID, mask gpucore.FrameMask) bool {
	d := c.lookup(id)
	if d == nil {
		return false
	}
	for _, slot := range mask.Slots() {
		if d.frames[slot].state.IsProcessingFrame() {
			return true
		}
	}
	return false
}

// IsProcessingFrameOnAnyDevice reports whether slot has outstanding work on
// any registered device.
func (c *Coordinator) IsProcessingFrameOnAnyDevice(slot gpucore.FrameSlot) bool {
	return c.IsProcessingAnyFramesOnAnyDevice(slot.Mask())
}

// IsProcessingAnyFramesOnAnyDevice reports whether any slot in mask has
// outstanding work on any registered device.
func (c *Coordinator) IsProcessingAnyFramesOnAnyDevice(mask gpucore.FrameMask) bool {
	for id := range c.devices {
		if c.IsProcessingAnyFrames(gpucore.DeviceID(id), mask) {
			return true
		}
	}
	return false
}

// AwaitFrameFinish blocks until slot of id has retired and been flushed.
//
// When ctx belongs to a job runner the caller keeps running that runner's
// ready jobs while it waits, so work the frame depends on still progresses
// even if it is queued behind the caller. Otherwise it busy-waits. There is
// no timeout and ctx cancellation is not observed.
func (c *Coordinator) AwaitFrameFinish(ctx context.Context, id gpucore.DeviceID, slot gpucore.FrameSlot) {
	c.AwaitAnyFramesFinish(ctx, id, slot.Mask())
}

// AwaitAnyFramesFinish blocks until every slot in mask of id has retired and
// been flushed. See AwaitFrameFinish.
func (c *Coordinator) AwaitAnyFramesFinish(ctx context.Context, id gpucore.DeviceID, mask gpucore.FrameMask) {
	d := c.lookup(id)
	if d == nil {
		return
	}
	for _, slot := range mask.Slots() {
		c.await(ctx, d.frames[slot].settled)
	}
}

// AwaitFrameFinishAll waits for slot on every registered device.
func (c *Coordinator) AwaitFrameFinishAll(ctx context.Context, slot gpucore.FrameSlot) {
	c.AwaitAnyFramesFinishAll(ctx, slot.Mask())
}

// AwaitAnyFramesFinishAll waits for every slot in mask on every registered
// device.
func (c *Coordinator) AwaitAnyFramesFinishAll(ctx context.Context, mask gpucore.FrameMask) {
	for id := range c.devices {
		c.AwaitAnyFramesFinish(ctx, gpucore.DeviceID(id), mask)
	}
}

// await spins until done reports true, pumping the caller's runner if it
// has one.
func (c *Coordinator) await(ctx context.Context, done func() bool) {
	if r, ok := c.runner(ctx); ok {
		for !done() {
			if !r.RunNextJob(ctx) {
				runtime.Gosched()
			}
		}
		return
	}
	for !done() {
		runtime.Gosched()
	}
}
