// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"context"
	"fmt"

	"github.com/gogpu/inflight"
	"github.com/gogpu/inflight/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// Submit finishes bufs, submits them with a fresh fence and returns without
// waiting. A watcher goroutine waits for the fence, destroys it and then
// calls done with nil, ErrFenceTimeout or the wait error.
//
// If Submit returns an error nothing was submitted and done is never called.
func (b *Backend) Submit(ctx context.Context, bufs []*CommandBuffer, done func(error)) error {
	raws := make([]hal.CommandBuffer, 0, len(bufs))
	for _, cb := range bufs {
		raw, err := cb.Finish()
		if err != nil {
			return err
		}
		raws = append(raws, raw)
	}

	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	if err := b.queue.Submit(raws, fence, 1); err != nil {
		b.device.DestroyFence(fence)
		b.failed.Add(1)
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	b.submitted.Add(1)

	b.pending.Add(1)
	go b.watch(ctx, fence, len(raws), done)
	return nil
}

func (b *Backend) watch(ctx context.Context, fence hal.Fence, buffers int, done func(error)) {
	defer b.pending.Done()

	ok, err := b.device.Wait(fence, 1, b.fenceTimeout)
	if err == nil && !ok {
		err = fmt.Errorf("%w after %v", ErrFenceTimeout, b.fenceTimeout)
	}
	b.device.DestroyFence(fence)

	if err != nil {
		b.failed.Add(1)
		b.logger().WarnContext(ctx, "wgpu: submission did not complete",
			"buffers", buffers,
			"err", err)
	} else {
		b.completed.Add(1)
	}
	if done != nil {
		done(err)
	}
}

// SubmitFrame submits per-frame command buffers obtained from
// c.GetPerFrameCommandBuffer and reports each one finished to c once the GPU
// is done with it, even when the submission fails or times out.
//
// The completion report runs on the watcher goroutine with a background
// context; it never claims to be the owner runner of ctx.
//
// The report can retire the frame and flush its slot, so c must be created
// with inflight.WithOwner. With the default inline owner that flush runs on
// the watcher goroutine, concurrently with the frame code of the next cycle.
func (b *Backend) SubmitFrame(
	ctx context.Context, c *inflight.Coordinator, id gpucore.DeviceID, slot gpucore.FrameSlot, bufs ...*CommandBuffer,
) error {
	finish := func(ctx context.Context) {
		for range bufs {
			c.OnPerFrameCommandBufferFinishedExecution(ctx, id, slot)
		}
	}
	err := b.Submit(ctx, bufs, func(error) {
		finish(context.Background())
	})
	if err != nil {
		finish(ctx)
		return err
	}
	return nil
}

// SubmitStats is a snapshot of the submission counters.
type SubmitStats struct {
	Submitted int64
	Completed int64
	Failed    int64
}

// Stats returns the submission counters.
func (b *Backend) Stats() SubmitStats {
	return SubmitStats{
		Submitted: b.submitted.Load(),
		Completed: b.completed.Load(),
		Failed:    b.failed.Load(),
	}
}

// Close waits until every submission watcher has finished. It does not
// destroy the HAL device, which the caller owns.
func (b *Backend) Close() {
	b.pending.Wait()
}
