package inflight

import (
	"context"
	"fmt"

	"github.com/gogpu/inflight/gpucore"
	"github.com/gogpu/inflight/internal/assert"
)

// GetPerFrameCommandBuffer returns a command buffer from the per-frame pool
// of (id, family, slot) and starts one GPU work unit for it. Report the
// buffer's completion with OnPerFrameCommandBufferFinishedExecution.
//
// The buffer is recycled, or reclaimed when buffers are single-use, once the
// frame retires. It must not be released through the Destroy family.
//
// It must run on the owner. On error no GPU work stays recorded.
func (c *Coordinator) GetPerFrameCommandBuffer(
	ctx context.Context, id gpucore.DeviceID, family gpucore.QueueFamily, slot gpucore.FrameSlot,
) (gpucore.CommandBuffer, error) {
	assert.That(family.Valid(), "invalid queue family %v", family)
	assert.That(c.owner.IsExecuting(ctx), "per-frame command buffer requested outside the owner runner")

	d := c.mustDevice(id, slot)
	d.frames[slot].state.StartGPU()

	cb, err := d.pools.Pool(slot, family).Acquire()
	if err != nil {
		c.OnFinishFrameGPUWork(ctx, id, slot)
		return nil, fmt.Errorf("inflight: device %d slot %d %v: %w", id, slot, family, err)
	}
	return cb, nil
}

// OnPerFrameCommandBufferFinishedExecution reports that a command buffer from
// GetPerFrameCommandBuffer finished executing on the GPU.
func (c *Coordinator) OnPerFrameCommandBufferFinishedExecution(ctx context.Context, id gpucore.DeviceID, slot gpucore.FrameSlot) {
	c.OnFinishFrameGPUWork(ctx, id, slot)
}

// CommandPool returns the device-wide command pool of family, or nil for an
// unknown device. Families aliasing one physical family share a pool.
func (c *Coordinator) CommandPool(id gpucore.DeviceID, family gpucore.QueueFamily) gpucore.CommandPool {
	d := c.lookup(id)
	if d == nil || !family.Valid() {
		return nil
	}
	return d.pools.CommandPool(family)
}

// DescriptorPool returns the descriptor pool of id, or nil for an unknown
// device.
func (c *Coordinator) DescriptorPool(id gpucore.DeviceID) gpucore.DescriptorPool {
	d := c.lookup(id)
	if d == nil {
		return nil
	}
	return d.descriptors
}
