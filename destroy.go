package inflight

import (
	"github.com/gogpu/inflight/gpucore"
	"github.com/gogpu/inflight/internal/assert"
)

// defaultReleaseSlot is the slot resources are queued on when the caller
// names none: the slot after the one being recorded. Every other slot of the
// ring retires before it comes around again.
func (c *Coordinator) defaultReleaseSlot() gpucore.FrameSlot {
	return c.frames.CurrentFrameIndex().Next()
}

// Destroy queues resources for destruction once the slot after the current
// frame retires. Every resource must be valid; ownership of the handles
// moves to the coordinator.
func (c *Coordinator) Destroy(id gpucore.DeviceID, res ...gpucore.Resource) {
	c.DestroyAt(id, c.defaultReleaseSlot(), res...)
}

// DestroyAt queues resources for destruction once slot retires.
func (c *Coordinator) DestroyAt(id gpucore.DeviceID, slot gpucore.FrameSlot, res ...gpucore.Resource) {
	if len(res) == 0 {
		return
	}
	for _, r := range res {
		assert.That(r.Valid(), "destroy of invalid resource %v", r)
	}
	c.mustDevice(id, slot).frames[slot].releases.Enqueue(res...)
}

func wrap[H any](handles []H, fn func(H) gpucore.Resource) []gpucore.Resource {
	res := make([]gpucore.Resource, len(handles))
	for i, h := range handles {
		res[i] = fn(h)
	}
	return res
}

// DestroyDescriptorSet queues descriptor sets on the default slot.
func (c *Coordinator) DestroyDescriptorSet(id gpucore.DeviceID, sets ...gpucore.DescriptorSet) {
	c.DestroyDescriptorSetAt(id, c.defaultReleaseSlot(), sets...)
}

// DestroyDescriptorSetAt queues descriptor sets on slot.
func (c *Coordinator) DestroyDescriptorSetAt(id gpucore.DeviceID, slot gpucore.FrameSlot, sets ...gpucore.DescriptorSet) {
	c.DestroyAt(id, slot, wrap(sets, gpucore.DescriptorSetResource)...)
}

// DestroyDescriptorSetLayout queues descriptor set layouts on the default slot.
func (c *Coordinator) DestroyDescriptorSetLayout(id gpucore.DeviceID, layouts ...gpucore.DescriptorSetLayout) {
	c.DestroyDescriptorSetLayoutAt(id, c.defaultReleaseSlot(), layouts...)
}

// DestroyDescriptorSetLayoutAt queues descriptor set layouts on slot.
func (c *Coordinator) DestroyDescriptorSetLayoutAt(id gpucore.DeviceID, slot gpucore.FrameSlot, layouts ...gpucore.DescriptorSetLayout) {
	c.DestroyAt(id, slot, wrap(layouts, gpucore.DescriptorSetLayoutResource)...)
}

// DestroyImageView queues image views on the default slot.
func (c *Coordinator) DestroyImageView(id gpucore.DeviceID, views ...gpucore.ImageView) {
	c.DestroyImageViewAt(id, c.defaultReleaseSlot(), views...)
}

// DestroyImageViewAt queues image views on slot.
func (c *Coordinator) DestroyImageViewAt(id gpucore.DeviceID, slot gpucore.FrameSlot, views ...gpucore.ImageView) {
	c.DestroyAt(id, slot, wrap(views, gpucore.ImageViewResource)...)
}

// DestroyImage queues images on the default slot.
func (c *Coordinator) DestroyImage(id gpucore.DeviceID, images ...gpucore.Image) {
	c.DestroyImageAt(id, c.defaultReleaseSlot(), images...)
}

// DestroyImageAt queues images on slot.
func (c *Coordinator) DestroyImageAt(id gpucore.DeviceID, slot gpucore.FrameSlot, images ...gpucore.Image) {
	c.DestroyAt(id, slot, wrap(images, gpucore.ImageResource)...)
}

// DestroyBuffer queues buffers on the default slot.
func (c *Coordinator) DestroyBuffer(id gpucore.DeviceID, buffers ...gpucore.Buffer) {
	c.DestroyBufferAt(id, c.defaultReleaseSlot(), buffers...)
}

// DestroyBufferAt queues buffers on slot.
func (c *Coordinator) DestroyBufferAt(id gpucore.DeviceID, slot gpucore.FrameSlot, buffers ...gpucore.Buffer) {
	c.DestroyAt(id, slot, wrap(buffers, gpucore.BufferResource)...)
}

// DestroyCommandBuffer queues command buffers allocated from the device-wide
// pool of family on the default slot.
func (c *Coordinator) DestroyCommandBuffer(id gpucore.DeviceID, family gpucore.QueueFamily, buffers ...gpucore.CommandBuffer) {
	c.DestroyCommandBufferAt(id, c.defaultReleaseSlot(), family, buffers...)
}

// DestroyCommandBufferAt queues command buffers of family on slot.
func (c *Coordinator) DestroyCommandBufferAt(
	id gpucore.DeviceID, slot gpucore.FrameSlot, family gpucore.QueueFamily, buffers ...gpucore.CommandBuffer,
) {
	c.DestroyAt(id, slot, wrap(buffers, func(cb gpucore.CommandBuffer) gpucore.Resource {
		return gpucore.CommandBufferResource(family, cb)
	})...)
}

// DestroySemaphore queues semaphores on the default slot.
func (c *Coordinator) DestroySemaphore(id gpucore.DeviceID, semaphores ...gpucore.Semaphore) {
	c.DestroySemaphoreAt(id, c.defaultReleaseSlot(), semaphores...)
}

// DestroySemaphoreAt queues semaphores on slot.
func (c *Coordinator) DestroySemaphoreAt(id gpucore.DeviceID, slot gpucore.FrameSlot, semaphores ...gpucore.Semaphore) {
	c.DestroyAt(id, slot, wrap(semaphores, gpucore.SemaphoreResource)...)
}

// DestroyFence queues fences on the default slot.
func (c *Coordinator) DestroyFence(id gpucore.DeviceID, fences ...gpucore.Fence) {
	c.DestroyFenceAt(id, c.defaultReleaseSlot(), fences...)
}

// DestroyFenceAt queues fences on slot.
func (c *Coordinator) DestroyFenceAt(id gpucore.DeviceID, slot gpucore.FrameSlot, fences ...gpucore.Fence) {
	c.DestroyAt(id, slot, wrap(fences, gpucore.FenceResource)...)
}

// DestroyPrimitiveAccelerationStructure queues bottom-level acceleration
// structures on the default slot.
func (c *Coordinator) DestroyPrimitiveAccelerationStructure(id gpucore.DeviceID, as ...gpucore.PrimitiveAccelerationStructure) {
	c.DestroyPrimitiveAccelerationStructureAt(id, c.defaultReleaseSlot(), as...)
}

// DestroyPrimitiveAccelerationStructureAt queues bottom-level acceleration
// structures on slot.
func (c *Coordinator) DestroyPrimitiveAccelerationStructureAt(
	id gpucore.DeviceID, slot gpucore.FrameSlot, as ...gpucore.PrimitiveAccelerationStructure,
) {
	c.DestroyAt(id, slot, wrap(as, gpucore.PrimitiveAccelerationStructureResource)...)
}

// DestroyInstanceAccelerationStructure queues top-level acceleration
// structures on the default slot.
func (c *Coordinator) DestroyInstanceAccelerationStructure(id gpucore.DeviceID, as ...gpucore.InstanceAccelerationStructure) {
	c.DestroyInstanceAccelerationStructureAt(id, c.defaultReleaseSlot(), as...)
}

// DestroyInstanceAccelerationStructureAt queues top-level acceleration
// structures on slot.
func (c *Coordinator) DestroyInstanceAccelerationStructureAt(
	id gpucore.DeviceID, slot gpucore.FrameSlot, as ...gpucore.InstanceAccelerationStructure,
) {
	c.DestroyAt(id, slot, wrap(as, gpucore.InstanceAccelerationStructureResource)...)
}

// PendingReleases returns how many resources of kind are queued on slot of id.
func (c *Coordinator) PendingReleases(id gpucore.DeviceID, slot gpucore.FrameSlot, kind gpucore.Kind) int {
	d := c.lookup(id)
	if d == nil || !slot.Valid() || kind >= gpucore.KindCount {
		return 0
	}
	return d.frames[slot].releases.Len(kind)
}
