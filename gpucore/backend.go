package gpucore

// Backend abstracts the graphics API teardown and pooling primitives the
// frame lifecycle needs.
//
// This interface is the seam that lets the lifecycle code run on top of
// different backends (gogpu/wgpu HAL, test doubles).
//
// Threading:
//   - Pool calls (Create/Reset/Destroy/Allocate/Free on command and
//     descriptor pools) are made from the device's owning runner only.
//   - Destroy* calls are made while flushing a frame slot, also from the
//     owning runner.
//   - QueueFamilyIndex and SupportsReusableCommandBuffers may be called from
//     any goroutine.
//
// Resource lifecycle:
//   - Handles passed to Destroy* and Free* are owned by the backend afterwards
//   - A handle is never passed to teardown twice
//   - Teardown is only requested once no in-flight GPU work references it
type Backend interface {
	// === Capabilities ===

	// QueueFamilyIndex returns the physical queue family index that serves
	// family. Families with equal indices share command pools.
	QueueFamilyIndex(family QueueFamily) uint32

	// SupportsReusableCommandBuffers reports whether a command buffer can be
	// recorded again after its pool was reset. When false every per-frame
	// command buffer is single-use.
	SupportsReusableCommandBuffers() bool

	// === Command Pools ===

	// CreateCommandPool creates a pool for the physical queue family index.
	CreateCommandPool(familyIndex uint32) (CommandPool, error)

	// ResetCommandPool returns every buffer allocated from pool to the
	// initial state in one call. Reusable buffers stay allocated.
	ResetCommandPool(pool CommandPool) error

	// DestroyCommandPool releases the pool and any buffers still allocated
	// from it.
	DestroyCommandPool(pool CommandPool)

	// AllocateCommandBuffer allocates one primary command buffer from pool.
	AllocateCommandBuffer(pool CommandPool) (CommandBuffer, error)

	// FreeCommandBuffers returns buffers to the pool they came from.
	FreeCommandBuffers(pool CommandPool, buffers []CommandBuffer)

	// === Descriptor Pools ===

	// CreateDescriptorPool creates the per-device descriptor pool.
	CreateDescriptorPool(desc *DescriptorPoolDesc) (DescriptorPool, error)

	// DestroyDescriptorPool releases the pool.
	DestroyDescriptorPool(pool DescriptorPool)

	// FreeDescriptorSets returns sets to pool in one call.
	FreeDescriptorSets(pool DescriptorPool, sets []DescriptorSet)

	// === Teardown ===

	// DestroyDescriptorSetLayout releases a descriptor set layout.
	DestroyDescriptorSetLayout(layout DescriptorSetLayout)

	// DestroyImageView releases an image view.
	DestroyImageView(view ImageView)

	// DestroyImage releases an image and its memory in memory.
	DestroyImage(image Image, memory MemoryPool)

	// DestroyBuffer releases a buffer and its memory in memory.
	DestroyBuffer(buffer Buffer, memory MemoryPool)

	// DestroySemaphore releases a semaphore.
	DestroySemaphore(semaphore Semaphore)

	// DestroyFence releases a fence.
	DestroyFence(fence Fence)

	// DestroyPrimitiveAccelerationStructure releases a bottom-level structure.
	DestroyPrimitiveAccelerationStructure(as PrimitiveAccelerationStructure)

	// DestroyInstanceAccelerationStructure releases a top-level structure.
	DestroyInstanceAccelerationStructure(as InstanceAccelerationStructure)
}
