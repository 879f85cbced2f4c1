package gpucore

import "fmt"

// Kind is the class of a deferred-destruction resource. Each kind has its own
// release list and teardown entry point so that kinds can be freed in bulk.
type Kind uint8

// Resource kinds, in flush order.
const (
	KindDescriptorSet Kind = iota
	KindDescriptorSetLayout
	KindImageView
	KindImage
	KindBuffer
	KindCommandBuffer
	KindSemaphore
	KindFence
	KindAccelerationStructure

	// KindCount is the number of resource kinds.
	KindCount
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDescriptorSet:
		return "DescriptorSet"
	case KindDescriptorSetLayout:
		return "DescriptorSetLayout"
	case KindImageView:
		return "ImageView"
	case KindImage:
		return "Image"
	case KindBuffer:
		return "Buffer"
	case KindCommandBuffer:
		return "CommandBuffer"
	case KindSemaphore:
		return "Semaphore"
	case KindFence:
		return "Fence"
	case KindAccelerationStructure:
		return "AccelerationStructure"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Resource is a handle tagged with its kind, ready to be queued for
// deferred destruction. Build one with the constructor for its handle type.
//
// Ownership of the handle moves to whoever holds the Resource; after it is
// queued the caller must not use the handle again.
type Resource struct {
	kind     Kind
	family   QueueFamily
	instance bool
	handle   any
}

// DescriptorSetResource wraps a descriptor set.
func DescriptorSetResource(s DescriptorSet) Resource {
	return Resource{kind: KindDescriptorSet, handle: s}
}

// DescriptorSetLayoutResource wraps a descriptor set layout.
func DescriptorSetLayoutResource(l DescriptorSetLayout) Resource {
	return Resource{kind: KindDescriptorSetLayout, handle: l}
}

// ImageViewResource wraps an image view.
func ImageViewResource(v ImageView) Resource {
	return Resource{kind: KindImageView, handle: v}
}

// ImageResource wraps an image.
func ImageResource(img Image) Resource {
	return Resource{kind: KindImage, handle: img}
}

// BufferResource wraps a buffer.
func BufferResource(b Buffer) Resource {
	return Resource{kind: KindBuffer, handle: b}
}

// CommandBufferResource wraps a command buffer allocated from the device
// command pool of family.
func CommandBufferResource(family QueueFamily, cb CommandBuffer) Resource {
	return Resource{kind: KindCommandBuffer, family: family, handle: cb}
}

// SemaphoreResource wraps a semaphore.
func SemaphoreResource(s Semaphore) Resource {
	return Resource{kind: KindSemaphore, handle: s}
}

// FenceResource wraps a fence.
func FenceResource(f Fence) Resource {
	return Resource{kind: KindFence, handle: f}
}

// PrimitiveAccelerationStructureResource wraps a bottom-level acceleration structure.
func PrimitiveAccelerationStructureResource(as PrimitiveAccelerationStructure) Resource {
	return Resource{kind: KindAccelerationStructure, handle: as}
}

// InstanceAccelerationStructureResource wraps a top-level acceleration structure.
func InstanceAccelerationStructureResource(as InstanceAccelerationStructure) Resource {
	return Resource{kind: KindAccelerationStructure, instance: true, handle: as}
}

// Kind returns the resource kind.
func (r Resource) Kind() Kind { return r.kind }

// Handle returns the wrapped backend handle.
func (r Resource) Handle() any { return r.handle }

// Family returns the queue family of a command buffer resource.
func (r Resource) Family() QueueFamily { return r.family }

// IsInstance reports whether an acceleration structure resource is top-level.
func (r Resource) IsInstance() bool { return r.instance }

// Valid reports whether the resource carries a handle of a known kind.
// Command buffers must also name a valid queue family.
func (r Resource) Valid() bool {
	if r.handle == nil || r.kind >= KindCount {
		return false
	}
	if r.kind == KindCommandBuffer {
		return r.family.Valid()
	}
	return true
}

// String returns a short description for logs.
func (r Resource) String() string {
	switch {
	case r.kind == KindCommandBuffer:
		return fmt.Sprintf("%s(%s)", r.kind, r.family)
	case r.kind == KindAccelerationStructure && r.instance:
		return "AccelerationStructure(instance)"
	case r.kind == KindAccelerationStructure:
		return "AccelerationStructure(primitive)"
	default:
		return r.kind.String()
	}
}
