package gpucore

import (
	"fmt"
	"math/bits"
)

// MaxFramesInFlight is the size of the frame slot ring. The CPU may record
// slot N+1 while the GPU still executes slot N.
const MaxFramesInFlight = 3

// MaxDevices bounds the number of logical devices that can be registered at
// the same time. DeviceID values must be below it.
const MaxDevices = 32

// DeviceID identifies a logical device context.
type DeviceID uint8

// Valid reports whether the id fits the device table.
func (id DeviceID) Valid() bool { return id < MaxDevices }

// FrameSlot indexes the ring of concurrently in-flight frames.
type FrameSlot uint8

// Valid reports whether the slot is inside the ring.
func (s FrameSlot) Valid() bool { return s < MaxFramesInFlight }

// Next returns the slot after s, wrapping around the ring.
func (s FrameSlot) Next() FrameSlot { return (s + 1) % MaxFramesInFlight }

// Mask returns a FrameMask selecting only s.
func (s FrameSlot) Mask() FrameMask { return 1 << s }

// FrameMask selects a set of frame slots, bit i for slot i.
type FrameMask uint8

// AllFrames selects every slot of the ring.
const AllFrames FrameMask = 1<<MaxFramesInFlight - 1

// Has reports whether slot s is selected.
func (m FrameMask) Has(s FrameSlot) bool { return m&(1<<s) != 0 }

// Slots returns the selected slots in ascending order.
// Bits beyond MaxFramesInFlight are ignored.
func (m FrameMask) Slots() []FrameSlot {
	m &= AllFrames
	slots := make([]FrameSlot, 0, bits.OnesCount8(uint8(m)))
	for m != 0 {
		i := bits.TrailingZeros8(uint8(m))
		slots = append(slots, FrameSlot(i))
		m &^= 1 << i
	}
	return slots
}

// QueueFamily is a GPU submission channel capability. Values are single bits
// so that callers can combine them into capability sets.
type QueueFamily uint8

// Queue families.
const (
	QueueFamilyGraphics QueueFamily = 1 << 0
	QueueFamilyCompute  QueueFamily = 1 << 1
	QueueFamilyTransfer QueueFamily = 1 << 2
)

// QueueFamilyCount is the number of distinct queue families.
const QueueFamilyCount = 3

// QueueFamilies lists every family in index order.
var QueueFamilies = [QueueFamilyCount]QueueFamily{
	QueueFamilyGraphics,
	QueueFamilyCompute,
	QueueFamilyTransfer,
}

// Valid reports whether f is exactly one known family.
func (f QueueFamily) Valid() bool {
	return f != 0 && f&(f-1) == 0 && f <= QueueFamilyTransfer
}

// Index returns the dense index of the family, 0 for graphics.
func (f QueueFamily) Index() int { return bits.TrailingZeros8(uint8(f)) }

// String returns the family name.
func (f QueueFamily) String() string {
	switch f {
	case QueueFamilyGraphics:
		return "Graphics"
	case QueueFamilyCompute:
		return "Compute"
	case QueueFamilyTransfer:
		return "Transfer"
	default:
		return fmt.Sprintf("QueueFamily(%d)", uint8(f))
	}
}

// Backend handles. They are opaque values owned by the backend; the package
// never inspects them. A nil handle is invalid.
type (
	// DescriptorSet is a bound set of shader resources (a bind group).
	DescriptorSet any
	// DescriptorSetLayout describes the shape of a DescriptorSet.
	DescriptorSetLayout any
	// ImageView is a view onto an Image.
	ImageView any
	// Image is a GPU texture.
	Image any
	// Buffer is a GPU buffer.
	Buffer any
	// CommandBuffer records GPU commands for one submission.
	CommandBuffer any
	// Semaphore orders GPU work between submissions.
	Semaphore any
	// Fence signals GPU completion to the CPU.
	Fence any
	// PrimitiveAccelerationStructure is a bottom-level ray tracing structure.
	PrimitiveAccelerationStructure any
	// InstanceAccelerationStructure is a top-level ray tracing structure.
	InstanceAccelerationStructure any

	// CommandPool allocates command buffers for one queue family.
	CommandPool any
	// DescriptorPool allocates descriptor sets.
	DescriptorPool any
	// MemoryPool is the device memory allocator images and buffers came from.
	MemoryPool any
)
