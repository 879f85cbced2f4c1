// Package fakegpu provides an in-memory gpucore.Backend for tests.
//
// Every call is counted and every released handle is recorded, so tests can
// check that each resource was torn down exactly once.
package fakegpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/inflight/gpucore"
)

// ErrInjected is returned by calls configured to fail.
var ErrInjected = errors.New("fakegpu: injected failure")

// Handle is the handle type the fake backend hands out.
type Handle struct {
	Kind string
	ID   uint64
}

func (h *Handle) String() string { return fmt.Sprintf("%s#%d", h.Kind, h.ID) }

// CommandPool is a fake command pool.
type CommandPool struct {
	Handle
	FamilyIndex uint32
	Resets      atomic.Int32
	Destroyed   atomic.Bool
}

// CommandBuffer is a fake command buffer. Pool is the pool it came from.
type CommandBuffer struct {
	Handle
	Pool *CommandPool
}

// DescriptorPool is a fake descriptor pool.
type DescriptorPool struct {
	Handle
	Desc      gpucore.DescriptorPoolDesc
	Destroyed atomic.Bool
}

// Backend is a fake gpucore.Backend. The zero value maps every family to its
// own index and supports reusable command buffers unless SingleUse is set.
type Backend struct {
	// FamilyIndices overrides QueueFamilyIndex when non-nil.
	FamilyIndices map[gpucore.QueueFamily]uint32
	// SingleUse disables reusable command buffers.
	SingleUse bool
	// FailAllocate makes AllocateCommandBuffer return ErrInjected.
	FailAllocate atomic.Bool
	// FailCommandPool makes CreateCommandPool return ErrInjected.
	FailCommandPool bool
	// FailResetFamilies makes ResetCommandPool return ErrInjected for pools
	// of the listed physical family indices.
	FailResetFamilies map[uint32]bool

	nextID atomic.Uint64

	PoolsCreated   atomic.Int32
	PoolResets     atomic.Int32
	PoolsDestroyed atomic.Int32
	Allocated      atomic.Int32
	FreeCalls      atomic.Int32
	DescFreeCalls  atomic.Int32
	InstanceAS     atomic.Int32
	PrimitiveAS    atomic.Int32

	mu       sync.Mutex
	released map[any]int
	byKind   map[gpucore.Kind]int
	memory   map[any]gpucore.MemoryPool
}

var _ gpucore.Backend = (*Backend)(nil)

// NewHandle returns a fresh handle labeled kind.
func (b *Backend) NewHandle(kind string) *Handle {
	return &Handle{Kind: kind, ID: b.nextID.Add(1)}
}

func (b *Backend) record(kind gpucore.Kind, h any, mem gpucore.MemoryPool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released == nil {
		b.released = make(map[any]int)
		b.byKind = make(map[gpucore.Kind]int)
		b.memory = make(map[any]gpucore.MemoryPool)
	}
	b.released[h]++
	b.byKind[kind]++
	if mem != nil {
		b.memory[h] = mem
	}
}

// ReleaseCount returns how many times h was torn down.
func (b *Backend) ReleaseCount(h any) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released[h]
}

// Released returns the number of teardowns of kind.
func (b *Backend) Released(kind gpucore.Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.byKind[kind]
}

// MemoryOf returns the memory pool h was released with.
func (b *Backend) MemoryOf(h any) gpucore.MemoryPool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.memory[h]
}

// QueueFamilyIndex implements gpucore.Backend.
func (b *Backend) QueueFamilyIndex(family gpucore.QueueFamily) uint32 {
	if idx, ok := b.FamilyIndices[family]; ok {
		return idx
	}
	return uint32(family.Index())
}

// SupportsReusableCommandBuffers implements gpucore.Backend.
func (b *Backend) SupportsReusableCommandBuffers() bool { return !b.SingleUse }

// CreateCommandPool implements gpucore.Backend.
func (b *Backend) CreateCommandPool(familyIndex uint32) (gpucore.CommandPool, error) {
	if b.FailCommandPool {
		return nil, ErrInjected
	}
	b.PoolsCreated.Add(1)
	return &CommandPool{Handle: *b.NewHandle("CommandPool"), FamilyIndex: familyIndex}, nil
}

// ResetCommandPool implements gpucore.Backend.
func (b *Backend) ResetCommandPool(pool gpucore.CommandPool) error {
	p := pool.(*CommandPool)
	if b.FailResetFamilies[p.FamilyIndex] {
		return ErrInjected
	}
	b.PoolResets.Add(1)
	p.Resets.Add(1)
	return nil
}

// DestroyCommandPool implements gpucore.Backend.
func (b *Backend) DestroyCommandPool(pool gpucore.CommandPool) {
	b.PoolsDestroyed.Add(1)
	pool.(*CommandPool).Destroyed.Store(true)
}

// AllocateCommandBuffer implements gpucore.Backend.
func (b *Backend) AllocateCommandBuffer(pool gpucore.CommandPool) (gpucore.CommandBuffer, error) {
	if b.FailAllocate.Load() {
		return nil, ErrInjected
	}
	b.Allocated.Add(1)
	return &CommandBuffer{Handle: *b.NewHandle("CommandBuffer"), Pool: pool.(*CommandPool)}, nil
}

// FreeCommandBuffers implements gpucore.Backend.
func (b *Backend) FreeCommandBuffers(pool gpucore.CommandPool, buffers []gpucore.CommandBuffer) {
	b.FreeCalls.Add(1)
	for _, cb := range buffers {
		b.record(gpucore.KindCommandBuffer, cb, nil)
	}
}

// CreateDescriptorPool implements gpucore.Backend.
func (b *Backend) CreateDescriptorPool(desc *gpucore.DescriptorPoolDesc) (gpucore.DescriptorPool, error) {
	return &DescriptorPool{Handle: *b.NewHandle("DescriptorPool"), Desc: *desc}, nil
}

// DestroyDescriptorPool implements gpucore.Backend.
func (b *Backend) DestroyDescriptorPool(pool gpucore.DescriptorPool) {
	pool.(*DescriptorPool).Destroyed.Store(true)
}

// FreeDescriptorSets implements gpucore.Backend.
func (b *Backend) FreeDescriptorSets(_ gpucore.DescriptorPool, sets []gpucore.DescriptorSet) {
	b.DescFreeCalls.Add(1)
	for _, s := range sets {
		b.record(gpucore.KindDescriptorSet, s, nil)
	}
}

// DestroyDescriptorSetLayout implements gpucore.Backend.
func (b *Backend) DestroyDescriptorSetLayout(l gpucore.DescriptorSetLayout) {
	b.record(gpucore.KindDescriptorSetLayout, l, nil)
}

// DestroyImageView implements gpucore.Backend.
func (b *Backend) DestroyImageView(v gpucore.ImageView) { b.record(gpucore.KindImageView, v, nil) }

// DestroyImage implements gpucore.Backend.
func (b *Backend) DestroyImage(img gpucore.Image, mem gpucore.MemoryPool) {
	b.record(gpucore.KindImage, img, mem)
}

// DestroyBuffer implements gpucore.Backend.
func (b *Backend) DestroyBuffer(buf gpucore.Buffer, mem gpucore.MemoryPool) {
	b.record(gpucore.KindBuffer, buf, mem)
}

// DestroySemaphore implements gpucore.Backend.
func (b *Backend) DestroySemaphore(s gpucore.Semaphore) { b.record(gpucore.KindSemaphore, s, nil) }

// DestroyFence implements gpucore.Backend.
func (b *Backend) DestroyFence(f gpucore.Fence) { b.record(gpucore.KindFence, f, nil) }

// DestroyPrimitiveAccelerationStructure implements gpucore.Backend.
func (b *Backend) DestroyPrimitiveAccelerationStructure(as gpucore.PrimitiveAccelerationStructure) {
	b.PrimitiveAS.Add(1)
	b.record(gpucore.KindAccelerationStructure, as, nil)
}

// DestroyInstanceAccelerationStructure implements gpucore.Backend.
func (b *Backend) DestroyInstanceAccelerationStructure(as gpucore.InstanceAccelerationStructure) {
	b.InstanceAS.Add(1)
	b.record(gpucore.KindAccelerationStructure, as, nil)
}
