// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/inflight"
	"github.com/gogpu/inflight/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// defaultFenceTimeout bounds the wait for one submission.
const defaultFenceTimeout = 5 * time.Second

// Backend implements gpucore.Backend over a gogpu/wgpu HAL device.
//
// Backend is safe for concurrent use; the pool calls are expected from the
// coordinator's owner runner.
type Backend struct {
	device hal.Device
	queue  hal.Queue

	label        string
	fenceTimeout time.Duration
	log          *slog.Logger

	// pending counts submissions whose fence has not been observed yet.
	pending sync.WaitGroup

	submitted  atomic.Int64
	completed  atomic.Int64
	failed     atomic.Int64
	mismatched atomic.Int64
}

var _ gpucore.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithLabel sets the prefix of every debug label the backend creates.
func WithLabel(label string) Option {
	return func(b *Backend) {
		if label != "" {
			b.label = label
		}
	}
}

// WithFenceTimeout sets how long a submission watcher waits for its fence.
// Non-positive values are ignored.
func WithFenceTimeout(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.fenceTimeout = d
		}
	}
}

// WithLogger sets the backend logger. By default the backend logs through
// inflight.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		b.log = l
	}
}

// New wraps device and queue.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Backend, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	b := &Backend{
		device:       device,
		queue:        queue,
		label:        "inflight",
		fenceTimeout: defaultFenceTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Device returns the wrapped HAL device.
func (b *Backend) Device() hal.Device { return b.device }

// Queue returns the wrapped HAL queue.
func (b *Backend) Queue() hal.Queue { return b.queue }

// Label returns the debug label prefix.
func (b *Backend) Label() string { return b.label }

// Mismatched returns how many handles of an unexpected type were passed to
// teardown and skipped.
func (b *Backend) Mismatched() int64 { return b.mismatched.Load() }

func (b *Backend) logger() *slog.Logger {
	if b.log != nil {
		return b.log
	}
	return inflight.Logger()
}

// === Capabilities ===

// QueueFamilyIndex returns 0: WebGPU has one queue for every family.
func (b *Backend) QueueFamilyIndex(gpucore.QueueFamily) uint32 { return 0 }

// SupportsReusableCommandBuffers returns false. A finished WebGPU command
// buffer cannot be recorded again.
func (b *Backend) SupportsReusableCommandBuffers() bool { return false }

// === Descriptor Pools ===

// descriptorPool is bookkeeping only. WebGPU allocates bind groups from the
// device directly.
type descriptorPool struct {
	desc      gpucore.DescriptorPoolDesc
	freed     atomic.Int64
	destroyed atomic.Bool
}

// CreateDescriptorPool records desc; no HAL object is created.
func (b *Backend) CreateDescriptorPool(desc *gpucore.DescriptorPoolDesc) (gpucore.DescriptorPool, error) {
	p := &descriptorPool{}
	if desc != nil {
		p.desc = *desc
		p.desc.Sizes = append([]gpucore.DescriptorPoolSize(nil), desc.Sizes...)
	}
	b.logger().Debug("wgpu: descriptor pool created",
		"label", p.desc.Label,
		"maxSets", p.desc.MaxSets)
	return p, nil
}

// DestroyDescriptorPool marks the pool destroyed.
func (b *Backend) DestroyDescriptorPool(pool gpucore.DescriptorPool) {
	if p, ok := pool.(*descriptorPool); ok {
		p.destroyed.Store(true)
	}
}

// FreeDescriptorSets destroys every bind group in sets.
func (b *Backend) FreeDescriptorSets(pool gpucore.DescriptorPool, sets []gpucore.DescriptorSet) {
	p, _ := pool.(*descriptorPool)
	for _, s := range sets {
		bg, ok := handleAs[hal.BindGroup](b, s, gpucore.KindDescriptorSet)
		if !ok {
			continue
		}
		b.device.DestroyBindGroup(bg)
		if p != nil {
			p.freed.Add(1)
		}
	}
}

// DescriptorPoolDesc returns the description a pool was created with, and
// false if pool was not created by a Backend.
func DescriptorPoolDesc(pool gpucore.DescriptorPool) (gpucore.DescriptorPoolDesc, bool) {
	p, ok := pool.(*descriptorPool)
	if !ok {
		return gpucore.DescriptorPoolDesc{}, false
	}
	return p.desc, true
}

// === Teardown ===

// DestroyDescriptorSetLayout destroys a bind group layout.
func (b *Backend) DestroyDescriptorSetLayout(layout gpucore.DescriptorSetLayout) {
	if l, ok := handleAs[hal.BindGroupLayout](b, layout, gpucore.KindDescriptorSetLayout); ok {
		b.device.DestroyBindGroupLayout(l)
	}
}

// DestroyImageView destroys a texture view.
func (b *Backend) DestroyImageView(view gpucore.ImageView) {
	if v, ok := handleAs[hal.TextureView](b, view, gpucore.KindImageView); ok {
		b.device.DestroyTextureView(v)
	}
}

// DestroyImage destroys a texture. The HAL device owns texture memory, so
// memory is ignored.
func (b *Backend) DestroyImage(image gpucore.Image, _ gpucore.MemoryPool) {
	if t, ok := handleAs[hal.Texture](b, image, gpucore.KindImage); ok {
		b.device.DestroyTexture(t)
	}
}

// DestroyBuffer destroys a buffer. memory is ignored as for DestroyImage.
func (b *Backend) DestroyBuffer(buffer gpucore.Buffer, _ gpucore.MemoryPool) {
	if buf, ok := handleAs[hal.Buffer](b, buffer, gpucore.KindBuffer); ok {
		b.device.DestroyBuffer(buf)
	}
}

// DestroySemaphore destroys a fence used for GPU-GPU ordering. WebGPU has no
// separate semaphore object.
func (b *Backend) DestroySemaphore(semaphore gpucore.Semaphore) {
	if f, ok := handleAs[hal.Fence](b, semaphore, gpucore.KindSemaphore); ok {
		b.device.DestroyFence(f)
	}
}

// DestroyFence destroys a fence.
func (b *Backend) DestroyFence(fence gpucore.Fence) {
	if f, ok := handleAs[hal.Fence](b, fence, gpucore.KindFence); ok {
		b.device.DestroyFence(f)
	}
}

// DestroyPrimitiveAccelerationStructure destroys a bottom-level structure.
func (b *Backend) DestroyPrimitiveAccelerationStructure(as gpucore.PrimitiveAccelerationStructure) {
	if r, ok := handleAs[hal.Resource](b, as, gpucore.KindAccelerationStructure); ok {
		r.Destroy()
	}
}

// DestroyInstanceAccelerationStructure destroys a top-level structure.
func (b *Backend) DestroyInstanceAccelerationStructure(as gpucore.InstanceAccelerationStructure) {
	if r, ok := handleAs[hal.Resource](b, as, gpucore.KindAccelerationStructure); ok {
		r.Destroy()
	}
}

// handleAs converts an opaque handle to the HAL type of its kind. Handles of
// another type are logged and skipped.
func handleAs[T any](b *Backend, h any, kind gpucore.Kind) (T, bool) {
	v, ok := h.(T)
	if !ok {
		b.mismatched.Add(1)
		b.logger().Warn("wgpu: skipping handle of unexpected type",
			"kind", kind.String(),
			"type", fmt.Sprintf("%T", h))
	}
	return v, ok
}
