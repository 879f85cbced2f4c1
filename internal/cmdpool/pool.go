// Package cmdpool recycles per-frame command buffers.
//
// Each frame slot owns one command pool per physical queue family. Buffers
// handed out during a frame are reclaimed in one bulk pool reset once the
// frame retires, instead of being destroyed one by one.
//
// Pools are single-writer: every method must be called from the goroutine
// that owns the device.
package cmdpool

import (
	"fmt"

	"github.com/gogpu/inflight/gpucore"
)

// Pool is the command pool of one (device, frame slot, physical family).
type Pool struct {
	backend     gpucore.Backend
	handle      gpucore.CommandPool
	familyIndex uint32
	reusable    bool

	available []gpucore.CommandBuffer
	used      []gpucore.CommandBuffer
	issued    int
}

// NewPool creates a pool for the physical queue family index.
func NewPool(b gpucore.Backend, familyIndex uint32) (*Pool, error) {
	h, err := b.CreateCommandPool(familyIndex)
	if err != nil {
		return nil, fmt.Errorf("cmdpool: create pool for family %d: %w", familyIndex, err)
	}
	return &Pool{
		backend:     b,
		handle:      h,
		familyIndex: familyIndex,
		reusable:    b.SupportsReusableCommandBuffers(),
	}, nil
}

// Acquire returns a command buffer for the current frame.
//
// With reusable buffers a recycled one is preferred and the buffer stays on
// the used list until Recycle. Single-use buffers are not tracked: the next
// pool reset reclaims them.
func (p *Pool) Acquire() (gpucore.CommandBuffer, error) {
	if p.reusable {
		if n := len(p.available); n > 0 {
			cb := p.available[n-1]
			p.available[n-1] = nil
			p.available = p.available[:n-1]
			p.used = append(p.used, cb)
			return cb, nil
		}
	}

	cb, err := p.backend.AllocateCommandBuffer(p.handle)
	if err != nil {
		return nil, fmt.Errorf("cmdpool: allocate command buffer: %w", err)
	}
	if p.reusable {
		p.used = append(p.used, cb)
	} else {
		p.issued++
	}
	return cb, nil
}

// Recycle resets the whole pool in one call and makes every used buffer
// available again.
func (p *Pool) Recycle() error {
	if err := p.backend.ResetCommandPool(p.handle); err != nil {
		return fmt.Errorf("cmdpool: reset pool: %w", err)
	}
	p.available = append(p.available, p.used...)
	clear(p.used)
	p.used = p.used[:0]
	p.issued = 0
	return nil
}

// Destroy frees every tracked buffer and destroys the pool.
func (p *Pool) Destroy() {
	if p.handle == nil {
		return
	}
	bufs := make([]gpucore.CommandBuffer, 0, len(p.available)+len(p.used))
	bufs = append(bufs, p.available...)
	bufs = append(bufs, p.used...)
	if len(bufs) > 0 {
		p.backend.FreeCommandBuffers(p.handle, bufs)
	}
	p.backend.DestroyCommandPool(p.handle)

	p.available, p.used, p.issued = nil, nil, 0
	p.handle = nil
}

// Handle returns the backend pool handle.
func (p *Pool) Handle() gpucore.CommandPool { return p.handle }

// FamilyIndex returns the physical queue family index.
func (p *Pool) FamilyIndex() uint32 { return p.familyIndex }

// Reusable reports whether buffers are recycled across frames.
func (p *Pool) Reusable() bool { return p.reusable }

// Available returns the number of recycled buffers ready for reuse.
func (p *Pool) Available() int { return len(p.available) }

// Used returns the number of tracked buffers handed out this frame.
func (p *Pool) Used() int { return len(p.used) }

// Issued returns the number of single-use buffers handed out this frame.
func (p *Pool) Issued() int { return p.issued }
