package cmdpool

import (
	"errors"
	"fmt"

	"github.com/gogpu/inflight/gpucore"
)

// Frame is the pool set of one frame slot.
type Frame struct {
	byFamily [gpucore.QueueFamilyCount]*Pool
	distinct []*Pool
}

// Pool returns the pool serving family.
func (f *Frame) Pool(family gpucore.QueueFamily) *Pool {
	return f.byFamily[family.Index()]
}

// Pools returns every distinct pool of the slot.
func (f *Frame) Pools() []*Pool { return f.distinct }

// Recycle resets every distinct pool once. A failing pool does not stop the
// others; the errors are joined.
func (f *Frame) Recycle() error {
	var errs []error
	for _, p := range f.distinct {
		if err := p.Recycle(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Device holds every command pool of one logical device: a device-wide pool
// per physical family plus a per-slot pool set.
//
// Families that map to the same physical index share one device-wide handle
// and, in every slot, the same *Pool.
type Device struct {
	backend       gpucore.Backend
	familyIndices [gpucore.QueueFamilyCount]uint32
	devicePools   [gpucore.QueueFamilyCount]gpucore.CommandPool
	distinct      []gpucore.CommandPool
	frames        [gpucore.MaxFramesInFlight]Frame
}

// NewDevice resolves the physical family of every queue family once and
// creates the pools. On error nothing stays allocated.
func NewDevice(b gpucore.Backend) (_ *Device, err error) {
	d := &Device{backend: b}
	defer func() {
		if err != nil {
			d.Destroy()
		}
	}()

	for i, family := range gpucore.QueueFamilies {
		d.familyIndices[i] = b.QueueFamilyIndex(family)
	}

	shared := make(map[uint32]gpucore.CommandPool)
	for i, idx := range d.familyIndices {
		if h, ok := shared[idx]; ok {
			d.devicePools[i] = h
			continue
		}
		h, err := b.CreateCommandPool(idx)
		if err != nil {
			return nil, fmt.Errorf("cmdpool: create device pool for family %d: %w", idx, err)
		}
		shared[idx] = h
		d.devicePools[i] = h
		d.distinct = append(d.distinct, h)
	}

	for s := range d.frames {
		frame := &d.frames[s]
		perIndex := make(map[uint32]*Pool)
		for i, idx := range d.familyIndices {
			if p, ok := perIndex[idx]; ok {
				frame.byFamily[i] = p
				continue
			}
			p, err := NewPool(b, idx)
			if err != nil {
				return nil, err
			}
			perIndex[idx] = p
			frame.byFamily[i] = p
			frame.distinct = append(frame.distinct, p)
		}
	}
	return d, nil
}

// FamilyIndex returns the physical index family resolved to.
func (d *Device) FamilyIndex(family gpucore.QueueFamily) uint32 {
	return d.familyIndices[family.Index()]
}

// Frame returns the pool set of slot.
func (d *Device) Frame(slot gpucore.FrameSlot) *Frame { return &d.frames[slot] }

// Pool returns the per-frame pool of (slot, family).
func (d *Device) Pool(slot gpucore.FrameSlot, family gpucore.QueueFamily) *Pool {
	return d.frames[slot].Pool(family)
}

// CommandPool returns the device-wide pool of family.
func (d *Device) CommandPool(family gpucore.QueueFamily) gpucore.CommandPool {
	return d.devicePools[family.Index()]
}

// RecycleFrame resets every distinct pool of slot once.
func (d *Device) RecycleFrame(slot gpucore.FrameSlot) error {
	return d.frames[slot].Recycle()
}

// Destroy releases the per-frame pools and then the device-wide pools.
// It is safe on a partially built Device.
func (d *Device) Destroy() {
	for s := range d.frames {
		for _, p := range d.frames[s].distinct {
			p.Destroy()
		}
		d.frames[s] = Frame{}
	}
	for _, h := range d.distinct {
		d.backend.DestroyCommandPool(h)
	}
	d.distinct = nil
	d.devicePools = [gpucore.QueueFamilyCount]gpucore.CommandPool{}
}
