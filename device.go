package inflight

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/inflight/gpucore"
	"github.com/gogpu/inflight/internal/cmdpool"
	"github.com/gogpu/inflight/internal/framestate"
	"github.com/gogpu/inflight/internal/release"
)

// DeviceConfig describes a logical device being registered.
type DeviceConfig struct {
	// Backend performs every pooling and teardown call for the device.
	Backend gpucore.Backend

	// MemoryPool is passed to image and buffer teardown.
	MemoryPool gpucore.MemoryPool

	// Features are the enabled device features; they size the descriptor pool.
	Features gpucore.Features

	// LowPriority selects the descriptor budget of runners allowed to run
	// low priority jobs.
	LowPriority bool

	// Label names the device in logs and backend debug labels.
	Label string
}

// frameData is the per-slot state of one device.
type frameData struct {
	state    framestate.State
	releases release.Queue

	// flushing counts finishFrameWork calls in progress. The state goes idle
	// before the detached resources are torn down.
	flushing atomic.Int32
}

// settled reports whether the slot is idle and no flush is still tearing
// down its resources. The state is read first: a flush that made it idle
// is still counted in flushing.
func (fd *frameData) settled() bool {
	return !fd.state.IsProcessingFrameOrAwaitingReset() && fd.flushing.Load() == 0
}

// device is the registration of one logical device.
type device struct {
	id          gpucore.DeviceID
	label       string
	backend     gpucore.Backend
	pools       *cmdpool.Device
	descriptors gpucore.DescriptorPool
	target      release.Target
	frames      [gpucore.MaxFramesInFlight]frameData
}

func newDevice(id gpucore.DeviceID, cfg DeviceConfig) (*device, error) {
	pools, err := cmdpool.NewDevice(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("inflight: device %d: %w", id, err)
	}

	label := cfg.Label
	if label == "" {
		label = fmt.Sprintf("device-%d", id)
	}
	desc := gpucore.NewDescriptorPoolDesc(label+" descriptors", cfg.Features, cfg.LowPriority)
	descriptors, err := cfg.Backend.CreateDescriptorPool(desc)
	if err != nil {
		pools.Destroy()
		return nil, fmt.Errorf("inflight: device %d: create descriptor pool: %w", id, err)
	}

	d := &device{
		id:          id,
		label:       label,
		backend:     cfg.Backend,
		pools:       pools,
		descriptors: descriptors,
	}
	d.target = release.Target{
		Backend:     cfg.Backend,
		Memory:      cfg.MemoryPool,
		Descriptors: descriptors,
		CommandPool: pools.CommandPool,
	}
	return d, nil
}

// destroy flushes every pending release and frees the device's pools.
// It returns the per-kind number of resources released.
func (d *device) destroy() [gpucore.KindCount]int {
	var total [gpucore.KindCount]int
	for s := range d.frames {
		counts := d.frames[s].releases.Flush(d.target)
		for k, n := range counts {
			total[k] += n
		}
	}
	d.pools.Destroy()
	d.backend.DestroyDescriptorPool(d.descriptors)
	return total
}

// RegisterDevice creates the per-device pools, frame states and release
// queues for id.
//
// Example:
//
//	backend, _ := wgpu.New(device, queue)
//	err := c.RegisterDevice(0, inflight.DeviceConfig{
//	    Backend:  backend,
//	    Features: gpucore.FeatureAccelerationStructure,
//	})
func (c *Coordinator) RegisterDevice(id gpucore.DeviceID, cfg DeviceConfig) error {
	if !id.Valid() || cfg.Backend == nil {
		return ErrInvalidDevice
	}

	c.registry.Lock()
	defer c.registry.Unlock()

	if c.devices[id].Load() != nil {
		return fmt.Errorf("%w: %d", ErrDeviceRegistered, id)
	}
	d, err := newDevice(id, cfg)
	if err != nil {
		return err
	}
	c.devices[id].Store(d)

	c.log.Info("inflight: device registered",
		"device", id,
		"label", d.label,
		"reusable_command_buffers", cfg.Backend.SupportsReusableCommandBuffers())
	return nil
}

// UnregisterDevice removes the registration of id, releases every resource
// still queued on any of its frame slots and destroys its pools.
//
// The caller must ensure the device has no in-flight work, typically with
// [Coordinator.AwaitAnyFramesFinish] on [gpucore.AllFrames]. The teardown
// runs on the owner runner; ctx identifies the caller.
func (c *Coordinator) UnregisterDevice(ctx context.Context, id gpucore.DeviceID) error {
	if !id.Valid() {
		return ErrInvalidDevice
	}

	c.registry.Lock()
	d := c.devices[id].Swap(nil)
	c.registry.Unlock()
	if d == nil {
		return fmt.Errorf("%w: %d", ErrDeviceNotRegistered, id)
	}

	c.onOwner(ctx, func(context.Context) {
		counts := d.destroy()
		c.recordReleased(counts)
		c.log.Info("inflight: device unregistered",
			"device", id,
			"label", d.label,
			"released", sum(counts))
	})
	return nil
}

// lookup returns the registration of id, or nil.
func (c *Coordinator) lookup(id gpucore.DeviceID) *device {
	if !id.Valid() {
		return nil
	}
	return c.devices[id].Load()
}

func sum(counts [gpucore.KindCount]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
