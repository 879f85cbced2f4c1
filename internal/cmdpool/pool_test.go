package cmdpool

import (
	"errors"
	"testing"

	"github.com/gogpu/inflight/gpucore"
	"github.com/gogpu/inflight/internal/fakegpu"
)

// =============================================================================
// Pool Tests
// =============================================================================

func TestPool_ReusableRecycle(t *testing.T) {
	b := &fakegpu.Backend{}
	p, err := NewPool(b, 0)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	if !p.Reusable() {
		t.Fatal("pool should be reusable")
	}

	cb1, _ := p.Acquire()
	cb2, _ := p.Acquire()
	if p.Used() != 2 || p.Available() != 0 {
		t.Fatalf("used=%d available=%d, want 2/0", p.Used(), p.Available())
	}

	if err := p.Recycle(); err != nil {
		t.Fatalf("Recycle() error = %v", err)
	}
	if p.Used() != 0 || p.Available() != 2 {
		t.Fatalf("after recycle used=%d available=%d, want 0/2", p.Used(), p.Available())
	}
	if b.PoolResets.Load() != 1 {
		t.Errorf("pool resets = %d, want 1", b.PoolResets.Load())
	}

	// Next frame reuses instead of allocating.
	cb3, _ := p.Acquire()
	cb4, _ := p.Acquire()
	if b.Allocated.Load() != 2 {
		t.Errorf("allocated = %d, want 2", b.Allocated.Load())
	}
	got := map[gpucore.CommandBuffer]bool{cb3: true, cb4: true}
	if !got[cb1] || !got[cb2] {
		t.Error("recycled buffers were not reused")
	}

	// A third buffer in the same frame is fresh.
	if _, err := p.Acquire(); err != nil {
		t.Fatal(err)
	}
	if b.Allocated.Load() != 3 {
		t.Errorf("allocated = %d, want 3", b.Allocated.Load())
	}
}

func TestPool_SingleUse(t *testing.T) {
	b := &fakegpu.Backend{SingleUse: true}
	p, _ := NewPool(b, 0)

	for i := 0; i < 3; i++ {
		if _, err := p.Acquire(); err != nil {
			t.Fatal(err)
		}
	}
	if p.Used() != 0 || p.Issued() != 3 {
		t.Errorf("used=%d issued=%d, want 0/3", p.Used(), p.Issued())
	}

	if err := p.Recycle(); err != nil {
		t.Fatal(err)
	}
	// The bulk reset reclaims single-use buffers; none becomes available.
	if p.Available() != 0 || p.Issued() != 0 {
		t.Errorf("available=%d issued=%d, want 0/0", p.Available(), p.Issued())
	}

	if _, err := p.Acquire(); err != nil {
		t.Fatal(err)
	}
	if b.Allocated.Load() != 4 {
		t.Errorf("allocated = %d, want 4", b.Allocated.Load())
	}
}

func TestPool_AcquireError(t *testing.T) {
	b := &fakegpu.Backend{}
	b.FailAllocate.Store(true)
	p, _ := NewPool(b, 0)

	if _, err := p.Acquire(); !errors.Is(err, fakegpu.ErrInjected) {
		t.Errorf("Acquire() error = %v, want ErrInjected", err)
	}
	if p.Used() != 0 {
		t.Errorf("used = %d after failed acquire", p.Used())
	}
}

func TestPool_Destroy(t *testing.T) {
	b := &fakegpu.Backend{}
	p, _ := NewPool(b, 0)

	a, _ := p.Acquire()
	_, _ = p.Acquire()
	_ = p.Recycle()
	_, _ = p.Acquire() // one used, one available

	p.Destroy()
	if b.ReleaseCount(a) != 1 {
		t.Error("tracked buffer not freed on Destroy")
	}
	if b.FreeCalls.Load() != 1 || b.PoolsDestroyed.Load() != 1 {
		t.Errorf("free calls=%d destroyed=%d, want 1/1", b.FreeCalls.Load(), b.PoolsDestroyed.Load())
	}

	p.Destroy()
	if b.PoolsDestroyed.Load() != 1 {
		t.Error("second Destroy destroyed the pool again")
	}
}

// =============================================================================
// Device Tests
// =============================================================================

func TestDevice_FamilyAliasing(t *testing.T) {
	// Graphics and compute share physical family 0, transfer is separate.
	b := &fakegpu.Backend{FamilyIndices: map[gpucore.QueueFamily]uint32{
		gpucore.QueueFamilyGraphics: 0,
		gpucore.QueueFamilyCompute:  0,
		gpucore.QueueFamilyTransfer: 1,
	}}
	d, err := NewDevice(b)
	if err != nil {
		t.Fatalf("NewDevice() error = %v", err)
	}
	defer d.Destroy()

	for slot := gpucore.FrameSlot(0); slot < gpucore.MaxFramesInFlight; slot++ {
		g := d.Pool(slot, gpucore.QueueFamilyGraphics)
		c := d.Pool(slot, gpucore.QueueFamilyCompute)
		x := d.Pool(slot, gpucore.QueueFamilyTransfer)
		if g != c {
			t.Errorf("slot %d: aliased families got distinct pools", slot)
		}
		if g == x {
			t.Errorf("slot %d: distinct families share a pool", slot)
		}
		if n := len(d.Frame(slot).Pools()); n != 2 {
			t.Errorf("slot %d: %d distinct pools, want 2", slot, n)
		}
	}
	if d.Pool(0, gpucore.QueueFamilyGraphics) == d.Pool(1, gpucore.QueueFamilyGraphics) {
		t.Error("slots share a pool")
	}

	if d.CommandPool(gpucore.QueueFamilyGraphics) != d.CommandPool(gpucore.QueueFamilyCompute) {
		t.Error("aliased device pools differ")
	}
	// 2 device-wide + 2 per slot.
	if got, want := b.PoolsCreated.Load(), int32(2+2*gpucore.MaxFramesInFlight); got != want {
		t.Errorf("pools created = %d, want %d", got, want)
	}
}

func TestDevice_RecycleFrameResetsEachPoolOnce(t *testing.T) {
	b := &fakegpu.Backend{FamilyIndices: map[gpucore.QueueFamily]uint32{
		gpucore.QueueFamilyGraphics: 0,
		gpucore.QueueFamilyCompute:  0,
		gpucore.QueueFamilyTransfer: 0,
	}}
	d, _ := NewDevice(b)
	defer d.Destroy()

	if err := d.RecycleFrame(1); err != nil {
		t.Fatal(err)
	}
	if got := b.PoolResets.Load(); got != 1 {
		t.Errorf("pool resets = %d, want 1", got)
	}
}

func TestDevice_RecycleFrameContinuesPastFailure(t *testing.T) {
	b := &fakegpu.Backend{FailResetFamilies: map[uint32]bool{0: true}}
	d, err := NewDevice(b)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Destroy()

	for _, f := range gpucore.QueueFamilies {
		if _, err := d.Pool(2, f).Acquire(); err != nil {
			t.Fatalf("Acquire(%v) error = %v", f, err)
		}
	}

	if err := d.RecycleFrame(2); !errors.Is(err, fakegpu.ErrInjected) {
		t.Fatalf("RecycleFrame() error = %v, want ErrInjected", err)
	}
	if p := d.Pool(2, gpucore.QueueFamilyGraphics); p.Used() != 1 {
		t.Errorf("failed pool used = %d, want 1", p.Used())
	}
	for _, f := range []gpucore.QueueFamily{gpucore.QueueFamilyCompute, gpucore.QueueFamilyTransfer} {
		p := d.Pool(2, f)
		if p.Used() != 0 || p.Available() != 1 {
			t.Errorf("%v pool used=%d available=%d, want 0/1", f, p.Used(), p.Available())
		}
	}
}

func TestDevice_Destroy(t *testing.T) {
	b := &fakegpu.Backend{}
	d, _ := NewDevice(b)

	d.Destroy()
	if got, want := b.PoolsDestroyed.Load(), b.PoolsCreated.Load(); got != want {
		t.Errorf("destroyed %d of %d pools", got, want)
	}
}

func TestDevice_CreateError(t *testing.T) {
	b := &fakegpu.Backend{FailCommandPool: true}
	if _, err := NewDevice(b); !errors.Is(err, fakegpu.ErrInjected) {
		t.Errorf("NewDevice() error = %v, want ErrInjected", err)
	}
}
