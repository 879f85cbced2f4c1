package inflight

import (
	"sync/atomic"

	"github.com/gogpu/inflight/gpucore"
)

// FrameIndexSource reports the frame slot the engine is currently recording.
type FrameIndexSource interface {
	CurrentFrameIndex() gpucore.FrameSlot
}

// FrameCounter is a ready FrameIndexSource advanced once per frame.
// The zero value starts at slot 0.
type FrameCounter struct {
	slot atomic.Uint32
}

// CurrentFrameIndex returns the current slot.
func (f *FrameCounter) CurrentFrameIndex() gpucore.FrameSlot {
	return gpucore.FrameSlot(f.slot.Load())
}

// Advance moves to the next slot of the ring and returns it.
func (f *FrameCounter) Advance() gpucore.FrameSlot {
	for {
		cur := f.slot.Load()
		next := uint32(gpucore.FrameSlot(cur).Next())
		if f.slot.CompareAndSwap(cur, next) {
			return gpucore.FrameSlot(next)
		}
	}
}

// Set jumps to slot.
func (f *FrameCounter) Set(slot gpucore.FrameSlot) {
	f.slot.Store(uint32(slot % gpucore.MaxFramesInFlight))
}
