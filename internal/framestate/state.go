// Package framestate tracks outstanding CPU and GPU work for one frame slot.
//
// The whole state is packed into a single uint64 and mutated with
// compare-and-swap retry loops, so any number of goroutines can start and
// finish work concurrently without locks.
package framestate

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/inflight/internal/assert"
)

// Flags is the set of awaiting flags of a frame slot.
type Flags uint8

const (
	// AwaitingCPUFinish is set while CPU work is outstanding.
	AwaitingCPUFinish Flags = 1 << iota
	// AwaitingGPUFinish is set while GPU work is outstanding.
	AwaitingGPUFinish
	// AwaitingFrameFinish is set by the first CPU work of a cycle and
	// cleared by FinishFrame once the slot has been flushed.
	AwaitingFrameFinish
)

const workFlags = AwaitingCPUFinish | AwaitingGPUFinish

// String returns the flag names joined by '|'.
func (f Flags) String() string {
	if f == 0 {
		return "Idle"
	}
	s := ""
	for _, n := range [...]struct {
		flag Flags
		name string
	}{
		{AwaitingCPUFinish, "AwaitingCPUFinish"},
		{AwaitingGPUFinish, "AwaitingGPUFinish"},
		{AwaitingFrameFinish, "AwaitingFrameFinish"},
	} {
		if f&n.flag == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += n.name
	}
	if rest := f &^ (workFlags | AwaitingFrameFinish); rest != 0 {
		s += fmt.Sprintf("|Flags(%#x)", uint8(rest))
	}
	return s
}

// Word is the unpacked form of a frame state.
//
// Layout of the packed uint64:
//
//	bits  0..15  GPU work counter
//	bits 16..31  CPU work counter
//	bits 32..39  Flags
type Word struct {
	GPU   uint16
	CPU   uint16
	Flags Flags
}

const (
	gpuShift   = 0
	cpuShift   = 16
	flagsShift = 32
)

// Pack encodes w into its uint64 form.
func Pack(w Word) uint64 {
	return uint64(w.GPU)<<gpuShift | uint64(w.CPU)<<cpuShift | uint64(w.Flags)<<flagsShift
}

// Unpack decodes a packed state.
func Unpack(v uint64) Word {
	return Word{
		GPU:   uint16(v >> gpuShift),
		CPU:   uint16(v >> cpuShift),
		Flags: Flags(v >> flagsShift),
	}
}

// Idle reports whether no work is outstanding and the frame is not awaiting
// its reset.
func (w Word) Idle() bool { return w == Word{} }

// State is the lock-free work tracker of one frame slot.
// The zero value is an idle slot.
type State struct {
	v atomic.Uint64
}

// update runs fn in a CAS retry loop. fn returns the new word and whether to
// store it; returning false leaves the state untouched.
func (s *State) update(fn func(w Word) (Word, bool)) {
	for {
		old := s.v.Load()
		next, ok := fn(Unpack(old))
		if !ok || s.v.CompareAndSwap(old, Pack(next)) {
			return
		}
	}
}

// checkCounters asserts that each work flag mirrors its counter.
func checkCounters(w Word) {
	assert.That((w.Flags&AwaitingCPUFinish != 0) == (w.CPU > 0),
		"cpu flag and counter disagree: %+v", w)
	assert.That((w.Flags&AwaitingGPUFinish != 0) == (w.GPU > 0),
		"gpu flag and counter disagree: %+v", w)
}

// StartCPU records the start of one CPU work unit. The first start of a
// cycle also marks the frame as awaiting its finish.
func (s *State) StartCPU() {
	s.update(func(w Word) (Word, bool) {
		checkCounters(w)
		assert.That(w.Flags == 0 || w.Flags&AwaitingFrameFinish != 0,
			"work flags set outside a frame: %v", w.Flags)
		assert.That(w.CPU < ^uint16(0), "cpu work counter overflow")

		if w.Flags == 0 {
			assert.That(w.GPU == 0, "gpu work outstanding on idle frame")
			w.Flags = AwaitingFrameFinish
		}
		w.Flags |= AwaitingCPUFinish
		w.CPU++
		return w, true
	})
}

// FinishCPU records the end of one CPU work unit. It returns true when this
// call retired the last outstanding work of the frame, which is the signal
// to flush the slot. Without outstanding CPU work it does nothing and
// returns false.
func (s *State) FinishCPU() bool {
	last, _ := s.FinishCPUChecked()
	return last
}

// FinishCPUChecked is FinishCPU that additionally reports, as matched,
// whether there was CPU work to finish at all.
func (s *State) FinishCPUChecked() (last, matched bool) {
	s.update(func(w Word) (Word, bool) {
		last, matched = false, false
		if w.Flags&AwaitingCPUFinish == 0 {
			return w, false
		}
		checkCounters(w)

		matched = true
		w.CPU--
		if w.CPU == 0 {
			w.Flags &^= AwaitingCPUFinish
			last = w.Flags&workFlags == 0
		}
		return w, true
	})
	return last, matched
}

// StartGPU records the start of one GPU work unit. GPU work always belongs
// to a frame whose CPU side has started.
func (s *State) StartGPU() {
	s.update(func(w Word) (Word, bool) {
		checkCounters(w)
		assert.That(w.Flags&AwaitingFrameFinish != 0, "gpu work started outside a frame")
		assert.That(w.GPU < ^uint16(0), "gpu work counter overflow")

		w.Flags |= AwaitingGPUFinish
		w.GPU++
		return w, true
	})
}

// FinishGPU records the end of one GPU work unit and reports, like
// FinishCPU, whether the frame just went idle. Without outstanding GPU work
// it does nothing and returns false.
func (s *State) FinishGPU() bool {
	last, _ := s.FinishGPUChecked()
	return last
}

// FinishGPUChecked is FinishGPU that additionally reports, as matched,
// whether there was GPU work to finish at all.
func (s *State) FinishGPUChecked() (last, matched bool) {
	s.update(func(w Word) (Word, bool) {
		last, matched = false, false
		if w.Flags&AwaitingGPUFinish == 0 || w.Flags&AwaitingFrameFinish == 0 {
			return w, false
		}
		checkCounters(w)

		matched = true
		w.GPU--
		if w.GPU == 0 {
			w.Flags &^= AwaitingGPUFinish
			last = w.Flags&AwaitingCPUFinish == 0
		}
		return w, true
	})
	return last, matched
}

// IsProcessingFrame reports whether CPU or GPU work is outstanding.
func (s *State) IsProcessingFrame() bool {
	return Unpack(s.v.Load()).Flags&workFlags != 0
}

// IsProcessingFrameOrAwaitingReset also reports true after the last work
// finished but before the slot was flushed.
func (s *State) IsProcessingFrameOrAwaitingReset() bool {
	return Unpack(s.v.Load()).Flags != 0
}

// FinishFrame returns a flushed slot to idle. The slot must be awaiting its
// reset with no work outstanding.
func (s *State) FinishFrame() {
	ok := s.TryFinishFrame()
	assert.That(ok, "finish frame on busy or idle slot: %+v", s.Snapshot())
}

// TryFinishFrame is FinishFrame for callers that may race with new work: it
// returns false and leaves the state untouched unless the slot is exactly
// awaiting its reset.
func (s *State) TryFinishFrame() bool {
	var ok bool
	s.update(func(w Word) (Word, bool) {
		ok = w.Flags == AwaitingFrameFinish
		if !ok {
			return w, false
		}
		w.Flags = 0
		return w, true
	})
	return ok
}

// Snapshot returns the current unpacked state.
func (s *State) Snapshot() Word {
	return Unpack(s.v.Load())
}
