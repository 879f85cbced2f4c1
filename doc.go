// Package inflight manages the per-frame GPU resource lifecycle of a
// pipelined, job-based renderer.
//
// # Overview
//
// Several frames are in flight at once: the CPU records frame N+1 while the
// GPU still executes frame N. A resource used by a frame may only be torn
// down once that frame's CPU recording and GPU execution have both finished.
// The [Coordinator] tracks this per (device, frame slot) and, when a slot
// retires, flushes everything queued for it:
//
//   - a lock-free work counter per slot, fed by Start and Finish calls from
//     any goroutine
//   - one deferred destruction queue per resource kind
//   - per-frame command pools, recycled in one bulk reset
//
// # Quick Start
//
//	var frames inflight.FrameCounter
//	pool := jobs.New(0)
//	c := inflight.New(&frames, inflight.WithOwner(pool.Runner(0)))
//
//	if err := c.RegisterDevice(0, inflight.DeviceConfig{Backend: backend}); err != nil {
//	    return err
//	}
//
//	slot := frames.CurrentFrameIndex()
//	c.OnStartFrameCPUWork(0, slot)
//	// ... record, submit, release resources with c.Destroy* ...
//	c.OnFinishFrameCPUWork(ctx, 0, slot)
//
// # Threading
//
// Start, Finish, Destroy and the IsProcessing queries may be called from any
// goroutine. Command pools and release queues are mutated only by the owner
// [Runner]: a Finish that retires a frame flushes it inline when its context
// belongs to the owner and schedules an exclusive owner job otherwise.
//
// Contexts carry the identity of the calling job runner (see
// [jobs.Current]). They are never used for cancellation.
//
// # Contract Violations
//
// Misuse such as starting work on an unregistered device or destroying a nil
// handle panics. Builds with the inflight_release tag compile those checks
// out. A Finish without a matching Start is tolerated: it does nothing and
// is logged at warning level with audit=true.
package inflight
