// Package gpucore provides the shared vocabulary of the inflight frame
// lifecycle: device and frame slot identifiers, queue families, opaque backend
// handles, the tagged [Resource] variant and the [Backend] interface.
//
// # Architecture
//
// The lifecycle core is written once against [Backend], while thin adapters
// translate its teardown and pooling calls to a concrete graphics API.
//
//	               +------------------+
//	               |     inflight     |
//	               |   (Coordinator)  |
//	               +--------+---------+
//	                        |
//	               +--------v---------+
//	               | gpucore.Backend  |
//	               +--------+---------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	|  backend/wgpu   |          |   test doubles  |
//	|  (hal.Device)   |          |                 |
//	+--------+--------+          +-----------------+
//	         |
//	+--------v--------+
//	|   gogpu/wgpu    |
//	|   (Pure Go)     |
//	+-----------------+
//
// # Frame Slots
//
// A [FrameSlot] indexes a ring of [MaxFramesInFlight] frames. A
// [FrameMask] selects several slots at once for waits and queries.
//
// # Resources
//
// Every handle released for deferred destruction is wrapped in a [Resource]
// that records its [Kind]. The kind decides which release list the handle
// joins and which [Backend] teardown call frees it:
//
//	res := gpucore.BufferResource(buf)
//	coordinator.Destroy(device, res)
//
// Handles are opaque; nil is the only invalid handle.
package gpucore
