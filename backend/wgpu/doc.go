// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu connects the inflight frame lifecycle to a gogpu/wgpu HAL
// device.
//
// [Backend] implements [gpucore.Backend] on top of a [hal.Device] and its
// [hal.Queue]. Deferred teardown maps to the matching HAL Destroy call:
//
//	DescriptorSet        -> DestroyBindGroup
//	DescriptorSetLayout  -> DestroyBindGroupLayout
//	ImageView            -> DestroyTextureView
//	Image                -> DestroyTexture
//	Buffer               -> DestroyBuffer
//	Semaphore, Fence     -> DestroyFence
//	AccelerationStructure -> hal.Resource.Destroy
//
// WebGPU exposes a single queue, so every queue family maps to physical
// family 0 and all families share one set of per-frame command pools.
// Command buffers cannot be recorded twice; each per-frame buffer is a fresh
// [CommandBuffer] whose encoder is already recording.
//
// # Usage
//
//	backend, err := wgpu.New(device, queue, wgpu.WithLabel("main"))
//	if err != nil {
//	    return err
//	}
//	defer backend.Close()
//
//	coord := inflight.New(frames)
//	if err := coord.RegisterDevice(0, inflight.DeviceConfig{Backend: backend}); err != nil {
//	    return err
//	}
//
//	h, err := coord.GetPerFrameCommandBuffer(ctx, 0, gpucore.QueueFamilyGraphics, slot)
//	cb := h.(*wgpu.CommandBuffer)
//	// record into cb.Encoder() ...
//	err = backend.SubmitFrame(ctx, coord, 0, slot, cb)
//
// A device shared with gogpu can be adopted through [FromProvider].
package wgpu
