// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/inflight/gpucore"
	"github.com/gogpu/wgpu/hal"
)

// bufferState is the lifecycle stage of a CommandBuffer.
type bufferState uint8

const (
	stateRecording bufferState = iota
	stateFinished
	stateReleased
)

// CommandBuffer is the command buffer handle of Backend. It owns a HAL
// encoder that is recording from allocation until Finish.
type CommandBuffer struct {
	pool    *commandPool
	encoder hal.CommandEncoder

	mu    sync.Mutex
	state bufferState
	raw   hal.CommandBuffer
}

// Encoder returns the encoder to record into. It must not be used after
// Finish.
func (cb *CommandBuffer) Encoder() hal.CommandEncoder { return cb.encoder }

// Finish ends encoding and returns the HAL command buffer. Calling it again
// returns the same buffer.
func (cb *CommandBuffer) Finish() (hal.CommandBuffer, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateFinished:
		return cb.raw, nil
	case stateReleased:
		return nil, ErrBufferReleased
	}
	raw, err := cb.encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	cb.raw = raw
	cb.state = stateFinished
	return raw, nil
}

// Finished reports whether Finish succeeded.
func (cb *CommandBuffer) Finished() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state == stateFinished
}

// Released reports whether the buffer went back to its pool.
func (cb *CommandBuffer) Released() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state == stateReleased
}

// release discards an unfinished encoder or frees a finished buffer.
func (cb *CommandBuffer) release(device hal.Device) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case stateRecording:
		cb.encoder.DiscardEncoding()
	case stateFinished:
		device.FreeCommandBuffer(cb.raw)
		cb.raw = nil
	}
	cb.state = stateReleased
}

// commandPool tracks the buffers allocated since its last reset. WebGPU has
// no pool object, so reset and destroy walk this list.
type commandPool struct {
	familyIndex uint32

	mu        sync.Mutex
	live      []*CommandBuffer
	destroyed bool
}

func (b *Backend) commandPool(pool gpucore.CommandPool) (*commandPool, error) {
	p, ok := pool.(*commandPool)
	if !ok || p == nil {
		return nil, fmt.Errorf("wgpu: not a command pool of this backend: %T", pool)
	}
	return p, nil
}

// === Command Pools ===

// CreateCommandPool creates an empty pool.
func (b *Backend) CreateCommandPool(familyIndex uint32) (gpucore.CommandPool, error) {
	return &commandPool{familyIndex: familyIndex}, nil
}

// ResetCommandPool releases every buffer allocated from pool.
func (b *Backend) ResetCommandPool(pool gpucore.CommandPool) error {
	p, err := b.commandPool(pool)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return ErrPoolDestroyed
	}
	b.releaseAll(p)
	return nil
}

// DestroyCommandPool releases every live buffer and retires the pool.
func (b *Backend) DestroyCommandPool(pool gpucore.CommandPool) {
	p, err := b.commandPool(pool)
	if err != nil {
		b.logger().Warn("wgpu: destroy command pool", "err", err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	b.releaseAll(p)
	p.destroyed = true
}

func (b *Backend) releaseAll(p *commandPool) {
	for _, cb := range p.live {
		cb.release(b.device)
	}
	clear(p.live)
	p.live = p.live[:0]
}

// AllocateCommandBuffer creates an encoder and begins encoding.
func (b *Backend) AllocateCommandBuffer(pool gpucore.CommandPool) (gpucore.CommandBuffer, error) {
	p, err := b.commandPool(pool)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return nil, ErrPoolDestroyed
	}

	label := fmt.Sprintf("%s_cmd_%d", b.label, p.familyIndex)
	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: label,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	cb := &CommandBuffer{pool: p, encoder: encoder}
	p.live = append(p.live, cb)
	return cb, nil
}

// FreeCommandBuffers releases buffers allocated from pool. Buffers of another
// pool are logged and skipped.
func (b *Backend) FreeCommandBuffers(pool gpucore.CommandPool, buffers []gpucore.CommandBuffer) {
	p, err := b.commandPool(pool)
	if err != nil {
		b.logger().Warn("wgpu: free command buffers", "err", err)
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, h := range buffers {
		cb, ok := handleAs[*CommandBuffer](b, h, gpucore.KindCommandBuffer)
		if !ok {
			continue
		}
		if cb.pool != p {
			b.mismatched.Add(1)
			b.logger().Warn("wgpu: command buffer freed to a foreign pool",
				"family", p.familyIndex)
			continue
		}
		cb.release(b.device)
		p.remove(cb)
	}
}

func (p *commandPool) remove(cb *CommandBuffer) {
	for i, c := range p.live {
		if c == cb {
			last := len(p.live) - 1
			p.live[i] = p.live[last]
			p.live[last] = nil
			p.live = p.live[:last]
			return
		}
	}
}

// Live returns how many buffers of a Backend command pool have not been
// released, or -1 for a foreign pool.
func Live(pool gpucore.CommandPool) int {
	p, ok := pool.(*commandPool)
	if !ok {
		return -1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}
