// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import "errors"

var (
	// ErrNoDevice is returned when a nil HAL device or queue is supplied.
	ErrNoDevice = errors.New("wgpu: nil hal device or queue")

	// ErrNotHAL is returned by FromProvider when the provider does not
	// expose HAL types.
	ErrNotHAL = errors.New("wgpu: provider does not expose HAL types")

	// ErrPoolDestroyed is returned when a destroyed command pool is used.
	ErrPoolDestroyed = errors.New("wgpu: command pool destroyed")

	// ErrBufferReleased is returned when a released command buffer is
	// finished or submitted.
	ErrBufferReleased = errors.New("wgpu: command buffer released")

	// ErrFenceTimeout is reported when the GPU does not signal a submission
	// fence within the configured timeout.
	ErrFenceTimeout = errors.New("wgpu: fence wait timed out")
)
