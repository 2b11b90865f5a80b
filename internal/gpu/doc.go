// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu runs the OneSweep radix sort on a WebGPU HAL device.
//
// The package compiles the three WGSL shaders embedded in internal/sortcore
// and records the six dispatches of a sort into one command buffer:
// global_hist, onesweep_scan and one onesweep_pass per digit-place, with the
// two key buffers swapped between passes.
//
// # Device selection
//
// [Accelerator] does not touch the GPU until it is first asked to sort. At
// that point it uses a device supplied through SetDeviceProvider, or opens a
// standalone Vulkan device. When no device can be opened, Sort returns
// onesweep.ErrFallbackToCPU and the caller sorts on the software executor.
//
// The gpu package at the module root registers the accelerator; importing it
// is the only step needed to enable hardware sorting:
//
//	import _ "github.com/gogpu/onesweep/gpu"
package gpu
