// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package gpu registers the WebGPU sort accelerator.
//
// Import this package to run sorts on a GPU through gogpu/wgpu. The
// accelerator opens a Vulkan device on the first sort unless a shared device
// is supplied with SetDeviceProvider.
//
// If GPU initialization fails (no Vulkan adapter, shader compilation error),
// sorts fall back to the software executor.
//
// Usage:
//
//	import _ "github.com/gogpu/onesweep/gpu" // enable GPU sorting
package gpu

import (
	"errors"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/onesweep"
	gpuimpl "github.com/gogpu/onesweep/internal/gpu"
)

// ErrNilProvider is returned by SetDeviceProvider for a nil provider.
var ErrNilProvider = errors.New("gpu: device provider must not be nil")

func init() {
	if err := onesweep.RegisterAccelerator(&gpuimpl.Accelerator{}); err != nil {
		onesweep.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the GPU accelerator to use a shared GPU device
// from an external provider (e.g., gogpu). This avoids creating a separate
// GPU instance.
//
// The provider must also implement gpucontext.HalProvider for direct HAL
// access; otherwise an error is returned and the accelerator keeps its own
// device.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	if provider == nil {
		return ErrNilProvider
	}
	return onesweep.SetAcceleratorDeviceProvider(provider)
}
