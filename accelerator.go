// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package onesweep

import (
	"context"
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the accelerator cannot handle this sort.
// The caller should transparently fall back to the software executor.
var ErrFallbackToCPU = errors.New("onesweep: falling back to CPU sort")

// Accelerator is an optional hardware sort provider.
//
// When registered via RegisterAccelerator, a Sorter tries the accelerator
// first. If it returns ErrFallbackToCPU or any other error, the sort
// transparently runs on the software executor instead.
//
// Implementations are provided by backend packages. Users opt in to hardware
// sorting via blank import:
//
//	import _ "github.com/gogpu/onesweep/gpu"
type Accelerator interface {
	// Name returns the accelerator name (e.g., "wgpu-onesweep").
	Name() string

	// Init initializes the accelerator. Called once during registration.
	Init() error

	// Close releases device resources.
	Close()

	// Sort sorts keys in place. On error keys must be left unchanged so that
	// the caller can retry on the CPU.
	Sort(ctx context.Context, keys []uint32) error
}

// DeviceProviderAware is an optional interface for accelerators that can share
// a GPU device with an external provider (e.g., a gogpu window).
// When SetDeviceProvider is called, the accelerator reuses the provided
// device instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   Accelerator
)

// RegisterAccelerator registers a hardware accelerator.
//
// Only one accelerator can be registered. Subsequent calls replace the previous one.
// The accelerator's Init() method is called during registration.
// If Init() fails, the accelerator is not registered and the error is returned.
func RegisterAccelerator(a Accelerator) error {
	if a == nil {
		return errors.New("onesweep: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil && old != a {
		old.Close()
	}
	return nil
}

// UnregisterAccelerator closes and removes the registered accelerator.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// RegisteredAccelerator returns the registered accelerator, or nil if none.
func RegisteredAccelerator() Accelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator, enabling GPU device sharing. If no accelerator is registered
// or it doesn't support device sharing, this is a no-op.
//
// The provider should implement HalDevice() any and HalQueue() any methods
// that return wgpu/hal types.
func SetAcceleratorDeviceProvider(provider any) error {
	a := RegisteredAccelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
