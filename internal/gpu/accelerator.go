// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/onesweep"
	"github.com/gogpu/onesweep/internal/cache"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Accelerator sorts keys on a GPU with the OneSweep compute pipeline.
// It implements onesweep.Accelerator and onesweep.DeviceProviderAware.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	dispatcher *SortDispatcher
	buffers    *cache.LRU[int, *SortBuffers]

	gpuReady       bool
	initAttempted  bool
	externalDevice bool // true when using shared device (don't destroy on Close)
}

// bufferCacheSize is the number of key counts whose GPU buffers are kept.
const bufferCacheSize = 2

// Interface compliance checks.
var _ onesweep.Accelerator = (*Accelerator)(nil)
var _ onesweep.DeviceProviderAware = (*Accelerator)(nil)

// Name returns the accelerator identifier.
func (a *Accelerator) Name() string { return "wgpu-onesweep" }

// Init registers the accelerator. GPU device initialization is deferred
// until the first Sort or until SetDeviceProvider is called, so that a
// standalone Vulkan device is never created next to an external device
// provided later.
func (a *Accelerator) Init() error {
	return nil
}

// Close releases all GPU resources held by the accelerator.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
	a.initAttempted = false
}

func (a *Accelerator) releaseLocked() {
	if a.buffers != nil {
		a.buffers.Clear()
		a.buffers = nil
	}
	if a.dispatcher != nil {
		a.dispatcher.Close()
		a.dispatcher = nil
	}

	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	// Shared resources are not ours to destroy.
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.gpuReady = false
	a.externalDevice = false
}

// SetLogger sets the logger for the GPU accelerator.
// Called by onesweep.SetLogger to propagate logging configuration.
func (a *Accelerator) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Ready reports whether a device is open and the sort pipelines compiled.
func (a *Accelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady && a.dispatcher != nil && a.dispatcher.Initialized()
}

// SetDeviceProvider switches the accelerator to a shared GPU device from an
// external provider. The provider must implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu-onesweep: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu-onesweep: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu-onesweep: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.releaseLocked()

	a.device = device
	a.queue = queue
	a.externalDevice = true
	a.initAttempted = true
	a.gpuReady = true

	dispatcher := NewSortDispatcher(device, queue)
	if err := dispatcher.Init(); err != nil {
		// The device stays valid; sorting falls back to the CPU.
		slogger().Warn("wgpu-onesweep: pipeline init failed, GPU sort unavailable", "error", err)
		return nil
	}
	a.setDispatcherLocked(dispatcher)

	slogger().Debug("wgpu-onesweep: switched to shared GPU device")
	return nil
}

// Sort sorts keys in place on the GPU. It returns an error wrapping
// onesweep.ErrFallbackToCPU when no GPU pipeline is available, and
// onesweep.ErrInsufficientResource when keys exceed the device limits.
// keys are unchanged on error.
func (a *Accelerator) Sort(ctx context.Context, keys []uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initAttempted {
		a.initAttempted = true
		if err := a.initGPU(); err != nil {
			slogger().Warn("wgpu-onesweep: GPU init failed", "error", err)
			a.releaseLocked()
		}
	}
	if a.dispatcher == nil {
		return fmt.Errorf("wgpu-onesweep: %w", onesweep.ErrFallbackToCPU)
	}
	if len(keys) > MaxKeys() {
		return fmt.Errorf("wgpu-onesweep: %w: %d keys, device limit %d",
			onesweep.ErrInsufficientResource, len(keys), MaxKeys())
	}

	bufs, err := a.buffers.GetOrCreate(len(keys), func() (*SortBuffers, error) {
		return a.dispatcher.AllocateBuffers(len(keys))
	})
	if err != nil {
		return err
	}
	return a.dispatcher.Sort(bufs, keys)
}

// setDispatcherLocked installs an initialized dispatcher and its buffer cache.
func (a *Accelerator) setDispatcherLocked(d *SortDispatcher) {
	a.dispatcher = d
	a.buffers = cache.New[int, *SortBuffers](bufferCacheSize, func(n int, b *SortBuffers) {
		slogger().Debug("wgpu-onesweep: releasing buffers", "keys", n)
		d.DestroyBuffers(b)
	})
}

// initGPU creates a standalone Vulkan device for compute-only use.
// This is the path taken when no external device is provided via
// SetDeviceProvider.
func (a *Accelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", onesweep.ErrUnsupportedPlatform)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return fmt.Errorf("%w: no GPU adapters found", onesweep.ErrUnsupportedPlatform)
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	a.gpuReady = true

	dispatcher := NewSortDispatcher(a.device, a.queue)
	if err := dispatcher.Init(); err != nil {
		slogger().Warn("wgpu-onesweep: pipeline init failed, GPU sort unavailable", "error", err)
		return nil
	}
	a.setDispatcherLocked(dispatcher)

	slogger().Info("wgpu-onesweep: GPU initialized (standalone)", "adapter", selected.Info.Name)
	return nil
}
