// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/wgpu/hal"
)

type testProvider struct {
	device any
	queue  any
}

func (p testProvider) HalDevice() any { return p.device }
func (p testProvider) HalQueue() any  { return p.queue }

func TestAcceleratorName(t *testing.T) {
	a := &Accelerator{}
	if a.Name() != "wgpu-onesweep" {
		t.Errorf("Name() = %q", a.Name())
	}
	if err := a.Init(); err != nil {
		t.Errorf("Init() = %v, want nil", err)
	}
	if a.Ready() {
		t.Error("Ready() before any device")
	}
	a.Close()
}

func TestAcceleratorSetDeviceProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	a := &Accelerator{}
	if err := a.SetDeviceProvider(testProvider{device: device, queue: queue}); err != nil {
		t.Fatalf("SetDeviceProvider failed: %v", err)
	}
	if !a.Ready() {
		t.Fatal("accelerator not ready after SetDeviceProvider")
	}
	if !a.externalDevice {
		t.Error("shared device not marked external")
	}

	// Empty input needs no submission.
	if err := a.Sort(context.Background(), []uint32{}); err != nil {
		t.Errorf("empty sort: %v", err)
	}
	if a.buffers == nil || a.buffers.Len() != 1 {
		t.Fatal("buffers not cached for the sort size")
	}
	if err := a.Sort(context.Background(), nil); err != nil {
		t.Errorf("second empty sort: %v", err)
	}
	if st := a.buffers.Stats(); st.Hits != 1 {
		t.Errorf("buffer cache hits = %d, want 1", st.Hits)
	}

	// Close must not destroy the shared device.
	a.Close()
	if a.Ready() || a.device != nil {
		t.Error("accelerator still holds the device after Close")
	}
}

func TestAcceleratorSetDeviceProviderRejects(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tests := []struct {
		name     string
		provider any
	}{
		{"not a provider", 42},
		{"wrong device", testProvider{device: "gpu", queue: queue}},
		{"wrong queue", testProvider{device: device, queue: "queue"}},
		{"nil device", testProvider{device: hal.Device(nil), queue: queue}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Accelerator{}
			if err := a.SetDeviceProvider(tt.provider); err == nil {
				t.Error("expected error")
			}
			if a.Ready() {
				t.Error("accelerator ready after rejected provider")
			}
		})
	}
}

func TestAcceleratorSortCanceled(t *testing.T) {
	a := &Accelerator{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Sort(ctx, []uint32{1}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
