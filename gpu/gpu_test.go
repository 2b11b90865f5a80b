// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/onesweep"
)

// mockDevice implements gpucontext.Device for testing.
type mockDevice struct{}

func (m *mockDevice) Poll(wait bool) {}
func (m *mockDevice) Destroy()       {}

// mockQueue implements gpucontext.Queue for testing.
type mockQueue struct{}

// mockAdapter implements gpucontext.Adapter for testing.
type mockAdapter struct{}

// mockProvider implements gpucontext.DeviceProvider without HAL access.
type mockProvider struct{}

func (m *mockProvider) Device() gpucontext.Device             { return &mockDevice{} }
func (m *mockProvider) Queue() gpucontext.Queue               { return &mockQueue{} }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return &mockAdapter{} }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }

func TestAcceleratorRegistered(t *testing.T) {
	a := onesweep.RegisteredAccelerator()
	if a == nil {
		t.Fatal("no accelerator registered")
	}
	if a.Name() != "wgpu-onesweep" {
		t.Errorf("registered accelerator %q, want wgpu-onesweep", a.Name())
	}
	if _, ok := a.(onesweep.DeviceProviderAware); !ok {
		t.Error("accelerator does not accept device providers")
	}
}

func TestSetDeviceProviderNil(t *testing.T) {
	if err := SetDeviceProvider(nil); !errors.Is(err, ErrNilProvider) {
		t.Errorf("got %v, want ErrNilProvider", err)
	}
}

func TestSetDeviceProviderWithoutHal(t *testing.T) {
	if err := SetDeviceProvider(&mockProvider{}); err == nil {
		t.Error("expected error for provider without HAL access")
	}
}
