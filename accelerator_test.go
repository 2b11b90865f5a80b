// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package onesweep

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"testing"
)

// mockAccelerator implements Accelerator for testing.
type mockAccelerator struct {
	name    string
	initErr error
	sortErr error
	// scramble overwrites the keys instead of sorting them.
	scramble bool

	mu     sync.Mutex
	closed bool
	sorts  int
	logger *slog.Logger
}

func (m *mockAccelerator) Name() string { return m.name }

func (m *mockAccelerator) Init() error { return m.initErr }

func (m *mockAccelerator) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

func (m *mockAccelerator) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockAccelerator) Sort(_ context.Context, keys []uint32) error {
	m.mu.Lock()
	m.sorts++
	m.mu.Unlock()
	if m.sortErr != nil {
		return m.sortErr
	}
	if m.scramble {
		for i := range keys {
			keys[i] = uint32(i) //nolint:gosec // test data
		}
		return nil
	}
	slices.Sort(keys)
	return nil
}

func (m *mockAccelerator) sortCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorts
}

func (m *mockAccelerator) SetLogger(l *slog.Logger) {
	m.mu.Lock()
	m.logger = l
	m.mu.Unlock()
}

// resetAccelerator clears the global accelerator state between tests.
func resetAccelerator() {
	accelMu.Lock()
	accel = nil
	accelMu.Unlock()
}

func TestRegisterAcceleratorNil(t *testing.T) {
	resetAccelerator()

	err := RegisterAccelerator(nil)
	if err == nil {
		t.Fatal("expected error when registering nil accelerator")
	}
	if err.Error() != "onesweep: accelerator must not be nil" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if RegisteredAccelerator() != nil {
		t.Error("accelerator should remain nil after failed registration")
	}
}

func TestRegisterAcceleratorInitError(t *testing.T) {
	resetAccelerator()

	initErr := errors.New("GPU init failed")
	mock := &mockAccelerator{name: "failing", initErr: initErr}

	err := RegisterAccelerator(mock)
	if !errors.Is(err, initErr) {
		t.Errorf("expected init error, got: %v", err)
	}
	if RegisteredAccelerator() != nil {
		t.Error("accelerator should remain nil after Init failure")
	}
}

func TestRegisterAcceleratorReplacesOld(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	first := &mockAccelerator{name: "first"}
	second := &mockAccelerator{name: "second"}

	if err := RegisterAccelerator(first); err != nil {
		t.Fatalf("unexpected error registering first: %v", err)
	}
	if err := RegisterAccelerator(second); err != nil {
		t.Fatalf("unexpected error registering second: %v", err)
	}

	if !first.isClosed() {
		t.Error("expected first accelerator to be closed after replacement")
	}
	a := RegisteredAccelerator()
	if a == nil || a.Name() != "second" {
		t.Fatalf("expected accelerator %q, got %v", "second", a)
	}
	if second.isClosed() {
		t.Error("second accelerator should not be closed")
	}
}

func TestUnregisterAccelerator(t *testing.T) {
	resetAccelerator()

	mock := &mockAccelerator{name: "gone"}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	UnregisterAccelerator()
	if RegisteredAccelerator() != nil {
		t.Error("accelerator still registered")
	}
	if !mock.isClosed() {
		t.Error("unregistered accelerator not closed")
	}

	// No-op without an accelerator.
	UnregisterAccelerator()
}

// providerAccelerator records the device provider it receives.
type providerAccelerator struct {
	mockAccelerator
	provider any
	err      error
}

func (p *providerAccelerator) SetDeviceProvider(provider any) error {
	p.provider = provider
	return p.err
}

func TestSetAcceleratorDeviceProvider(t *testing.T) {
	resetAccelerator()
	t.Cleanup(resetAccelerator)

	// No accelerator: no-op.
	if err := SetAcceleratorDeviceProvider("device"); err != nil {
		t.Errorf("no accelerator: got %v", err)
	}

	// Accelerator without device sharing: no-op.
	if err := RegisterAccelerator(&mockAccelerator{name: "plain"}); err != nil {
		t.Fatal(err)
	}
	if err := SetAcceleratorDeviceProvider("device"); err != nil {
		t.Errorf("plain accelerator: got %v", err)
	}

	pa := &providerAccelerator{mockAccelerator: mockAccelerator{name: "sharing"}, err: errors.New("rejected")}
	if err := RegisterAccelerator(pa); err != nil {
		t.Fatal(err)
	}
	if err := SetAcceleratorDeviceProvider("device"); !errors.Is(err, pa.err) {
		t.Errorf("got %v, want provider error", err)
	}
	if pa.provider != "device" {
		t.Errorf("provider not passed: %v", pa.provider)
	}
}
