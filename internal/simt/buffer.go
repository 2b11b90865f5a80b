// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package simt

import (
	"fmt"
	"sync/atomic"
)

// Buffer is a storage region of 32-bit cells shared by all workgroups.
//
// Plain accessors (Get, Set, Data) are for cells that only one workgroup
// touches during a dispatch. Cells that several workgroups read and write
// concurrently must go through the atomic methods.
type Buffer struct {
	label string
	data  []uint32
}

// NewBuffer allocates a zero-filled buffer of n cells.
func NewBuffer(label string, n int) *Buffer {
	return &Buffer{label: label, data: make([]uint32, n)}
}

// WrapBuffer binds caller-owned memory as a buffer without copying.
func WrapBuffer(label string, data []uint32) *Buffer {
	return &Buffer{label: label, data: data}
}

// Label returns the debug label of the buffer.
func (b *Buffer) Label() string { return b.label }

// Len returns the number of cells.
func (b *Buffer) Len() int { return len(b.data) }

// Data returns the backing slice. Only safe while no dispatch is running.
func (b *Buffer) Data() []uint32 { return b.data }

// String implements fmt.Stringer.
func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer(%s, %d cells)", b.label, len(b.data))
}

// Get is a plain load.
func (b *Buffer) Get(i uint32) uint32 { return b.data[i] }

// Set is a plain store.
func (b *Buffer) Set(i, v uint32) { b.data[i] = v }

// Clear zero-fills the buffer.
func (b *Buffer) Clear() { clear(b.data) }

// Load is atomicLoad.
func (b *Buffer) Load(i uint32) uint32 {
	return atomic.LoadUint32(&b.data[i])
}

// Store is atomicStore.
func (b *Buffer) Store(i, v uint32) {
	atomic.StoreUint32(&b.data[i], v)
}

// Add is atomicAdd. It returns the value held before the addition.
func (b *Buffer) Add(i, v uint32) uint32 {
	return atomic.AddUint32(&b.data[i], v) - v
}

// Max is atomicMax. It returns the value held before the operation.
func (b *Buffer) Max(i, v uint32) uint32 {
	p := &b.data[i]
	for {
		old := atomic.LoadUint32(p)
		if old >= v {
			return old
		}
		if atomic.CompareAndSwapUint32(p, old, v) {
			return old
		}
	}
}

// CompareExchangeWeak is atomicCompareExchangeWeak. It returns the value
// observed in the cell and whether the exchange happened.
func (b *Buffer) CompareExchangeWeak(i, cmp, v uint32) (uint32, bool) {
	p := &b.data[i]
	if atomic.CompareAndSwapUint32(p, cmp, v) {
		return cmp, true
	}
	return atomic.LoadUint32(p), false
}
