// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

import "encoding/binary"

// ParamsSize is the size of the uniform block in bytes.
const ParamsSize = 16

// Params is the uniform block bound to every sort dispatch. It matches the
// InfoStruct uniform of the WGSL shaders.
type Params struct {
	// Length is the number of keys.
	Length uint32

	// Shift is the bit offset of the digit sorted by a pass.
	Shift uint32

	// ThreadBlocks is the number of workgroups of the dispatch.
	ThreadBlocks uint32

	// Seed is unused by the sort kernels and always zero.
	Seed uint32
}

// Bytes returns the little-endian uniform buffer contents.
func (p Params) Bytes() []byte {
	b := make([]byte, ParamsSize)
	binary.LittleEndian.PutUint32(b[0:], p.Length)
	binary.LittleEndian.PutUint32(b[4:], p.Shift)
	binary.LittleEndian.PutUint32(b[8:], p.ThreadBlocks)
	binary.LittleEndian.PutUint32(b[12:], p.Seed)
	return b
}

// pass returns the digit-place index sorted by a pass.
func (p Params) pass() uint32 { return p.Shift / RadixLog }
