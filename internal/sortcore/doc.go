// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sortcore implements the OneSweep least-significant-digit radix sort
// for 32-bit unsigned keys.
//
// A sort is three kinds of compute dispatch over shared storage buffers:
//
//   - global_hist builds the 4x256 digit histogram of the whole input.
//   - onesweep_scan turns each 256-entry histogram into exclusive prefixes and
//     stores them, tagged INCLUSIVE, into the head slot of that digit-place's
//     spine.
//   - onesweep_pass reorders the keys by one digit. It runs four times, least
//     significant digit first, ping-ponging between two key buffers.
//
// Each pass workgroup owns one tile of [TileSize] keys. It acquires its tile
// id from an atomic counter, ranks its keys with a warp-level multisplit,
// publishes its digit counts to the spine and then looks back over the spine
// cells of its predecessors to find where its keys go. A predecessor that has
// not published within [MaxSpinCount] loads has its counts recomputed from the
// input keys, so no tile ever waits on another one indefinitely.
//
// The kernels run on the software executor in internal/simt. The same three
// kernels are provided as WGSL in the shaders directory for hardware devices.
package sortcore
