// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

// Radix sort geometry.
const (
	// Radix is the number of buckets per digit-place.
	Radix = 256

	// RadixLog is the digit width in bits.
	RadixLog = 8

	// RadixMask extracts one digit.
	RadixMask = Radix - 1

	// Passes is the number of digit-places of a 32-bit key.
	Passes = 4
)

// onesweep_pass geometry.
const (
	// BlockDim is the number of threads of a pass workgroup.
	BlockDim = 256

	// KeysPerThread is the number of keys each pass thread ranks.
	KeysPerThread = 15

	// TileSize is the number of keys owned by one pass workgroup.
	TileSize = BlockDim * KeysPerThread

	// MaxSpinCount bounds the loads of a spine cell that is NOT_READY before
	// the workgroup recomputes the predecessor's counts itself.
	MaxSpinCount = 4
)

// global_hist geometry.
const (
	// ReduceBlockDim is the number of threads of a histogram workgroup.
	ReduceBlockDim = 128

	// ReduceKeysPerThread is the number of keys each histogram thread reads.
	ReduceKeysPerThread = 30

	// ReduceTileSize is the number of keys one histogram workgroup reads.
	ReduceTileSize = ReduceBlockDim * ReduceKeysPerThread
)

// Histogram partitions of a pass tile. Each partition is owned by
// partitionLanes consecutive threads, whatever the subgroup width.
const (
	partitionLanes = 32
	numPartitions  = BlockDim / partitionLanes
)

// MaxKeys is the largest supported key count. Spine values are 30 bits wide.
const MaxKeys = 1<<30 - 1

// padKey fills the unused slots of the last tile. It sorts after every other
// key in every digit-place.
const padKey = 0xFFFFFFFF

// NumTiles returns the number of pass tiles for n keys.
func NumTiles(n int) int {
	return (n + TileSize - 1) / TileSize
}

// NumReduceTiles returns the number of histogram workgroups for n keys.
func NumReduceTiles(n int) int {
	return (n + ReduceTileSize - 1) / ReduceTileSize
}

// digit returns the digit of key at shift.
func digit(key uint32, shift uint32) uint32 {
	return key >> shift & RadixMask
}
