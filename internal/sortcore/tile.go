// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

import "sync"

// tileState is the register file and workgroup memory of one pass workgroup.
// Thread tid holds key j of its tile in keys[tid*KeysPerThread+j].
type tileState struct {
	keys    [TileSize]uint32
	offsets [TileSize]uint32

	// hist holds one Radix-entry histogram per partition. After the tile
	// scan it holds the per-partition exclusive offsets.
	hist [numPartitions * Radix]uint32

	localReduction [Radix]uint32
	tileBase       [Radix]uint32
	localHist      [Radix]uint32
	reordered      [TileSize]uint32
	fallback       [Radix]uint32
	scanScratch    [2 * Radix]uint32

	// Lookback registers, one per digit value.
	acc      [Radix]uint32
	loaded   [Radix]uint32
	done     [Radix]bool
	promoted [Radix]bool

	lanes laneState
}

// laneState is the per-lane scratch of one multisplit step.
type laneState struct {
	keys   [partitionLanes]uint32
	digits [partitionLanes]uint32
	rank   [partitionLanes]uint32
	peer   [partitionLanes]int
	prior  [partitionLanes]uint32
	bcast  [partitionLanes]uint32
	pred   [partitionLanes]bool
	votes  [RadixLog]uint32
}

func (s *tileState) reset() {
	clear(s.hist[:])
	clear(s.acc[:])
	clear(s.done[:])
	clear(s.promoted[:])
}

var tilePool = sync.Pool{
	New: func() any { return new(tileState) },
}
