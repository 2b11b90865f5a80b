// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

import (
	"sync/atomic"

	"github.com/gogpu/onesweep/internal/simt"
)

// PassStats counts chained-scan events of one pass.
type PassStats struct {
	// Lookbacks is the number of lookback steps taken by all tiles.
	Lookbacks uint64

	// Spins is the number of spine loads that found a NOT_READY cell.
	Spins uint64

	// Fallbacks is the number of predecessor tiles recounted from the keys.
	Fallbacks uint64
}

type passCounters struct {
	lookbacks atomic.Uint64
	spins     atomic.Uint64
	fallbacks atomic.Uint64
}

func (c *passCounters) snapshot() PassStats {
	return PassStats{
		Lookbacks: c.lookbacks.Load(),
		Spins:     c.spins.Load(),
		Fallbacks: c.fallbacks.Load(),
	}
}

// passHooks run inside pass workgroups. Tests use them to stall tiles.
type passHooks struct {
	beforePost func(pass, partid uint32)
	afterTile  func(pass, partid uint32)
}

// Pass is the onesweep_pass kernel: one stable counting pass over the digit at
// Params.Shift, from KeysIn to KeysOut. It is dispatched with
// Params.ThreadBlocks workgroups, one per tile.
type Pass struct {
	Params  Params
	KeysIn  *simt.Buffer
	KeysOut *simt.Buffer
	Spine   *simt.Buffer
	Bump    *simt.Buffer

	stats passCounters
	hooks *passHooks
}

// Name implements simt.Kernel.
func (k *Pass) Name() string { return "onesweep_pass" }

// WorkgroupSize implements simt.Kernel.
func (k *Pass) WorkgroupSize() int { return BlockDim }

// Stats returns the chained-scan counters accumulated so far.
func (k *Pass) Stats() PassStats { return k.stats.snapshot() }

// Run implements simt.Kernel.
func (k *Pass) Run(wg *simt.Workgroup) {
	s := tilePool.Get().(*tileState)
	defer tilePool.Put(s)
	s.reset()

	pass := k.Params.pass()
	shift := k.Params.Shift
	tiles := k.Params.ThreadBlocks

	// The tile is not the dispatch index: workgroups may start in any order.
	var partid uint32
	wg.Threads(func(tid int) {
		if tid == 0 {
			partid = k.Bump.Add(pass, 1)
		}
	})
	last := partid == tiles-1
	width := laneWidth(wg)

	k.load(wg, s, partid, width)
	k.rankKeys(wg, s, shift, width)
	k.scanTile(wg, s, shift)

	if !last {
		if k.hooks != nil && k.hooks.beforePost != nil {
			k.hooks.beforePost(pass, partid)
		}
		k.post(wg, s, pass, tiles, partid)
	}

	k.scatterShared(wg, s)
	k.lookback(wg, s, pass, tiles, partid, last)
	k.scatterGlobal(wg, s, shift, partid)

	if k.hooks != nil && k.hooks.afterTile != nil {
		k.hooks.afterTile(pass, partid)
	}
}

// load reads the tile. Lane l of subgroup g reads key j from offset
// g*width*KeysPerThread + j*width + l; slots past the end hold padKey.
func (k *Pass) load(wg *simt.Workgroup, s *tileState, partid uint32, width int) {
	n := k.Params.Length
	tileStart := partid * TileSize
	wg.Threads(func(tid int) {
		g, lane := tid/width, tid%width
		base := tileStart + uint32(g*width*KeysPerThread+lane) //nolint:gosec // < TileSize
		for j := range KeysPerThread {
			key := uint32(padKey)
			if i := base + uint32(j*width); i < n { //nolint:gosec // < TileSize
				key = k.KeysIn.Get(i)
			}
			s.keys[tid*KeysPerThread+j] = key
		}
	})
}

// scanTile turns the partition histograms into tile-local destinations.
// Thread v owns digit value v.
func (k *Pass) scanTile(wg *simt.Workgroup, s *tileState, shift uint32) {
	wg.Threads(func(v int) {
		var red uint32
		for p := range numPartitions {
			c := s.hist[p*Radix+v]
			s.hist[p*Radix+v] = red
			red += c
		}
		s.localReduction[v] = red
		s.tileBase[v] = red
	})

	wg.ExclusiveScan(s.tileBase[:], s.scanScratch[:])

	wg.Threads(func(tid int) {
		hist := s.hist[tid/partitionLanes*Radix:][:Radix]
		for j := range KeysPerThread {
			i := tid*KeysPerThread + j
			d := digit(s.keys[i], shift)
			s.offsets[i] += hist[d] + s.tileBase[d]
		}
	})
}

// post publishes the tile's digit counts as REDUCTION into the spine slot of
// the next tile. Slot 0 holds the global prefixes, so tile t posts to t+1.
func (k *Pass) post(wg *simt.Workgroup, s *tileState, pass, tiles, partid uint32) {
	wg.Threads(func(v int) {
		idx := spineIndex(pass, tiles, partid+1, uint32(v)) //nolint:gosec // v < Radix
		k.Spine.Max(idx, PackCell(FlagReduction, s.localReduction[v]))
	})
}

// scatterShared groups the tile's keys into contiguous digit runs.
func (k *Pass) scatterShared(wg *simt.Workgroup, s *tileState) {
	wg.Threads(func(tid int) {
		for j := range KeysPerThread {
			i := tid*KeysPerThread + j
			s.reordered[s.offsets[i]] = s.keys[i]
		}
	})
}

// lookback walks the spine from slot partid down until every digit has seen
// an INCLUSIVE cell. A slot that stays NOT_READY for MaxSpinCount loads on
// any lane sends the whole workgroup into fallback for that slot.
//
// Once digit v is complete its accumulator is the global offset of the
// tile's first v key, and it is added to the tile's own REDUCTION post,
// which promotes that cell to INCLUSIVE.
func (k *Pass) lookback(wg *simt.Workgroup, s *tileState, pass, tiles, partid uint32, last bool) {
	var spins uint64
	complete := 0

	for lookbackID := partid; complete < Radix; lookbackID-- {
		incomplete := false
		k.stats.lookbacks.Add(1)

		wg.Threads(func(v int) {
			if s.done[v] {
				return
			}
			idx := spineIndex(pass, tiles, lookbackID, uint32(v)) //nolint:gosec // v < Radix
			var cell uint32
			for range MaxSpinCount {
				if cell = k.Spine.Load(idx); CellStatus(cell) != NotReady {
					break
				}
				spins++
			}
			s.loaded[v] = cell
			if CellStatus(cell) == NotReady {
				incomplete = true
			}
		})

		if incomplete {
			if lookbackID == 0 {
				panic("sortcore: spine head is not ready")
			}
			k.stats.fallbacks.Add(1)
			k.recount(wg, s, lookbackID-1)

			wg.Threads(func(v int) {
				if s.done[v] {
					return
				}
				idx := spineIndex(pass, tiles, lookbackID, uint32(v)) //nolint:gosec // v < Radix
				prior := k.Spine.Max(idx, PackCell(FlagReduction, s.fallback[v]))
				if CellStatus(prior) == Inclusive {
					s.acc[v] += CellValue(prior)
					s.done[v] = true
				} else {
					s.acc[v] += s.fallback[v]
				}
			})
		} else {
			wg.Threads(func(v int) {
				if s.done[v] {
					return
				}
				s.acc[v] += CellValue(s.loaded[v])
				if CellStatus(s.loaded[v]) == Inclusive {
					s.done[v] = true
				}
			})
		}

		wg.Threads(func(v int) {
			if !s.done[v] || s.promoted[v] {
				return
			}
			s.promoted[v] = true
			complete++
			if !last {
				idx := spineIndex(pass, tiles, partid+1, uint32(v)) //nolint:gosec // v < Radix
				k.Spine.Add(idx, PackCell(FlagReduction, s.acc[v]))
			}
		})
	}

	k.stats.spins.Add(spins)

	wg.Threads(func(v int) {
		s.localHist[v] = s.acc[v] - s.tileBase[v]
	})
}

// recount rebuilds the digit counts of tile from the input keys.
func (k *Pass) recount(wg *simt.Workgroup, s *tileState, tile uint32) {
	clear(s.fallback[:])
	start := tile * TileSize
	end := min(start+TileSize, k.Params.Length)
	shift := k.Params.Shift
	wg.Threads(func(tid int) {
		for i := start + uint32(tid); i < end; i += BlockDim { //nolint:gosec // tid < BlockDim
			s.fallback[digit(k.KeysIn.Get(i), shift)]++
		}
	})
}

// scatterGlobal writes the reordered tile. Padding keys sort to the end of
// the tile and are not written.
func (k *Pass) scatterGlobal(wg *simt.Workgroup, s *tileState, shift, partid uint32) {
	count := min(TileSize, k.Params.Length-partid*TileSize)
	wg.Threads(func(tid int) {
		for i := uint32(tid); i < count; i += BlockDim { //nolint:gosec // tid < BlockDim
			key := s.reordered[i]
			k.KeysOut.Set(s.localHist[digit(key, shift)]+i, key)
		}
	})
}
