// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

import (
	"math/bits"

	"github.com/gogpu/onesweep/internal/simt"
)

// laneWidth is the number of lanes ranked together. Without subgroup support
// a partition is one 32-lane virtual subgroup.
func laneWidth(wg *simt.Workgroup) int {
	if !wg.Features.Subgroups || wg.SubgroupSize > partitionLanes {
		return partitionLanes
	}
	return wg.SubgroupSize
}

// rankKeys is the warp-level multisplit. For every key it computes the
// position of the key among the keys of its partition with the same digit,
// in key memory order, and leaves the partition histograms holding the
// per-digit counts.
//
// When subgroups are narrower than a partition, the subgroups of a partition
// take turns in ascending order (serial warp histogramming), so the ranks
// still follow memory order.
func (k *Pass) rankKeys(wg *simt.Workgroup, s *tileState, shift uint32, width int) {
	ls := &s.lanes
	active := simt.ActiveMask(width)

	for p := range numPartitions {
		hist := s.hist[p*Radix:][:Radix]
		for g := range partitionLanes / width {
			base := p*partitionLanes + g*width
			for j := range KeysPerThread {
				for l := range width {
					ls.keys[l] = s.keys[(base+l)*KeysPerThread+j]
				}

				if wg.Features.Subgroups {
					ls.matchBallot(width, shift, active)
				} else {
					ls.matchShared(width, shift)
				}

				// The highest peer of each digit claims rank+1 slots.
				for l := range width {
					if ls.peer[l] == l {
						d := ls.digits[l]
						ls.prior[l] = hist[d]
						hist[d] += ls.rank[l] + 1
					}
				}

				if wg.Features.Subgroups {
					simt.Shuffle(ls.bcast[:width], ls.prior[:width], ls.peer[:width])
				} else {
					for l := range width {
						ls.bcast[l] = ls.prior[ls.peer[l]]
					}
				}

				for l := range width {
					s.offsets[(base+l)*KeysPerThread+j] = ls.bcast[l] + ls.rank[l]
				}
			}
		}
	}
}

// matchBallot finds digit peers with one ballot per digit bit.
func (ls *laneState) matchBallot(width int, shift uint32, active uint32) {
	keys := ls.keys[:width]
	simt.BitBallots(ls.votes[:], keys, uint(shift), ls.pred[:])
	for l, key := range keys {
		d := digit(key, shift)
		eq := simt.MatchMask(ls.votes[:], d, active)
		ls.digits[l] = d
		ls.rank[l] = uint32(bits.OnesCount32(eq & simt.LanesBelow(l))) //nolint:gosec // at most 31
		ls.peer[l] = simt.HighestLane(eq)
	}
}

// matchShared finds digit peers through scratch memory: every lane publishes
// its digit, then scans the digits of the other lanes.
func (ls *laneState) matchShared(width int, shift uint32) {
	for l := range width {
		ls.digits[l] = digit(ls.keys[l], shift)
	}
	for l := range width {
		d := ls.digits[l]
		var rank uint32
		peer := l
		for m := range width {
			if ls.digits[m] != d {
				continue
			}
			if m < l {
				rank++
			} else if m > l {
				peer = m
			}
		}
		ls.rank[l] = rank
		ls.peer[l] = peer
	}
}
