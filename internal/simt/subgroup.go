// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package simt

import "math/bits"

// MaxBallotLanes is the widest subgroup a 32-bit ballot can describe.
const MaxBallotLanes = 32

// Subgroup primitives. Every function takes one register per lane as a slice
// whose length is the subgroup size; lane i is element i.

// ActiveMask returns the ballot mask with all size lanes set.
func ActiveMask(size int) uint32 {
	if size >= MaxBallotLanes {
		return ^uint32(0)
	}
	return uint32(1)<<uint(size) - 1
}

// LanesBelow returns the mask of lanes strictly lower than lane.
func LanesBelow(lane int) uint32 {
	return uint32(1)<<uint(lane) - 1
}

// Ballot returns a mask with bit i set when pred[i] is true.
func Ballot(pred []bool) uint32 {
	if len(pred) > MaxBallotLanes {
		panic("simt: ballot over more than 32 lanes")
	}
	var m uint32
	for i, p := range pred {
		if p {
			m |= 1 << uint(i)
		}
	}
	return m
}

// Any reports whether pred is true on at least one lane.
func Any(pred []bool) bool {
	for _, p := range pred {
		if p {
			return true
		}
	}
	return false
}

// All reports whether pred is true on every lane.
func All(pred []bool) bool {
	for _, p := range pred {
		if !p {
			return false
		}
	}
	return true
}

// Broadcast returns the register of lane src, as seen by every lane.
func Broadcast(vals []uint32, src int) uint32 {
	return vals[src]
}

// Shuffle sets dst[i] = src[lanes[i]] for every lane.
// dst and src may not alias.
func Shuffle(dst, src []uint32, lanes []int) {
	for i, l := range lanes {
		dst[i] = src[l]
	}
}

// ShuffleUp rotates registers up by delta lanes: dst[i] = src[(i-delta) mod n].
// Lane 0 therefore receives the register of the highest lane when delta is 1.
// dst and src may not alias.
func ShuffleUp(dst, src []uint32, delta int) {
	n := len(src)
	for i := range dst {
		dst[i] = src[((i-delta)%n+n)%n]
	}
}

// InclusiveAdd replaces vals with its inclusive prefix sum and returns the
// subgroup total.
func InclusiveAdd(vals []uint32) uint32 {
	var acc uint32
	for i, v := range vals {
		acc += v
		vals[i] = acc
	}
	return acc
}

// ExclusiveAdd replaces vals with its exclusive prefix sum and returns the
// subgroup total.
func ExclusiveAdd(vals []uint32) uint32 {
	var acc uint32
	for i, v := range vals {
		vals[i] = acc
		acc += v
	}
	return acc
}

// ReduceAdd returns the sum of vals.
func ReduceAdd(vals []uint32) uint32 {
	var acc uint32
	for _, v := range vals {
		acc += v
	}
	return acc
}

// BitBallots casts one ballot per digit bit: votes[b] has lane i set when bit
// shift+b of keys[i] is set. pred is scratch of at least len(keys) entries.
func BitBallots(votes []uint32, keys []uint32, shift uint, pred []bool) {
	pred = pred[:len(keys)]
	for b := range votes {
		bit := shift + uint(b)
		for i, k := range keys {
			pred[i] = k>>bit&1 != 0
		}
		votes[b] = Ballot(pred)
	}
}

// MatchMask intersects bit ballots into the mask of lanes whose digit equals
// digit, negating a ballot wherever the digit's own bit is clear. active
// limits the result to participating lanes.
func MatchMask(votes []uint32, digit uint32, active uint32) uint32 {
	eq := active
	for b, v := range votes {
		if digit>>uint(b)&1 != 0 {
			eq &= v
		} else {
			eq &= ^v
		}
	}
	return eq
}

// HighestLane returns the highest lane set in mask, or -1 for an empty mask.
func HighestLane(mask uint32) int {
	return bits.Len32(mask) - 1
}
