// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package simt

// ExclusiveScan replaces vals (one register per thread, len(vals) a multiple
// of the subgroup size) with its workgroup-wide exclusive prefix sum and
// returns the total. scratch must hold at least len(vals) cells.
//
// With subgroups it is the two-stage scan: an inclusive add per subgroup,
// a circular shuffle-up by one lane so that every lane holds its exclusive
// prefix and lane 0 the subgroup reduction, then a scan over the subgroup
// reductions. That second scan recurses while there are more reductions than
// lanes, which is what keeps it correct for narrow subgroups.
//
// Without subgroups it is a Hillis-Steele scan in scratch memory.
func (w *Workgroup) ExclusiveScan(vals, scratch []uint32) uint32 {
	if !w.Features.Subgroups {
		return exclusiveScanShared(vals, scratch)
	}
	return exclusiveScanSubgroups(vals, scratch, w.SubgroupSize)
}

func exclusiveScanSubgroups(vals, scratch []uint32, size int) uint32 {
	n := len(vals)
	if n <= size {
		return ExclusiveAdd(vals)
	}

	nsg := (n + size - 1) / size
	reductions := scratch[:nsg]
	rotated := scratch[nsg : nsg+size]

	for sg := range nsg {
		lo := sg * size
		hi := min(lo+size, n)
		lanes := vals[lo:hi]
		InclusiveAdd(lanes)
		ShuffleUp(rotated[:len(lanes)], lanes, 1)
		reductions[sg] = rotated[0]
		rotated[0] = 0
		copy(lanes, rotated[:len(lanes)])
	}

	total := exclusiveScanSubgroups(reductions, scratch[nsg+size:], size)

	for sg := range nsg {
		lo := sg * size
		hi := min(lo+size, n)
		for i := lo; i < hi; i++ {
			vals[i] += reductions[sg]
		}
	}
	return total
}

func exclusiveScanShared(vals, scratch []uint32) uint32 {
	n := len(vals)
	if n == 0 {
		return 0
	}
	src, dst := vals, scratch[:n]
	for offset := 1; offset < n; offset <<= 1 {
		for i := range n {
			if i >= offset {
				dst[i] = src[i] + src[i-offset]
			} else {
				dst[i] = src[i]
			}
		}
		src, dst = dst, src
	}
	// src holds the inclusive scan; shift right by one.
	total := src[n-1]
	if &src[0] == &vals[0] {
		copy(scratch[:n], vals)
		src = scratch[:n]
	}
	vals[0] = 0
	copy(vals[1:], src[:n-1])
	return total
}
