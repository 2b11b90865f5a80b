// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package validate

// Reference sorts a copy of keys with a host LSD radix sort.
func Reference(keys []uint32) []uint32 {
	in := PassInputs(keys)
	return countingPass(in[passes-1], (passes-1)*digitBits)
}

// PassInputs returns the input of every digit pass of an LSD radix sort of
// keys: element 0 is keys itself, element d is keys stably sorted by their d
// lowest digits.
func PassInputs(keys []uint32) [passes][]uint32 {
	var in [passes][]uint32
	in[0] = keys
	for d := 1; d < passes; d++ {
		in[d] = countingPass(in[d-1], uint((d-1)*digitBits))
	}
	return in
}

// countingPass is a stable counting sort of keys by the digit at shift.
func countingPass(keys []uint32, shift uint) []uint32 {
	var offset [radix]int
	for _, k := range keys {
		offset[k>>shift&(radix-1)]++
	}
	sum := 0
	for v, c := range offset {
		offset[v] = sum
		sum += c
	}
	out := make([]uint32, len(keys))
	for _, k := range keys {
		v := k >> shift & (radix - 1)
		out[offset[v]] = k
		offset[v]++
	}
	return out
}
