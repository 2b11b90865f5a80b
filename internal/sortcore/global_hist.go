// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

import "github.com/gogpu/onesweep/internal/simt"

// histSegment is the size of one shared histogram segment: all four
// digit-places of one half of the workgroup.
const histSegment = Passes * Radix

// GlobalHist is the global_hist kernel. It adds the digit histograms of its
// tile of ReduceTileSize keys into Hist, one Radix-entry row per digit-place.
//
// Threads [0,64) count into shared segment 0 and threads [64,128) into
// segment 1, halving the contention on each shared counter.
type GlobalHist struct {
	Params Params
	Keys   *simt.Buffer
	Hist   *simt.Buffer
}

// Name implements simt.Kernel.
func (k *GlobalHist) Name() string { return "global_hist" }

// WorkgroupSize implements simt.Kernel.
func (k *GlobalHist) WorkgroupSize() int { return ReduceBlockDim }

// Run implements simt.Kernel.
func (k *GlobalHist) Run(wg *simt.Workgroup) {
	var shared [2 * histSegment]uint32

	n := k.Params.Length
	base := wg.ID * ReduceTileSize

	wg.Threads(func(tid int) {
		seg := shared[tid/(ReduceBlockDim/2)*histSegment:][:histSegment]
		for j := range uint32(ReduceKeysPerThread) {
			i := base + uint32(tid) + j*ReduceBlockDim //nolint:gosec // tid < ReduceBlockDim
			if i >= n {
				break
			}
			key := k.Keys.Get(i)
			for d := range uint32(Passes) {
				seg[d*Radix+digit(key, d*RadixLog)]++
			}
		}
	})

	wg.Threads(func(tid int) {
		for i := tid; i < histSegment; i += ReduceBlockDim {
			if sum := shared[i] + shared[histSegment+i]; sum != 0 {
				k.Hist.Add(uint32(i), sum) //nolint:gosec // i < histSegment
			}
		}
	})
}
