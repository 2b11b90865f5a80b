// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

import "github.com/gogpu/onesweep/internal/simt"

// SpineScan is the onesweep_scan kernel. Workgroup d scans row d of Hist and
// stores the exclusive prefixes, tagged INCLUSIVE, into the head slot of
// digit-place d of Spine. It is dispatched with exactly Passes workgroups.
type SpineScan struct {
	Params Params
	Hist   *simt.Buffer
	Spine  *simt.Buffer
}

// Name implements simt.Kernel.
func (k *SpineScan) Name() string { return "onesweep_scan" }

// WorkgroupSize implements simt.Kernel.
func (k *SpineScan) WorkgroupSize() int { return BlockDim }

// Run implements simt.Kernel.
func (k *SpineScan) Run(wg *simt.Workgroup) {
	var (
		vals    [Radix]uint32
		scratch [2 * Radix]uint32
	)
	d := wg.ID

	wg.Threads(func(tid int) {
		vals[tid] = k.Hist.Load(d*Radix + uint32(tid)) //nolint:gosec // tid < Radix
	})

	wg.ExclusiveScan(vals[:], scratch[:])

	head := spineIndex(d, k.Params.ThreadBlocks, 0, 0)
	wg.Threads(func(tid int) {
		k.Spine.Store(head+uint32(tid), PackCell(FlagInclusive, vals[tid])) //nolint:gosec // tid < Radix
	})
}
