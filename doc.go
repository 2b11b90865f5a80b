// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package onesweep sorts 32-bit unsigned keys with the OneSweep radix sort.
//
// # Overview
//
// OneSweep is a least-significant-digit radix sort with 8-bit digits. It
// builds all four digit histograms in one read of the input, then reorders
// the keys four times. Each reordering pass reads and writes every key once:
// the exclusive prefix each tile needs is found with a chained scan over an
// atomic "spine", using decoupled lookback and, when a predecessor has not
// published yet, decoupled fallback (the tile recomputes the predecessor's
// counts itself). Fallback is what lets the sort run on executors that do
// not guarantee forward progress between workgroups.
//
// # Quick Start
//
//	keys := []uint32{3, 1, 4, 1, 5, 9, 2, 6}
//	if err := onesweep.Sort(ctx, keys); err != nil {
//	    log.Fatal(err)
//	}
//
// A [Sorter] keeps its buffers between calls of the same size:
//
//	s, err := onesweep.NewSorter(onesweep.WithWorkers(8))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
// # Executors
//
// By default the kernels run on a software executor that models GPU
// workgroups and subgroups on a worker pool. Importing the gpu sub-package
// registers a WebGPU accelerator that runs the same kernels as WGSL on a
// hardware device:
//
//	import _ "github.com/gogpu/onesweep/gpu"
//
// When the accelerator is unavailable or rejects an input, Sort falls back
// to the software executor transparently.
//
// # Limits
//
// Spine cells carry 30-bit counts, so at most [MaxKeys] keys can be sorted.
// The sort is stable; only keys are sorted, there is no payload.
package onesweep
