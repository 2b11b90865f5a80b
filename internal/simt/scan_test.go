// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package simt

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func referenceExclusive(vals []uint32) ([]uint32, uint32) {
	out := make([]uint32, len(vals))
	var acc uint32
	for i, v := range vals {
		out[i] = acc
		acc += v
	}
	return out, acc
}

func TestWorkgroupExclusiveScan(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for _, size := range []int{4, 8, 16, 32} {
		for _, subgroups := range []bool{true, false} {
			for _, n := range []int{size, 64, 128, 256} {
				if n%size != 0 {
					continue
				}
				wg := &Workgroup{Size: n, SubgroupSize: size, Features: Features{Subgroups: subgroups}}
				vals := make([]uint32, n)
				for i := range vals {
					vals[i] = rng.Uint32N(1000)
				}
				want, wantTotal := referenceExclusive(vals)

				scratch := make([]uint32, n)
				total := wg.ExclusiveScan(vals, scratch)
				if total != wantTotal {
					t.Errorf("size=%d subgroups=%v n=%d: total = %d, want %d", size, subgroups, n, total, wantTotal)
				}
				if !slices.Equal(vals, want) {
					t.Errorf("size=%d subgroups=%v n=%d: scan mismatch", size, subgroups, n)
				}
			}
		}
	}
}

func TestExclusiveScanLaneZeroIsZero(t *testing.T) {
	wg := &Workgroup{Size: 256, SubgroupSize: 32, Features: Features{Subgroups: true}}
	vals := make([]uint32, 256)
	for i := range vals {
		vals[i] = 1
	}
	total := wg.ExclusiveScan(vals, make([]uint32, 256))
	if vals[0] != 0 || vals[255] != 255 || total != 256 {
		t.Errorf("vals[0]=%d vals[255]=%d total=%d", vals[0], vals[255], total)
	}
}
