// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build amd64

package simt

import "golang.org/x/sys/cpu"

func init() {
	switch {
	case cpu.X86.HasAVX512F:
		hostSubgroupSize = 16
	case cpu.X86.HasAVX2:
		hostSubgroupSize = 8
	default:
		// SSE2 is part of the amd64 baseline.
		hostSubgroupSize = 4
	}
}
