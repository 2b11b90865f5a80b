// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build arm64

package simt

import "golang.org/x/sys/cpu"

func init() {
	// NEON is 128-bit on every ARMv8 core.
	if cpu.ARM64.HasASIMD {
		hostSubgroupSize = 4
	}
}
