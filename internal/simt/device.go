// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package simt

import (
	"os"
	"strconv"
)

// SubgroupSizeEnv overrides the detected default subgroup width.
const SubgroupSizeEnv = "ONESWEEP_SUBGROUP_SIZE"

// hostSubgroupSize is the number of 32-bit lanes in one host vector
// register, set by the per-architecture init.
var hostSubgroupSize = MaxBallotLanes

// DefaultSubgroupSize returns the subgroup width modelled when a caller does
// not choose one: the value of ONESWEEP_SUBGROUP_SIZE when it is valid,
// otherwise the host vector width in 32-bit lanes.
func DefaultSubgroupSize() int {
	if v := os.Getenv(SubgroupSizeEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && ValidSubgroupSize(n) {
			return n
		}
	}
	return hostSubgroupSize
}
