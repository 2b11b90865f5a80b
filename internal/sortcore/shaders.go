// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

import _ "embed"

// WGSL sources of the three sort kernels. Binding 0 of every shader is the
// Params uniform block.

// GlobalHistWGSL is global_hist: @binding(1) keys (read), @binding(2) hist.
//
//go:embed shaders/global_hist.wgsl
var GlobalHistWGSL string

// SpineScanWGSL is onesweep_scan: @binding(1) hist (read), @binding(2) spine.
//
//go:embed shaders/onesweep_scan.wgsl
var SpineScanWGSL string

// PassWGSL is onesweep_pass: @binding(1) keys_in (read), @binding(2)
// keys_out, @binding(3) spine, @binding(4) bump.
//
//go:embed shaders/onesweep_pass.wgsl
var PassWGSL string
