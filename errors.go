// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package onesweep

import (
	"errors"

	"github.com/gogpu/onesweep/internal/simt"
	"github.com/gogpu/onesweep/internal/sortcore"
)

// MaxKeys is the largest number of keys a single sort accepts.
const MaxKeys = sortcore.MaxKeys

var (
	// ErrInsufficientResource is returned when the key count exceeds what the
	// executor can address.
	ErrInsufficientResource = sortcore.ErrInsufficientResource

	// ErrUnsupportedPlatform is returned when an executor lacks a capability
	// the sort requires.
	ErrUnsupportedPlatform = errors.New("onesweep: unsupported platform")

	// ErrDeviceLost is returned when the executor fails during a sort. The
	// contents of the key slice are unspecified.
	ErrDeviceLost = simt.ErrDeviceLost

	// ErrValidation is returned by a sorter created WithValidation when the
	// output is not a sorted permutation of the input.
	ErrValidation = errors.New("onesweep: output failed validation")

	// ErrInvalidSubgroupSize is returned by NewSorter for an unsupported
	// emulated subgroup width.
	ErrInvalidSubgroupSize = simt.ErrInvalidSubgroupSize
)
