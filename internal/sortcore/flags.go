// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

import "fmt"

// Spine cell encoding: bits 31:30 hold the status, bits 29:0 the count.
// A zero cell is NOT_READY with value zero, so cleared memory is a valid
// initial spine. Adding two REDUCTION cells yields an INCLUSIVE cell.
const (
	FlagNotReady  uint32 = 0
	FlagReduction uint32 = 1 << 30
	FlagInclusive uint32 = 2 << 30
	FlagMask      uint32 = 3 << 30
	ValueMask     uint32 = 1<<30 - 1
)

// Status is the decoded status of a spine cell.
type Status uint32

// Spine cell states.
const (
	NotReady  Status = Status(FlagNotReady >> 30)
	Reduction Status = Status(FlagReduction >> 30)
	Inclusive Status = Status(FlagInclusive >> 30)
)

func (s Status) String() string {
	switch s {
	case NotReady:
		return "NOT_READY"
	case Reduction:
		return "REDUCTION"
	case Inclusive:
		return "INCLUSIVE"
	default:
		return fmt.Sprintf("Status(%d)", uint32(s))
	}
}

// PackCell builds a cell from a flag and a count. The count is truncated to
// 30 bits.
func PackCell(flag, value uint32) uint32 {
	return value&ValueMask | flag
}

// CellStatus returns the status of a cell.
func CellStatus(cell uint32) Status {
	return Status(cell >> 30)
}

// CellValue returns the 30-bit count of a cell.
func CellValue(cell uint32) uint32 {
	return cell & ValueMask
}

// spineIndex returns the position of cell (tile, value) of digit-place pass
// in a spine of tiles tiles per digit-place.
func spineIndex(pass, tiles, tile, value uint32) uint32 {
	return (pass*tiles+tile)*Radix + value
}
