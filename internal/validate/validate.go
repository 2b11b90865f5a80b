// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package validate checks radix sort results and intermediate state against
// host-side references.
//
// Array checks are split into chunks that run concurrently.
package validate

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Validation errors.
var (
	ErrNotSorted      = errors.New("validate: keys are not in ascending order")
	ErrNotPermutation = errors.New("validate: output is not the sorted input")
	ErrHistogram      = errors.New("validate: histogram mismatch")
	ErrSpine          = errors.New("validate: spine mismatch")
)

const (
	radix     = 256
	digitBits = 8
	passes    = 4

	flagMask      uint32 = 3 << 30
	flagInclusive uint32 = 2 << 30
	valueMask     uint32 = 1<<30 - 1
)

// chunkSize is the number of keys one goroutine checks.
const chunkSize = 1 << 16

// forChunks runs fn over [lo,hi) chunks of n elements concurrently and returns
// the first error.
func forChunks(ctx context.Context, n int, fn func(ctx context.Context, lo, hi int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunkSize {
		hi := min(lo+chunkSize, n)
		g.Go(func() error { return fn(ctx, lo, hi) })
	}
	return g.Wait()
}

// Sorted reports whether keys are in ascending order.
func Sorted(ctx context.Context, keys []uint32) error {
	return forChunks(ctx, len(keys), func(ctx context.Context, lo, hi int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := max(lo, 1); i < hi; i++ {
			if keys[i-1] > keys[i] {
				return fmt.Errorf("%w: keys[%d]=%#x > keys[%d]=%#x", ErrNotSorted, i-1, keys[i-1], i, keys[i])
			}
		}
		return nil
	})
}

// SortedPermutation reports whether out equals in sorted ascending. It
// compares against slices.Sort of a copy of in.
func SortedPermutation(ctx context.Context, in, out []uint32) error {
	if len(in) != len(out) {
		return fmt.Errorf("%w: %d keys in, %d keys out", ErrNotPermutation, len(in), len(out))
	}
	want := slices.Clone(in)
	slices.Sort(want)

	return forChunks(ctx, len(out), func(ctx context.Context, lo, hi int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := lo; i < hi; i++ {
			if out[i] != want[i] {
				return fmt.Errorf("%w: out[%d]=%#x, want %#x", ErrNotPermutation, i, out[i], want[i])
			}
		}
		return nil
	})
}

// Histogram reports whether hist holds the digit counts of keys: passes rows
// of radix entries, row d counting digit d. Every row must sum to len(keys).
func Histogram(keys, hist []uint32) error {
	if len(hist) != passes*radix {
		return fmt.Errorf("%w: %d cells, want %d", ErrHistogram, len(hist), passes*radix)
	}
	want := Counts(keys)
	for d := range passes {
		var sum uint64
		for v := range radix {
			got := hist[d*radix+v]
			if got != want[d][v] {
				return fmt.Errorf("%w: place %d digit %d: got %d, want %d", ErrHistogram, d, v, got, want[d][v])
			}
			sum += uint64(got)
		}
		if sum != uint64(len(keys)) {
			return fmt.Errorf("%w: place %d sums to %d, want %d", ErrHistogram, d, sum, len(keys))
		}
	}
	return nil
}

// Counts returns the digit histograms of keys.
func Counts(keys []uint32) [passes][radix]uint32 {
	var c [passes][radix]uint32
	for _, k := range keys {
		for d := range passes {
			c[d][k>>(d*digitBits)&(radix-1)]++
		}
	}
	return c
}
