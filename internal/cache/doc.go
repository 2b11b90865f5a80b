// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache keeps sort resources keyed by key count.
//
// Allocating a sort pipeline costs a pong key buffer and a spine of
// 4 x tiles x 256 cells, so sorters keep the resources of the most recently
// used sizes in an [LRU] and release the rest through its eviction callback:
//
//	c := cache.New[int, *Buffers](2, func(n int, b *Buffers) { b.Destroy() })
//	bufs, err := c.GetOrCreate(n, func() (*Buffers, error) { return alloc(n) })
//
// LRU is safe for concurrent use. It must not be copied after creation.
package cache
