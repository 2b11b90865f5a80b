// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package simt is a software compute executor with GPU execution semantics.
//
// It runs compute kernels written against a GPU-style model on the host CPU:
// a dispatch launches a number of uniformly sized workgroups, workgroups run
// concurrently on a worker pool in no guaranteed order, and global memory is a
// set of 32-bit storage buffers with atomic load, store, add, max and
// compare-exchange.
//
// # Execution model
//
// Threads of a workgroup execute in lock-step phases. A phase is a loop over
// the thread ids of the workgroup; the end of a phase is a workgroup barrier.
// Workgroup scratch memory is owned by the running workgroup and is accessed
// with plain loads and stores. Storage buffers are shared between all
// workgroups of all dispatches and must be accessed atomically wherever two
// workgroups can touch the same cell.
//
// There is no forward-progress guarantee between workgroups: a workgroup that
// waits on another one occupies its worker until it gives up. Kernels that need
// inter-workgroup communication must be able to make progress on their own.
//
// # Subgroups
//
// A subgroup is a contiguous range of [Executor.SubgroupSize] threads inside a
// workgroup. The subgroup primitives in this package (Ballot, Shuffle,
// ShuffleUp, InclusiveAdd, ExclusiveAdd, ReduceAdd, Any, All) operate on one
// register per lane, passed as a slice of subgroup length.
//
// When [Features.Subgroups] is false, kernels are expected to take their
// shared-memory emulation paths instead; [Workgroup.ExclusiveScan] does so
// automatically.
//
// # Queue
//
// [Queue.Submit] executes commands strictly in order, each command completing
// before the next one starts, which is the ordering a GPU submission queue
// provides between dependent dispatches.
package simt
