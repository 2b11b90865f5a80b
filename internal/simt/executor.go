// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package simt

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/onesweep/internal/parallel"
)

// Executor errors.
var (
	// ErrInvalidSubgroupSize is returned for a subgroup width that is not a
	// power of two in [MinSubgroupSize, MaxBallotLanes].
	ErrInvalidSubgroupSize = errors.New("simt: subgroup size must be a power of two between 4 and 32")

	// ErrInvalidWorkgroupSize is returned when a kernel's workgroup size is
	// not a positive multiple of the subgroup size.
	ErrInvalidWorkgroupSize = errors.New("simt: workgroup size must be a positive multiple of the subgroup size")

	// ErrDeviceLost is returned when a workgroup faults during a dispatch.
	// Output buffers are left in an unspecified state.
	ErrDeviceLost = errors.New("simt: device lost")

	// ErrExecutorClosed is returned by Dispatch after Close.
	ErrExecutorClosed = errors.New("simt: executor is closed")
)

// MinSubgroupSize is the narrowest subgroup the executor models.
const MinSubgroupSize = 4

// Features describes optional capabilities of the executor.
type Features struct {
	// Subgroups enables the subgroup primitive family. Kernels take their
	// shared-memory emulation paths when it is false.
	Subgroups bool
}

// Config configures an Executor.
type Config struct {
	// Workers is the number of workgroups that run at once.
	// Zero means GOMAXPROCS.
	Workers int

	// SubgroupSize is the subgroup width. Zero means DefaultSubgroupSize().
	SubgroupSize int

	// Features selects optional capabilities.
	Features Features
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		SubgroupSize: DefaultSubgroupSize(),
		Features:     Features{Subgroups: true},
	}
}

// ValidSubgroupSize reports whether n is a supported subgroup width.
func ValidSubgroupSize(n int) bool {
	return n >= MinSubgroupSize && n <= MaxBallotLanes && n&(n-1) == 0
}

// Kernel is a compute entry point.
type Kernel interface {
	// Name is the entry point label used in errors and logs.
	Name() string

	// WorkgroupSize is the number of threads per workgroup.
	WorkgroupSize() int

	// Run executes one workgroup.
	Run(wg *Workgroup)
}

// Workgroup describes the workgroup a kernel invocation executes.
type Workgroup struct {
	// ID is the dispatch index of the workgroup. Workgroups do not start in
	// ID order.
	ID uint32

	// NumGroups is the number of workgroups in the dispatch.
	NumGroups uint32

	// Size is the number of threads.
	Size int

	// SubgroupSize is the subgroup width.
	SubgroupSize int

	// Features are the executor capabilities.
	Features Features
}

// NumSubgroups returns Size / SubgroupSize.
func (w *Workgroup) NumSubgroups() int {
	return w.Size / w.SubgroupSize
}

// Threads runs one phase: fn is called for every thread id in order. The
// return from Threads is a workgroup barrier.
func (w *Workgroup) Threads(fn func(tid int)) {
	for tid := range w.Size {
		fn(tid)
	}
}

// Subgroups runs one phase at subgroup granularity: fn receives the subgroup
// index and the thread id of its lane 0.
func (w *Workgroup) Subgroups(fn func(sg, base int)) {
	for sg := range w.NumSubgroups() {
		fn(sg, sg*w.SubgroupSize)
	}
}

// Executor dispatches kernels onto a worker pool.
//
// Executor is safe for concurrent use, but concurrent dispatches share the
// same workers.
type Executor struct {
	pool         *parallel.WorkerPool
	subgroupSize int
	features     Features
}

// NewExecutor creates an executor and starts its workers.
func NewExecutor(cfg Config) (*Executor, error) {
	if cfg.SubgroupSize == 0 {
		cfg.SubgroupSize = DefaultSubgroupSize()
	}
	if !ValidSubgroupSize(cfg.SubgroupSize) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSubgroupSize, cfg.SubgroupSize)
	}
	return &Executor{
		pool:         parallel.NewWorkerPool(cfg.Workers),
		subgroupSize: cfg.SubgroupSize,
		features:     cfg.Features,
	}, nil
}

// SubgroupSize returns the subgroup width.
func (e *Executor) SubgroupSize() int { return e.subgroupSize }

// Features returns the executor capabilities.
func (e *Executor) Features() Features { return e.features }

// Workers returns the number of workgroups that can run at once.
func (e *Executor) Workers() int { return e.pool.Workers() }

// Close stops the workers. Pending dispatches finish first.
func (e *Executor) Close() { e.pool.Close() }

// Dispatch runs groups workgroups of k and returns when all of them are done.
//
// The context is only checked before the dispatch starts; a running dispatch
// always completes.
func (e *Executor) Dispatch(ctx context.Context, k Kernel, groups uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if groups == 0 {
		return nil
	}

	size := k.WorkgroupSize()
	if size <= 0 || size%e.subgroupSize != 0 {
		return fmt.Errorf("%w: %s has %d threads, subgroup size %d",
			ErrInvalidWorkgroupSize, k.Name(), size, e.subgroupSize)
	}

	err := e.pool.Run(int(groups), func(i int) {
		wg := Workgroup{
			ID:           uint32(i), //nolint:gosec // i < groups
			NumGroups:    groups,
			Size:         size,
			SubgroupSize: e.subgroupSize,
			Features:     e.features,
		}
		k.Run(&wg)
	})

	var pe *parallel.PanicError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &pe):
		return fmt.Errorf("%w: %s workgroup %d: %v", ErrDeviceLost, k.Name(), pe.Index, pe.Value)
	case errors.Is(err, parallel.ErrPoolClosed):
		return ErrExecutorClosed
	default:
		return fmt.Errorf("%w: %s: %w", ErrDeviceLost, k.Name(), err)
	}
}
