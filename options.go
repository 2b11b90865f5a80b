// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package onesweep

import (
	"log/slog"

	"github.com/gogpu/onesweep/internal/simt"
)

// Option configures a Sorter during creation.
//
// Example:
//
//	// Default: accelerator if registered, software executor otherwise
//	s, _ := onesweep.NewSorter()
//
//	// Software executor with 4 workers and no subgroup primitives
//	s, _ := onesweep.NewSorter(onesweep.WithCPUOnly(), onesweep.WithWorkers(4), onesweep.WithoutSubgroups())
type Option func(*options)

// defaultPipelineCache is the number of key counts a Sorter keeps pipelines for.
const defaultPipelineCache = 2

// options holds optional configuration for Sorter creation.
type options struct {
	workers       int
	subgroupSize  int
	noSubgroups   bool
	validate      bool
	cpuOnly       bool
	pipelineCache int
	logger        *slog.Logger
}

// defaultOptions returns the default sorter options.
func defaultOptions() options {
	return options{
		workers:       0, // GOMAXPROCS
		subgroupSize:  0, // simt.DefaultSubgroupSize()
		pipelineCache: defaultPipelineCache,
	}
}

// executorConfig returns the software executor configuration.
func (o options) executorConfig() simt.Config {
	return simt.Config{
		Workers:      o.workers,
		SubgroupSize: o.subgroupSize,
		Features:     simt.Features{Subgroups: !o.noSubgroups},
	}
}

// WithWorkers sets the number of workgroups the software executor runs at
// once. Zero or less means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.workers = n
	}
}

// WithSubgroupSize sets the emulated subgroup width of the software executor:
// 4, 8, 16 or 32. By default it is derived from the host CPU vector width and
// can be overridden with the ONESWEEP_SUBGROUP_SIZE environment variable.
func WithSubgroupSize(n int) Option {
	return func(o *options) {
		o.subgroupSize = n
	}
}

// WithoutSubgroups disables the subgroup primitives of the software executor.
// The kernels then take their shared-memory paths.
func WithoutSubgroups() Option {
	return func(o *options) {
		o.noSubgroups = true
	}
}

// WithValidation checks every sort result against its input. A mismatch is
// reported as ErrValidation.
func WithValidation() Option {
	return func(o *options) {
		o.validate = true
	}
}

// WithCPUOnly skips the registered accelerator.
func WithCPUOnly() Option {
	return func(o *options) {
		o.cpuOnly = true
	}
}

// WithPipelineCache sets how many key counts a Sorter keeps software
// pipelines for. Each pipeline holds a second key buffer and a spine of
// 4 x ceil(n/3840) x 256 cells. Values below 1 are treated as 1.
func WithPipelineCache(n int) Option {
	return func(o *options) {
		o.pipelineCache = max(n, 1)
	}
}

// WithLogger sets the logger of this sorter. By default the package logger
// configured with SetLogger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
