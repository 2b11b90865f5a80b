// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package onesweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/gogpu/onesweep/internal/cache"
	"github.com/gogpu/onesweep/internal/simt"
	"github.com/gogpu/onesweep/internal/sortcore"
	"github.com/gogpu/onesweep/internal/validate"
)

// PassStats are the chained-scan counters of one reordering pass.
type PassStats = sortcore.PassStats

// Passes is the number of reordering passes of a sort.
const Passes = sortcore.Passes

// Sorter sorts key slices in place. Pipelines for the most recently used key
// counts are kept between calls (see WithPipelineCache).
//
// A Sorter is safe for concurrent use; concurrent sorts are serialized.
type Sorter struct {
	opts options

	mu        sync.Mutex
	exec      *simt.Executor
	pipelines *cache.LRU[int, *sortcore.Pipeline]
	stats     [Passes]PassStats
	onGPU     bool
	closed    bool
}

// NewSorter creates a sorter.
func NewSorter(opts ...Option) (*Sorter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	exec, err := simt.NewExecutor(o.executorConfig())
	if err != nil {
		return nil, fmt.Errorf("onesweep: %w", err)
	}
	return &Sorter{
		opts:      o,
		exec:      exec,
		pipelines: cache.New[int, *sortcore.Pipeline](o.pipelineCache, nil),
	}, nil
}

func (s *Sorter) logger() *slog.Logger {
	if s.opts.logger != nil {
		return s.opts.logger
	}
	return Logger()
}

// Close stops the software executor. The registered accelerator is not
// affected.
func (s *Sorter) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pipelines.Clear()
	s.exec.Close()
}

// Sort sorts keys in ascending order, in place.
//
// If Sort fails the contents of keys are unspecified, except for
// ErrInsufficientResource and context errors returned before any work
// started, which leave keys unchanged.
func (s *Sorter) Sort(ctx context.Context, keys []uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(keys) > MaxKeys {
		return fmt.Errorf("%w: %d keys, at most %d", ErrInsufficientResource, len(keys), MaxKeys)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return simt.ErrExecutorClosed
	}

	var input []uint32
	if s.opts.validate {
		input = slices.Clone(keys)
	}

	if err := s.sort(ctx, keys); err != nil {
		return err
	}

	if s.opts.validate {
		if err := validate.SortedPermutation(ctx, input, keys); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	return nil
}

func (s *Sorter) sort(ctx context.Context, keys []uint32) error {
	s.onGPU = false
	if !s.opts.cpuOnly {
		if a := RegisteredAccelerator(); a != nil {
			err := a.Sort(ctx, keys)
			if err == nil {
				s.onGPU = true
				s.stats = [Passes]PassStats{}
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			level := slog.LevelWarn
			if errors.Is(err, ErrFallbackToCPU) {
				level = slog.LevelDebug
			}
			s.logger().Log(ctx, level, "onesweep: accelerator failed, sorting on CPU",
				"accelerator", a.Name(),
				"keys", len(keys),
				"err", err)
		}
	}

	p, err := s.pipelines.GetOrCreate(len(keys), func() (*sortcore.Pipeline, error) {
		return sortcore.NewPipeline(s.exec, len(keys))
	})
	if err != nil {
		return err
	}
	if err := p.Run(ctx, keys); err != nil {
		// A failed run leaves the pipeline buffers in an unspecified state.
		s.pipelines.Delete(len(keys))
		return err
	}
	s.stats = p.Stats()

	s.logger().Debug("onesweep: sorted on CPU",
		"keys", len(keys),
		"subgroup_size", s.exec.SubgroupSize(),
		"subgroups", s.exec.Features().Subgroups,
		"workers", s.exec.Workers())
	return nil
}

// Stats returns the chained-scan counters of the last software sort. They
// are zero after a sort that ran on the accelerator.
func (s *Sorter) Stats() [Passes]PassStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Accelerated reports whether the last sort ran on the accelerator.
func (s *Sorter) Accelerated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onGPU
}

// Sort sorts keys in ascending order, in place, with a temporary Sorter.
func Sort(ctx context.Context, keys []uint32, opts ...Option) error {
	s, err := NewSorter(opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Sort(ctx, keys)
}
