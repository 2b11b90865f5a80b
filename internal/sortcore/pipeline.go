// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/onesweep/internal/simt"
)

// Pipeline errors.
var (
	// ErrInsufficientResource is returned for key counts whose spine values
	// would not fit in 30 bits.
	ErrInsufficientResource = errors.New("sortcore: key count exceeds the supported tile grid")

	// ErrLengthMismatch is returned by Run for a key slice of the wrong length.
	ErrLengthMismatch = errors.New("sortcore: key slice length does not match the pipeline")
)

// Pipeline sorts key arrays of one fixed length on a software executor.
//
// The pipeline owns the histogram, spine, tile counters and the second key
// buffer. The caller's slice is the first key buffer; four passes leave the
// sorted keys in it.
//
// A Pipeline is not safe for concurrent use.
type Pipeline struct {
	queue *simt.Queue

	n           int
	tiles       uint32
	reduceTiles uint32

	hist  *simt.Buffer
	spine *simt.Buffer
	bump  *simt.Buffer
	pong  *simt.Buffer

	stats [Passes]PassStats
	hooks *passHooks
}

// NewPipeline allocates the sort state for n keys.
func NewPipeline(exec *simt.Executor, n int) (*Pipeline, error) {
	if n < 0 || n > MaxKeys {
		return nil, fmt.Errorf("%w: %d keys, at most %d", ErrInsufficientResource, n, MaxKeys)
	}
	tiles := NumTiles(n)

	p := &Pipeline{
		queue:       simt.NewQueue(exec),
		n:           n,
		tiles:       uint32(tiles),             //nolint:gosec // n <= MaxKeys
		reduceTiles: uint32(NumReduceTiles(n)), //nolint:gosec // n <= MaxKeys
		hist:        simt.NewBuffer("hist", Passes*Radix),
		spine:       simt.NewBuffer("spine", Passes*tiles*Radix),
		bump:        simt.NewBuffer("bump", Passes),
		pong:        simt.NewBuffer("keys_b", n),
	}

	slogger().Debug("sortcore: pipeline allocated",
		"keys", n,
		"tiles", tiles,
		"reduce_tiles", p.reduceTiles,
		"spine_cells", p.spine.Len(),
	)
	return p, nil
}

// Len returns the number of keys the pipeline sorts.
func (p *Pipeline) Len() int { return p.n }

// Tiles returns the number of pass tiles.
func (p *Pipeline) Tiles() int { return int(p.tiles) }

// Run sorts keys in place. len(keys) must equal Len.
//
// If Run fails the contents of keys are unspecified.
func (p *Pipeline) Run(ctx context.Context, keys []uint32) error {
	if len(keys) != p.n {
		return fmt.Errorf("%w: got %d keys, want %d", ErrLengthMismatch, len(keys), p.n)
	}
	if p.n == 0 {
		return nil
	}

	n := uint32(p.n) //nolint:gosec // n <= MaxKeys
	ping := simt.WrapBuffer("keys_a", keys)

	cmds := []simt.Command{
		simt.Clear(p.hist, p.spine, p.bump),
		simt.Dispatch(&GlobalHist{
			Params: Params{Length: n, ThreadBlocks: p.reduceTiles},
			Keys:   ping,
			Hist:   p.hist,
		}, p.reduceTiles),
		simt.Dispatch(&SpineScan{
			Params: Params{Length: n, ThreadBlocks: p.tiles},
			Hist:   p.hist,
			Spine:  p.spine,
		}, Passes),
	}

	var passes [Passes]*Pass
	for d := range uint32(Passes) {
		in, out := ping, p.pong
		if d%2 == 1 {
			in, out = out, in
		}
		passes[d] = &Pass{
			Params:  Params{Length: n, Shift: d * RadixLog, ThreadBlocks: p.tiles},
			KeysIn:  in,
			KeysOut: out,
			Spine:   p.spine,
			Bump:    p.bump,
			hooks:   p.hooks,
		}
		cmds = append(cmds, simt.Dispatch(passes[d], p.tiles))
	}

	start := time.Now()
	err := p.queue.Submit(ctx, cmds...)
	for d, k := range passes {
		p.stats[d] = k.Stats()
	}
	if err != nil {
		return fmt.Errorf("sortcore: sort %d keys: %w", p.n, err)
	}

	if log := slogger(); log.Enabled(ctx, slog.LevelDebug) {
		for d, st := range p.stats {
			log.Debug("sortcore: pass done",
				"pass", d,
				"lookbacks", st.Lookbacks,
				"spins", st.Spins,
				"fallbacks", st.Fallbacks,
			)
		}
		log.Debug("sortcore: sort done", "keys", p.n, "elapsed", time.Since(start))
	}
	return nil
}

// Stats returns the chained-scan counters of the last Run, one per pass.
func (p *Pipeline) Stats() [Passes]PassStats { return p.stats }

// Histogram returns a copy of the global histogram of the last Run.
func (p *Pipeline) Histogram() []uint32 {
	return append([]uint32(nil), p.hist.Data()...)
}

// Spine returns a copy of the spine of the last Run.
func (p *Pipeline) Spine() []uint32 {
	return append([]uint32(nil), p.spine.Data()...)
}
