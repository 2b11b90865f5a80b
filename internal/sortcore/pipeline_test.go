// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sortcore

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/gogpu/onesweep/internal/simt"
	"github.com/gogpu/onesweep/internal/validate"
)

func newExecutor(tb testing.TB, cfg simt.Config) *simt.Executor {
	tb.Helper()
	e, err := simt.NewExecutor(cfg)
	if err != nil {
		tb.Fatalf("NewExecutor() error = %v", err)
	}
	tb.Cleanup(e.Close)
	return e
}

func defaultExecutor(tb testing.TB) *simt.Executor {
	return newExecutor(tb, simt.Config{SubgroupSize: 32, Features: simt.Features{Subgroups: true}})
}

func randomKeys(n int, seed uint64) []uint32 {
	rng := rand.New(rand.NewPCG(seed, 0xC0FFEE))
	keys := make([]uint32, n)
	for i := range keys {
		keys[i] = rng.Uint32()
	}
	return keys
}

// runPipeline sorts keys in place and checks the result against slices.Sort.
func runPipeline(t *testing.T, exec *simt.Executor, keys []uint32) *Pipeline {
	t.Helper()
	want := slices.Clone(keys)
	slices.Sort(want)

	p, err := NewPipeline(exec, len(keys))
	if err != nil {
		t.Fatalf("NewPipeline(%d) error = %v", len(keys), err)
	}
	if err := p.Run(context.Background(), keys); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !slices.Equal(keys, want) {
		for i := range keys {
			if keys[i] != want[i] {
				t.Fatalf("n=%d: keys[%d] = %#x, want %#x", len(keys), i, keys[i], want[i])
			}
		}
	}
	return p
}

func TestPipelineScenarios(t *testing.T) {
	exec := defaultExecutor(t)

	t.Run("empty", func(t *testing.T) {
		p := runPipeline(t, exec, []uint32{})
		if p.Tiles() != 0 {
			t.Errorf("Tiles() = %d, want 0", p.Tiles())
		}
		if st := p.Stats(); st != [Passes]PassStats{} {
			t.Errorf("empty sort dispatched passes: %+v", st)
		}
	})

	t.Run("single", func(t *testing.T) {
		keys := []uint32{0xDEADBEEF}
		runPipeline(t, exec, keys)
		if keys[0] != 0xDEADBEEF {
			t.Errorf("keys = %#x", keys)
		}
	})

	t.Run("four", func(t *testing.T) {
		keys := []uint32{3, 1, 4, 1}
		runPipeline(t, exec, keys)
		if want := []uint32{1, 1, 3, 4}; !slices.Equal(keys, want) {
			t.Errorf("keys = %v, want %v", keys, want)
		}
	})

	t.Run("xor permutation", func(t *testing.T) {
		keys := make([]uint32, 1<<16)
		for i := range keys {
			keys[i] = uint32(i) ^ 0xBEEF //nolint:gosec // i < 1<<16
		}
		runPipeline(t, exec, keys)
		for i, k := range keys {
			if k != uint32(i) { //nolint:gosec // i < 1<<16
				t.Fatalf("keys[%d] = %#x, want %#x", i, k, i)
			}
		}
	})

	t.Run("all equal", func(t *testing.T) {
		const n = 1 << 20
		keys := make([]uint32, n)
		for i := range keys {
			keys[i] = 42
		}
		p := runPipeline(t, exec, keys)

		hist := p.Histogram()
		for d := range uint32(Passes) {
			for v := range uint32(Radix) {
				want := uint32(0)
				if v == digit(42, d*RadixLog) {
					want = n
				}
				if got := hist[d*Radix+v]; got != want {
					t.Fatalf("hist[%d][%d] = %d, want %d", d, v, got, want)
				}
			}
		}

		spine := p.Spine()
		tiles := uint32(p.Tiles()) //nolint:gosec // small
		for tile := range tiles {
			cell := spine[spineIndex(0, tiles, tile, 42)]
			if CellStatus(cell) != Inclusive || CellValue(cell) != tile*TileSize {
				t.Fatalf("spine[0][%d][42] = %v|%d, want INCLUSIVE|%d",
					tile, CellStatus(cell), CellValue(cell), tile*TileSize)
			}
		}
	})

	t.Run("random 2^25", func(t *testing.T) {
		if testing.Short() {
			t.Skip("skipping 2^25 key sort in short mode")
		}
		keys := randomKeys(1<<25, 6)
		in := slices.Clone(keys)
		runPipeline(t, exec, keys)
		if err := validate.SortedPermutation(context.Background(), in, keys); err != nil {
			t.Fatal(err)
		}
	})
}

func TestPipelineInvariants(t *testing.T) {
	exec := defaultExecutor(t)
	ctx := context.Background()

	for _, n := range []int{TileSize - 1, TileSize, TileSize + 1, 10*TileSize + 17} {
		keys := randomKeys(n, uint64(n)) //nolint:gosec // n > 0
		in := slices.Clone(keys)
		p := runPipeline(t, exec, keys)

		if err := validate.Histogram(in, p.Histogram()); err != nil {
			t.Errorf("n=%d: %v", n, err)
		}
		if err := validate.SpineHead(p.Histogram(), p.Spine(), p.Tiles()); err != nil {
			t.Errorf("n=%d: %v", n, err)
		}
		if err := validate.Spine(ctx, in, p.Spine(), TileSize); err != nil {
			t.Errorf("n=%d: %v", n, err)
		}
	}
}

func TestPipelineRandomSizes(t *testing.T) {
	exec := newExecutor(t, simt.Config{Workers: 8, SubgroupSize: 16, Features: simt.Features{Subgroups: true}})
	rng := rand.New(rand.NewPCG(2026, 10))

	limit := 1 << 21
	rounds := 12
	if testing.Short() {
		limit = 1 << 17
		rounds = 6
	}
	for range rounds {
		n := rng.IntN(limit)
		keys := randomKeys(n, rng.Uint64())
		// Narrow key ranges exercise long equal-digit runs.
		if rng.IntN(2) == 0 {
			for i := range keys {
				keys[i] &= 0x0F0F
			}
		}
		runPipeline(t, exec, keys)
	}
}

func TestPipelineSubgroupConfigurations(t *testing.T) {
	keys := randomKeys(5*TileSize+123, 77)
	for i := 0; i < len(keys); i += 3 {
		keys[i] &= 0xFF00FF00
	}

	for _, size := range []int{4, 8, 16, 32} {
		for _, subgroups := range []bool{true, false} {
			exec := newExecutor(t, simt.Config{
				Workers:      4,
				SubgroupSize: size,
				Features:     simt.Features{Subgroups: subgroups},
			})
			got := slices.Clone(keys)
			p := runPipeline(t, exec, got)
			if err := validate.Spine(context.Background(), keys, p.Spine(), TileSize); err != nil {
				t.Errorf("size=%d subgroups=%v: %v", size, subgroups, err)
			}
		}
	}
}

// TestSinglePassIsStable runs one digit pass and compares it with a stable
// counting sort by that digit.
func TestSinglePassIsStable(t *testing.T) {
	for _, subgroups := range []bool{true, false} {
		exec := newExecutor(t, simt.Config{Workers: 4, SubgroupSize: 8, Features: simt.Features{Subgroups: subgroups}})
		keys := randomKeys(3*TileSize+5, 9)
		n := uint32(len(keys)) //nolint:gosec // small
		tiles := uint32(NumTiles(len(keys))) //nolint:gosec // small

		in := simt.WrapBuffer("keys_a", slices.Clone(keys))
		out := simt.NewBuffer("keys_b", len(keys))
		hist := simt.NewBuffer("hist", Passes*Radix)
		spine := simt.NewBuffer("spine", Passes*int(tiles)*Radix)
		bump := simt.NewBuffer("bump", Passes)

		err := simt.NewQueue(exec).Submit(context.Background(),
			simt.Dispatch(&GlobalHist{Params: Params{Length: n}, Keys: in, Hist: hist}, uint32(NumReduceTiles(len(keys)))), //nolint:gosec // small
			simt.Dispatch(&SpineScan{Params: Params{Length: n, ThreadBlocks: tiles}, Hist: hist, Spine: spine}, Passes),
			simt.Dispatch(&Pass{
				Params:  Params{Length: n, Shift: 0, ThreadBlocks: tiles},
				KeysIn:  in,
				KeysOut: out,
				Spine:   spine,
				Bump:    bump,
			}, tiles),
		)
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		want := validate.PassInputs(keys)[1]
		if !slices.Equal(out.Data(), want) {
			t.Errorf("subgroups=%v: pass 0 output is not the stable sort by digit 0", subgroups)
		}
	}
}

func TestPipelineForcedFallback(t *testing.T) {
	exec := newExecutor(t, simt.Config{Workers: 4, SubgroupSize: 32, Features: simt.Features{Subgroups: true}})
	keys := randomKeys(6*TileSize, 5)
	in := slices.Clone(keys)
	want := slices.Clone(keys)
	slices.Sort(want)

	p, err := NewPipeline(exec, len(keys))
	if err != nil {
		t.Fatal(err)
	}

	// Tile 0 of pass 0 holds back its post until tile 1 has finished, so
	// tile 1 has to recount tile 0 from the keys.
	released := make(chan struct{})
	p.hooks = &passHooks{
		beforePost: func(pass, partid uint32) {
			if pass != 0 || partid != 0 {
				return
			}
			select {
			case <-released:
			case <-time.After(10 * time.Second):
			}
		},
		afterTile: func(pass, partid uint32) {
			if pass == 0 && partid == 1 {
				close(released)
			}
		},
	}

	if err := p.Run(context.Background(), keys); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !slices.Equal(keys, want) {
		t.Fatal("keys are not sorted")
	}
	if st := p.Stats()[0]; st.Fallbacks == 0 || st.Spins == 0 {
		t.Errorf("pass 0 stats = %+v, want at least one fallback", st)
	}
	if err := validate.Spine(context.Background(), in, p.Spine(), TileSize); err != nil {
		t.Error(err)
	}
}

func TestPipelineErrors(t *testing.T) {
	exec := defaultExecutor(t)

	if _, err := NewPipeline(exec, MaxKeys+1); !errors.Is(err, ErrInsufficientResource) {
		t.Errorf("NewPipeline(MaxKeys+1) error = %v, want ErrInsufficientResource", err)
	}
	if _, err := NewPipeline(exec, -1); !errors.Is(err, ErrInsufficientResource) {
		t.Errorf("NewPipeline(-1) error = %v, want ErrInsufficientResource", err)
	}

	p, err := NewPipeline(exec, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(context.Background(), make([]uint32, 9)); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Run(short slice) error = %v, want ErrLengthMismatch", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Run(ctx, make([]uint32, 10)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run(canceled) error = %v, want context.Canceled", err)
	}
}

func TestPipelineReuse(t *testing.T) {
	exec := defaultExecutor(t)
	p, err := NewPipeline(exec, 2*TileSize+9)
	if err != nil {
		t.Fatal(err)
	}
	for seed := range uint64(3) {
		keys := randomKeys(p.Len(), seed)
		want := slices.Clone(keys)
		slices.Sort(want)
		if err := p.Run(context.Background(), keys); err != nil {
			t.Fatalf("run %d: %v", seed, err)
		}
		if !slices.Equal(keys, want) {
			t.Fatalf("run %d: keys are not sorted", seed)
		}
	}
}
