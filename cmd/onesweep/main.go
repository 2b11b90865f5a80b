// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command onesweep sorts random keys with the OneSweep radix sort and reports
// the throughput and the chained-scan counters of each pass.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/gogpu/onesweep"
)

func main() {
	var (
		n         = flag.Int("n", 1<<20, "number of keys")
		seed      = flag.Uint64("seed", 1, "random seed")
		workers   = flag.Int("workers", 0, "software executor workers (0 = GOMAXPROCS)")
		subgroup  = flag.Int("subgroup", 0, "emulated subgroup size: 4, 8, 16 or 32 (0 = host default)")
		shared    = flag.Bool("shared", false, "disable subgroup primitives in the software executor")
		cpu       = flag.Bool("cpu", false, "skip the GPU accelerator")
		check     = flag.Bool("validate", true, "verify the output is a sorted permutation")
		runs      = flag.Int("runs", 3, "number of timed sorts")
		verbosity = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbosity {
		onesweep.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	opts := []onesweep.Option{
		onesweep.WithWorkers(*workers),
		onesweep.WithSubgroupSize(*subgroup),
	}
	if *shared {
		opts = append(opts, onesweep.WithoutSubgroups())
	}
	if *cpu {
		opts = append(opts, onesweep.WithCPUOnly())
	}
	if *check {
		opts = append(opts, onesweep.WithValidation())
	}

	s, err := onesweep.NewSorter(opts...)
	if err != nil {
		log.Fatalf("Failed to create sorter: %v", err)
	}
	defer s.Close()

	in := randomKeys(*n, *seed)
	keys := make([]uint32, len(in))
	ctx := context.Background()

	for run := range *runs {
		copy(keys, in)
		start := time.Now()
		if err := s.Sort(ctx, keys); err != nil {
			log.Fatalf("Sort failed: %v", err)
		}
		elapsed := time.Since(start)

		executor := "cpu"
		if s.Accelerated() {
			executor = "gpu"
		}
		log.Printf("run %d: %d keys in %v (%.1f Mkeys/s, %s)\n",
			run, len(keys), elapsed, float64(len(keys))/elapsed.Seconds()/1e6, executor)
	}

	if !s.Accelerated() {
		for d, st := range s.Stats() {
			log.Printf("pass %d: lookbacks=%d spins=%d fallbacks=%d\n", d, st.Lookbacks, st.Spins, st.Fallbacks)
		}
	}
}

func randomKeys(n int, seed uint64) []uint32 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	keys := make([]uint32, n)
	for i := range keys {
		keys[i] = rng.Uint32()
	}
	return keys
}
