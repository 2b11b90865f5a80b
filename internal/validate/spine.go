// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package validate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// SpineHead reports whether the head slot of every digit-place of spine holds
// the exclusive prefix of the matching hist row, tagged INCLUSIVE.
func SpineHead(hist, spine []uint32, tiles int) error {
	if len(spine) != passes*tiles*radix {
		return fmt.Errorf("%w: %d cells, want %d", ErrSpine, len(spine), passes*tiles*radix)
	}
	for d := range passes {
		var prefix uint32
		for v := range radix {
			cell := spine[d*tiles*radix+v]
			if want := prefix&valueMask | flagInclusive; cell != want {
				return fmt.Errorf("%w: place %d head digit %d: got %#x, want %#x", ErrSpine, d, v, cell, want)
			}
			prefix += hist[d*radix+v]
		}
	}
	return nil
}

// Spine reports whether every cell of a completed spine is INCLUSIVE and holds
// the global offset of its tile's keys: for tile t and digit v, the number of
// keys with a smaller digit plus the number of v keys in tiles before t, as
// seen by the pass input of that digit-place.
func Spine(ctx context.Context, keys, spine []uint32, tileSize int) error {
	n := len(keys)
	tiles := (n + tileSize - 1) / tileSize
	if len(spine) != passes*tiles*radix {
		return fmt.Errorf("%w: %d cells, want %d", ErrSpine, len(spine), passes*tiles*radix)
	}
	inputs := PassInputs(keys)

	g, ctx := errgroup.WithContext(ctx)
	for d := range passes {
		g.Go(func() error {
			in := inputs[d]
			shift := uint(d * digitBits)

			var offset [radix]uint32
			var acc uint32
			for _, k := range in {
				offset[k>>shift&(radix-1)]++
			}
			for v := range offset {
				c := offset[v]
				offset[v] = acc
				acc += c
			}

			for t := range tiles {
				if err := ctx.Err(); err != nil {
					return err
				}
				row := spine[(d*tiles+t)*radix:][:radix]
				for v, cell := range row {
					if cell&flagMask != flagInclusive || cell&valueMask != offset[v] {
						return fmt.Errorf("%w: place %d tile %d digit %d: got %#x, want INCLUSIVE|%d",
							ErrSpine, d, t, v, cell, offset[v])
					}
				}
				for _, k := range in[t*tileSize : min((t+1)*tileSize, n)] {
					offset[k>>shift&(radix-1)]++
				}
			}
			return nil
		})
	}
	return g.Wait()
}
