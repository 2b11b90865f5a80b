// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package onesweep_test

import (
	"context"
	"fmt"

	"github.com/gogpu/onesweep"
)

func ExampleSort() {
	keys := []uint32{3, 1, 4, 1, 5, 9, 2, 6}
	if err := onesweep.Sort(context.Background(), keys, onesweep.WithCPUOnly()); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(keys)
	// Output: [1 1 2 3 4 5 6 9]
}
