// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package simt

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Command is one unit of work recorded into a submission.
type Command interface {
	fmt.Stringer
	execute(ctx context.Context, e *Executor) error
}

type clearCmd struct {
	bufs []*Buffer
}

// Clear records a zero-fill of the given buffers.
func Clear(bufs ...*Buffer) Command { return clearCmd{bufs: bufs} }

func (c clearCmd) execute(context.Context, *Executor) error {
	for _, b := range c.bufs {
		b.Clear()
	}
	return nil
}

func (c clearCmd) String() string {
	labels := make([]string, len(c.bufs))
	for i, b := range c.bufs {
		labels[i] = b.Label()
	}
	return "clear(" + strings.Join(labels, ", ") + ")"
}

type dispatchCmd struct {
	kernel Kernel
	groups uint32
}

// Dispatch records a dispatch of groups workgroups of k.
func Dispatch(k Kernel, groups uint32) Command { return dispatchCmd{kernel: k, groups: groups} }

func (c dispatchCmd) execute(ctx context.Context, e *Executor) error {
	return e.Dispatch(ctx, c.kernel, c.groups)
}

func (c dispatchCmd) String() string {
	return fmt.Sprintf("dispatch(%s, %d)", c.kernel.Name(), c.groups)
}

// Queue is an ordered submission queue on an executor.
type Queue struct {
	mu   sync.Mutex
	exec *Executor
}

// NewQueue returns a queue that submits to e.
func NewQueue(e *Executor) *Queue {
	return &Queue{exec: e}
}

// Submit executes cmds in order. Every command has completed, and its writes
// are visible, before the next command starts. Submissions from different
// goroutines are serialized.
//
// Cancellation is observed between commands. On error the remaining commands
// are skipped.
func (q *Queue) Submit(ctx context.Context, cmds ...Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, c := range cmds {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("simt: submission canceled before command %d (%s): %w", i, c, err)
		}
		if err := c.execute(ctx, q.exec); err != nil {
			return fmt.Errorf("simt: command %d (%s): %w", i, c, err)
		}
	}
	return nil
}
