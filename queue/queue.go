// Copyright 2025 samber.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://github.com/samber/ro/blob/main/licenses/LICENSE.apache.md
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package queue implements the delayed event queue: a per-store-family FIFO
// that defers every event emission by one cooperative turn, so that a
// synchronous cascade of reducers and effects cannot reorder events.
//
// Every scheduled item runs on a single dedicated drain goroutine, one at a
// time, in strict enqueue order — including items scheduled from within a
// callback of an item that is itself currently draining, which are appended
// to the tail and observed only after everything already queued at the time
// of that callback.
package queue

import "context"

// DelayedQueue is a FIFO of pending deliveries, shared by a store and all of
// its descendant stores.
type DelayedQueue struct {
	in chan func()
}

// New creates a DelayedQueue and starts its drain goroutine.
func New() *DelayedQueue {
	q := &DelayedQueue{in: make(chan func(), 64)}
	go q.drain()

	return q
}

func (q *DelayedQueue) drain() {
	for f := range q.in {
		f()
	}
}

// Schedule places f at the tail of the queue and returns a Completion that
// resolves true once f has run. f always eventually runs, on the queue's
// single drain goroutine, strictly after every item already queued.
func (q *DelayedQueue) Schedule(f func()) *Completion {
	completion := newCompletion()

	q.in <- func() {
		f()
		completion.resolve(true)
	}

	return completion
}

// Close stops the drain goroutine once every item scheduled so far has run.
// A root store calls this from store.Close, at store teardown, to avoid
// leaking the drain goroutine. Scheduling after Close panics, matching a
// send on a closed channel.
func (q *DelayedQueue) Close() {
	close(q.in)
}

// Completion is the future returned by a scheduled item (and, by extension,
// by store dispatch): it resolves to a boolean once the corresponding item
// has been delivered, or immediately if it was never scheduled at all.
type Completion struct {
	done  chan struct{}
	value bool
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Resolved returns a Completion that has already resolved to value. Used by
// dispatch when there is no observer to deliver to: the value is never
// scheduled, and the completion resolves to false immediately.
func Resolved(value bool) *Completion {
	c := &Completion{done: make(chan struct{}), value: value}
	close(c.done)

	return c
}

func (c *Completion) resolve(value bool) {
	c.value = value
	close(c.done)
}

// Done returns a channel closed once the completion has resolved.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Value returns the resolved boolean. Must only be called after Done is
// closed (directly, or via Wait returning).
func (c *Completion) Value() bool { return c.value }

// Wait blocks until the completion resolves or ctx is cancelled, returning
// the resolved value (or false on cancellation).
func (c *Completion) Wait(ctx context.Context) bool {
	select {
	case <-c.done:
		return c.value
	case <-ctx.Done():
		return false
	}
}
