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

package signal

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/samber/lo"

	"github.com/samber/ro-signals/id"
	"github.com/samber/ro-signals/queue"
	"github.com/samber/ro-signals/rx"
)

// EqualFunc decides whether two consecutive values of a behavior are equal,
// and therefore whether the second should be skipped by the behavior pipe's
// distinctness filter.
type EqualFunc[T any] func(a, b T) bool

func defaultEqual[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}

// resolveInitial evaluates a source's initial-value slot, recovering a
// panicking getter into an error rather than crashing the caller — this is
// the upstream-error edge case: a getter that panics surfaces exactly like
// any other upstream error, through handleSourceError.
func resolveInitial[T any](iv id.InitialValue[T]) (value T, err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			value = iv.Resolve()
			return nil
		},
		func(e any) {
			if asErr, ok := e.(error); ok {
				err = asErr
				return
			}

			err = fmt.Errorf("signal: initial value getter panicked: %v", e)
		},
	)

	return value, err
}

// ControlledSubject is the per-signal multiplexer: it owns a mutable set of
// source records, the current downstream multicast pipe, and the
// source-subscription state machine driving when each lazy source is
// subscribed and unsubscribed.
//
// A behavior's pipe applies value-distinctness and replay-last-value to new
// subscribers; an event's pipe delays by one cooperative turn (through a
// queue.DelayedQueue) and never replays. Both share without requiring more
// than one upstream subscription per source regardless of downstream
// subscriber count.
type ControlledSubject[T any] struct {
	mu sync.Mutex

	isEvent bool
	dq      *queue.DelayedQueue
	equal   EqualFunc[T]

	subject rx.Subject[T]
	pipe    rx.Observable[T]

	sources map[any]*sourceRecord[T]
	order   []any

	observerCount int
	subscribedObs rx.Subject[bool]
	sourceCntObs  rx.Subject[int]
}

// NewBehaviorControlledSubject creates a controlled subject whose pipe
// applies distinctness (via equal, or reflect.DeepEqual if nil) and
// replay-last-value-to-new-subscribers, as described for behaviors.
func NewBehaviorControlledSubject[T any](equal EqualFunc[T]) *ControlledSubject[T] {
	if equal == nil {
		equal = defaultEqual[T]
	}

	c := &ControlledSubject[T]{
		equal:         equal,
		sources:       make(map[any]*sourceRecord[T]),
		subscribedObs: rx.NewBehaviorSubject(false),
		sourceCntObs:  rx.NewBehaviorSubject(0),
	}
	c.bootstrap()

	return c
}

// NewEventControlledSubject creates a controlled subject whose pipe delays
// every emission by one cooperative turn through dq and never replays, as
// described for events.
func NewEventControlledSubject[T any](dq *queue.DelayedQueue) *ControlledSubject[T] {
	c := &ControlledSubject[T]{
		isEvent:       true,
		dq:            dq,
		sources:       make(map[any]*sourceRecord[T]),
		subscribedObs: rx.NewBehaviorSubject(false),
		sourceCntObs:  rx.NewBehaviorSubject(0),
	}
	c.bootstrap()

	return c
}

// bootstrap (re)creates the internal hot subject S and the downstream pipe
// P = target-pipe(S). Must be called with mu held.
//
// A behavior's subject is itself the persistent current-value slot: it must
// hold its last value across a subscribe/unsubscribe cycle with zero
// observers in between, since state is expected to survive being briefly
// unwatched (spec scenario: unsubscribe, resubscribe, see the current value
// immediately, no new dispatch needed). ShareReplayLatest was tried here
// first and rejected: it is built for multiplexing a cold external source,
// and deliberately discards its replay slot the moment the observer count
// drops to zero, which destroys exactly the persistence behaviors need.
// rx.NewReplayLatestSubject has no such teardown — it is the subject, not an
// operator wrapped around one — so it is used directly as c.subject, with
// only distinctness layered on top as a pipe stage.
func (c *ControlledSubject[T]) bootstrap() {
	if c.isEvent {
		c.subject = rx.NewPublishSubject[T]()
		c.pipe = c.subject.AsObservable()
	} else {
		c.subject = rx.NewReplayLatestSubject[T]()
		c.pipe = rx.Pipe1(c.subject.AsObservable(), rx.DistinctUntilChanged(c.equal))
	}
}

// Observable returns the downstream stream. Subscribing increments the
// internal observer count; unsubscribing decrements it. The 0↔non-zero
// transition drives the lazy-source (de)subscription policy.
func (c *ControlledSubject[T]) Observable() rx.Observable[T] {
	return rx.NewObservable(func(ctx context.Context, destination rx.Observer[T]) rx.Teardown {
		c.mu.Lock()
		pipe := c.pipe
		c.observerCount++
		firstObserver := c.observerCount == 1
		c.mu.Unlock()

		// An event's destination is attached before its lazy sources are
		// subscribed: what they emit on subscription is delivered a turn later
		// and must find this observer already in place. A behavior's
		// destination is attached afterwards and gets the resulting value by
		// replay.
		var inner rx.Subscription
		if c.isEvent {
			inner = pipe.Subscribe(ctx, destination)
		}

		if firstObserver {
			c.onSubscribedChanged(ctx, true)
		}

		if !c.isEvent {
			inner = pipe.Subscribe(ctx, destination)
		}

		return func() {
			inner.Unsubscribe()

			c.mu.Lock()
			c.observerCount--
			lastObserver := c.observerCount == 0
			c.mu.Unlock()

			if lastObserver {
				c.onSubscribedChanged(ctx, false)
			}
		}
	})
}

func (c *ControlledSubject[T]) onSubscribedChanged(ctx context.Context, subscribed bool) {
	if subscribed {
		c.mu.Lock()
		toSubscribe := make([]*sourceRecord[T], 0, len(c.order))

		for _, sid := range c.order {
			if rec, ok := c.sources[sid]; ok && rec.lazy && rec.state == stateIdle {
				toSubscribe = append(toSubscribe, rec)
			}
		}
		c.mu.Unlock()

		for _, rec := range toSubscribe {
			c.subscribeSource(ctx, rec)
		}
	} else {
		c.mu.Lock()
		toUnsubscribe := make([]rx.Subscription, 0, len(c.order))

		for _, sid := range c.order {
			if rec, ok := c.sources[sid]; ok && rec.lazy && rec.state == stateSubscribed {
				toUnsubscribe = append(toUnsubscribe, rec.sub)
				rec.sub = nil
				rec.state = stateIdle
			}
		}
		c.mu.Unlock()

		for _, sub := range toUnsubscribe {
			if sub != nil {
				sub.Unsubscribe()
			}
		}
	}

	c.subscribedObs.Next(ctx, subscribed)
}

// AddSource inserts a source record. Fails with ErrDuplicateSource if a
// record with this id already exists. The subscription policy is evaluated
// immediately: a non-lazy source is subscribed right away regardless of
// observer count; a lazy source is subscribed immediately only if the
// downstream already has observers.
func (c *ControlledSubject[T]) AddSource(ctx context.Context, sourceID any, observable rx.Observable[T], lazy bool, initial id.InitialValue[T]) error {
	c.mu.Lock()

	if _, exists := c.sources[sourceID]; exists {
		c.mu.Unlock()
		return ErrDuplicateSource
	}

	rec := &sourceRecord[T]{
		sourceID:   sourceID,
		observable: observable,
		lazy:       lazy,
		initial:    initial,
		state:      stateIdle,
	}
	c.sources[sourceID] = rec
	c.order = append(c.order, sourceID)
	count := len(c.order)

	shouldSubscribeNow := !lazy || c.observerCount > 0
	c.mu.Unlock()

	c.sourceCntObs.Next(ctx, count)

	if shouldSubscribeNow {
		c.subscribeSource(ctx, rec)
	}

	return nil
}

// subscribeSource performs the idle/subscribing→subscribed transition. The
// subscribing flag re-entrancy-guards it: synchronous emissions during
// Subscribe that cause the pipe to re-evaluate is-subscribed (cyclic
// behavior graphs) must not trigger a second concurrent subscribe of the
// same record.
func (c *ControlledSubject[T]) subscribeSource(ctx context.Context, rec *sourceRecord[T]) {
	c.mu.Lock()
	if rec.state == stateRemoved || rec.subscribing || rec.state == stateSubscribed {
		c.mu.Unlock()
		return
	}

	rec.subscribing = true
	rec.state = stateSubscribing
	c.mu.Unlock()

	if !rec.initial.IsNoValue() && !rec.initialConsumed {
		rec.initialConsumed = true

		value, err := resolveInitial(rec.initial)
		if err != nil {
			c.handleSourceError(ctx, rec, err)
			return
		}

		c.push(ctx, value)
	}

	sub := rec.observable.Subscribe(ctx, rx.NewObserver(
		func(ctx context.Context, v T) { c.push(ctx, v) },
		func(ctx context.Context, err error) { c.handleSourceError(ctx, rec, err) },
		func(ctx context.Context) { c.handleSourceComplete(ctx, rec) },
	))

	c.mu.Lock()
	removed := rec.state == stateRemoved
	if !removed {
		rec.sub = sub
		rec.state = stateSubscribed
		rec.subscribing = false
	}
	c.mu.Unlock()

	if removed {
		// The subscribe above synchronously errored/completed, or the record
		// was explicitly removed mid-subscribe: release it, don't resurrect.
		sub.Unsubscribe()
	}
}

func (c *ControlledSubject[T]) handleSourceError(ctx context.Context, rec *sourceRecord[T], err error) {
	c.mu.Lock()
	rec.state = stateRemoved
	delete(c.sources, rec.sourceID)
	c.removeFromOrderLocked(rec.sourceID)
	count := len(c.order)
	c.mu.Unlock()

	c.sourceCntObs.Next(ctx, count)
	c.Error(ctx, err)
}

func (c *ControlledSubject[T]) handleSourceComplete(ctx context.Context, rec *sourceRecord[T]) {
	c.mu.Lock()
	rec.state = stateRemoved
	delete(c.sources, rec.sourceID)
	c.removeFromOrderLocked(rec.sourceID)
	count := len(c.order)
	c.mu.Unlock()

	c.sourceCntObs.Next(ctx, count)
}

func (c *ControlledSubject[T]) removeFromOrderLocked(sourceID any) {
	for i, sid := range c.order {
		if sid == sourceID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// RemoveSource unsubscribes and erases the source record with this id.
// Idempotent: removing an id that isn't attached is a no-op.
func (c *ControlledSubject[T]) RemoveSource(ctx context.Context, sourceID any) {
	c.mu.Lock()
	rec, ok := c.sources[sourceID]
	if !ok {
		c.mu.Unlock()
		return
	}

	delete(c.sources, sourceID)
	c.removeFromOrderLocked(sourceID)
	sub := rec.sub
	rec.sub = nil
	rec.state = stateRemoved
	count := len(c.order)
	c.mu.Unlock()

	c.sourceCntObs.Next(ctx, count)

	if sub != nil {
		sub.Unsubscribe()
	}
}

// RemoveAllSources unsubscribes and erases every attached source record.
func (c *ControlledSubject[T]) RemoveAllSources(ctx context.Context) {
	c.mu.Lock()
	ids := append([]any(nil), c.order...)
	c.mu.Unlock()

	for _, sid := range ids {
		c.RemoveSource(ctx, sid)
	}
}

// Next pushes a value directly into the internal subject, discarding the
// delivery completion: used by source records and by callers that don't need
// to know when an event has actually reached its subscribers.
func (c *ControlledSubject[T]) Next(ctx context.Context, value T) {
	c.push(ctx, value)
}

// NextEvent is Next's completion-tracking counterpart, used by dispatch. For
// a behavior it resolves synchronously, true, once the value has been
// delivered to the (replaying) subject. For an event it schedules the
// delivery on the delayed queue and resolves once that scheduled delivery has
// actually run — one cooperative turn later, in strict FIFO order with every
// other event scheduled on the same queue.
func (c *ControlledSubject[T]) NextEvent(ctx context.Context, value T) *queue.Completion {
	return c.push(ctx, value)
}

// push delivers value to whichever subject is current at the moment it
// actually runs, not the one current when push was called: this keeps
// delivery transparent across an Error/Complete-triggered rebootstrap.
func (c *ControlledSubject[T]) push(ctx context.Context, value T) *queue.Completion {
	deliver := func() {
		c.mu.Lock()
		subject := c.subject
		c.mu.Unlock()

		subject.Next(ctx, value)
	}

	if c.isEvent {
		return c.dq.Schedule(deliver)
	}

	deliver()

	return queue.Resolved(true)
}

// Error pushes err into the current internal subject — delivered to every
// existing subscriber, which then completes — and immediately re-bootstraps
// a fresh subject and pipe so subsequent subscribers are unaffected. Source
// records are left attached: they still feed into whatever subject is
// current, so they keep working against the fresh one.
func (c *ControlledSubject[T]) Error(ctx context.Context, err error) {
	c.mu.Lock()
	old := c.subject
	c.bootstrap()
	c.mu.Unlock()

	old.Error(ctx, err)
}

// Complete is symmetric to Error without an error value.
func (c *ControlledSubject[T]) Complete(ctx context.Context) {
	c.mu.Lock()
	old := c.subject
	c.bootstrap()
	c.mu.Unlock()

	old.Complete(ctx)
}

// GetResetHandle snapshots the currently attached source records and
// returns a handle exposing RemoveSources then ReaddSources, used by
// reset-behaviors to atomically re-seed every behavior.
func (c *ControlledSubject[T]) GetResetHandle() *ResetHandle[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]resetEntry[T], 0, len(c.order))
	for _, sid := range c.order {
		rec := c.sources[sid]
		snapshot = append(snapshot, resetEntry[T]{
			sourceID:   rec.sourceID,
			observable: rec.observable,
			lazy:       rec.lazy,
			initial:    rec.initial,
		})
	}

	return &ResetHandle[T]{subject: c, snapshot: snapshot}
}

// IsObservableSubscribed reports whether the downstream currently has at
// least one observer.
func (c *ControlledSubject[T]) IsObservableSubscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.observerCount > 0
}

// IsSubscribedObservable is the reactive counterpart of
// IsObservableSubscribed: a behavior stream of the current subscribed state.
func (c *ControlledSubject[T]) IsSubscribedObservable() rx.Observable[bool] {
	return c.subscribedObs.AsObservable()
}

// HasSource reports whether a source record with this id is attached.
func (c *ControlledSubject[T]) HasSource(sourceID any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.sources[sourceID]

	return ok
}

// SourceCount returns the number of currently attached source records.
func (c *ControlledSubject[T]) SourceCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.order)
}

// SourceCountObservable is the reactive counterpart of SourceCount: a
// behavior stream of the current source count, used by a child store to
// switch between its own stream and its parent's when its source count
// crosses zero.
func (c *ControlledSubject[T]) SourceCountObservable() rx.Observable[int] {
	return c.sourceCntObs.AsObservable()
}
