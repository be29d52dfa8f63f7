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

package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/samber/ro-signals/id"
	"github.com/samber/ro-signals/queue"
	"github.com/samber/ro-signals/rx"
)

// Dispatch injects value into eventID's stream. If the event currently has
// at least one observer, value is delivered through the delayed queue and
// the returned completion resolves true exactly once delivery has
// happened, one cooperative turn later. If the event has no observer at
// the moment of dispatch, value is never scheduled at all — it is not
// buffered — and the returned completion is already resolved false.
func Dispatch[T any](ctx context.Context, s *Store, eventID id.ID[T], value T) *queue.Completion {
	cs := getOrCreateEvent(ctx, s, eventID)

	if !cs.IsObservableSubscribed() {
		return queue.Resolved(false)
	}

	return cs.NextEvent(ctx, value)
}

// AddEventSource registers an additional lazy upstream source on eventID,
// returning a fresh source-id for later RemoveEventSource.
func AddEventSource[T any](ctx context.Context, s *Store, eventID id.ID[T], source rx.Observable[T]) (uuid.UUID, error) {
	if eventID.IsZero() {
		return uuid.UUID{}, ErrInvalidIdentifier
	}

	if source == nil {
		return uuid.UUID{}, ErrInvalidSource
	}

	cs := getOrCreateEvent(ctx, s, eventID)
	sourceID := uuid.New()

	if err := cs.AddSource(ctx, sourceID, source, true, id.None[T]()); err != nil {
		return uuid.UUID{}, err
	}

	return sourceID, nil
}

// ConnectToEvent wires source's observable into target, an event, as a
// fresh non-lazy source, returning its source-id for later removal.
func ConnectToEvent[T any](ctx context.Context, s *Store, source rx.Observable[T], target id.ID[T]) (uuid.UUID, error) {
	if target.IsZero() {
		return uuid.UUID{}, ErrInvalidIdentifier
	}

	if source == nil {
		return uuid.UUID{}, ErrInvalidSource
	}

	cs := getOrCreateEvent(ctx, s, target)
	sourceID := uuid.New()

	if err := cs.AddSource(ctx, sourceID, source, false, id.None[T]()); err != nil {
		return uuid.UUID{}, err
	}

	return sourceID, nil
}

// RemoveEventSource removes sourceID from eventID's controlled subject, or
// — if sourceID instead names a typed-fan-out subscription previously
// returned by AddNTypedEventSource — cancels that shared subscription.
func RemoveEventSource[T any](ctx context.Context, s *Store, eventID id.ID[T], sourceID uuid.UUID) {
	cs := getOrCreateEvent(ctx, s, eventID)
	cs.RemoveSource(ctx, sourceID)

	s.mu.Lock()
	fanout, ok := s.fanouts[sourceID]
	if ok {
		delete(s.fanouts, sourceID)
	}
	s.mu.Unlock()

	if ok {
		fanout.Unsubscribe()
	}
}

// GetEventStream returns eventID's downstream stream. On a child store it
// is the merge of the child's own stream with its parent's (recursively):
// dispatch on the child is visible only to the child; dispatch on the
// parent is visible to both, and ordering is preserved because parent and
// child share one delayed event queue.
func GetEventStream[T any](s *Store, eventID id.ID[T]) rx.Observable[T] {
	own := getOrCreateEvent(context.Background(), s, eventID).Observable()

	if s.parent == nil {
		return own
	}

	return rx.Merge(own, GetEventStream(s.parent, eventID))
}

// TaggedValue is one item on a typed-fan-out upstream: an opaque tag
// identifying which registered route the value belongs to, and the value
// itself (erased to any, since Go cannot express a single slice of
// differently-typed routes without type erasure at this boundary).
type TaggedValue struct {
	Tag   any
	Value any
}

// TypedFanOut is one decoded route of a typed event fan-out, built by
// NewTypedRoute for a specific event identifier and tag.
type TypedFanOut struct {
	tag  any
	push func(ctx context.Context, value any) *queue.Completion
}

// NewTypedRoute builds the route for eventID: values on the shared
// upstream tagged with tag are decoded to T and pushed into eventID's
// controlled subject.
func NewTypedRoute[T any](s *Store, eventID id.ID[T], tag any) TypedFanOut {
	cs := getOrCreateEvent(context.Background(), s, eventID)

	return TypedFanOut{
		tag: tag,
		push: func(ctx context.Context, value any) *queue.Completion {
			v, _ := value.(T)
			return cs.NextEvent(ctx, v)
		},
	}
}

// AddNTypedEventSource decomposes one shared upstream observable of tagged
// values into the given routes, each receiving only the items tagged for
// it, in upstream order. If gate is non-zero, the shared upstream is
// subscribed only while the identified gate signal has at least one
// observer — switching live, per IsSubscribedObservable — regardless of
// whether any individual route currently has observers of its own; with no
// gate, the shared upstream is subscribed eagerly for the lifetime of the
// returned source-id. Returns a fresh source-id for later RemoveEventSource.
func AddNTypedEventSource(ctx context.Context, s *Store, upstream rx.Observable[TaggedValue], gate uuid.UUID, routes ...TypedFanOut) (uuid.UUID, error) {
	if upstream == nil {
		return uuid.UUID{}, ErrInvalidSource
	}

	effective := upstream

	if gate != (uuid.UUID{}) {
		s.mu.Lock()
		m, ok := s.meta[gate]
		s.mu.Unlock()

		if !ok {
			return uuid.UUID{}, ErrInvalidIdentifier
		}

		effective = gateObservable(upstream, m.isSubscribedObservable)
	}

	shared := rx.Pipe1(effective, rx.Share[TaggedValue]())

	sub := shared.Subscribe(ctx, rx.NewObserver(
		func(ctx context.Context, tv TaggedValue) {
			for _, route := range routes {
				if route.tag == tv.Tag {
					route.push(ctx, tv.Value)
				}
			}
		},
		func(context.Context, error) {},
		func(context.Context) {},
	))

	sourceID := uuid.New()

	s.mu.Lock()
	s.fanouts[sourceID] = sub
	s.mu.Unlock()

	return sourceID, nil
}

// gateObservable subscribes upstream only while gate currently holds true,
// unsubscribing it the instant gate turns false and resubscribing fresh if
// it turns true again — the "switch between the upstream and a silent
// stream driven by is-subscribed" mechanism described for gated fan-out.
func gateObservable[T any](upstream rx.Observable[T], gate rx.Observable[bool]) rx.Observable[T] {
	return rx.NewObservable(func(ctx context.Context, destination rx.Observer[T]) rx.Teardown {
		var mu sync.Mutex
		var inner rx.Subscription

		gateSub := gate.Subscribe(ctx, rx.OnNext(func(ctx context.Context, open bool) {
			mu.Lock()
			defer mu.Unlock()

			switch {
			case open && inner == nil:
				inner = upstream.Subscribe(ctx, destination)
			case !open && inner != nil:
				inner.Unsubscribe()
				inner = nil
			}
		}))

		return func() {
			gateSub.Unsubscribe()

			mu.Lock()
			defer mu.Unlock()

			if inner != nil {
				inner.Unsubscribe()
				inner = nil
			}
		}
	})
}
