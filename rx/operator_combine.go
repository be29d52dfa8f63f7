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

package rx

import (
	"context"
	"sync"
)

// Merge subscribes to every given Observable concurrently (as far as
// synchronous emission allows) and forwards every value to a single
// downstream. It completes once every source has completed and errors as
// soon as any one source errors.
func Merge[T any](sources ...Observable[T]) Observable[T] {
	return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
		sub := NewSubscription(nil)

		var mu sync.Mutex
		remaining := len(sources)

		if remaining == 0 {
			destination.Complete(ctx)
			return sub.Unsubscribe
		}

		for _, source := range sources {
			inner := source.Subscribe(ctx, NewObserver(
				destination.Next,
				func(ctx context.Context, err error) { destination.Error(ctx, err) },
				func(ctx context.Context) {
					mu.Lock()
					remaining--
					done := remaining == 0
					mu.Unlock()

					if done {
						destination.Complete(ctx)
					}
				},
			))
			sub.AddUnsubscribable(inner)
		}

		return sub.Unsubscribe
	})
}

// MergeWith merges source with the given additional Observables.
func MergeWith[T any](others ...Observable[T]) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return Merge(append([]Observable[T]{source}, others...)...)
	}
}

type combineSlot[T any] struct {
	has   bool
	value T
}

// CombineLatestWith2 combines source with two other Observables, emitting a
// 3-tuple every time any one of the three emits, once all three have emitted
// at least once.
func CombineLatestWith2[A, B, C any](
	other1 Observable[B],
	other2 Observable[C],
) func(Observable[A]) Observable[Tuple3[A, B, C]] {
	return func(source Observable[A]) Observable[Tuple3[A, B, C]] {
		return NewObservable(func(ctx context.Context, destination Observer[Tuple3[A, B, C]]) Teardown {
			sub := NewSubscription(nil)

			var mu sync.Mutex
			var a combineSlot[A]
			var b combineSlot[B]
			var c combineSlot[C]
			completed := [3]bool{}

			emit := func(ctx context.Context) {
				if a.has && b.has && c.has {
					destination.Next(ctx, Tuple3[A, B, C]{A: a.value, B: b.value, C: c.value})
				}
			}

			allDone := func() bool { return completed[0] && completed[1] && completed[2] }

			sub.AddUnsubscribable(source.Subscribe(ctx, NewObserver(
				func(ctx context.Context, v A) {
					mu.Lock()
					a = combineSlot[A]{true, v}
					emit(ctx)
					mu.Unlock()
				},
				func(ctx context.Context, err error) { destination.Error(ctx, err) },
				func(ctx context.Context) {
					mu.Lock()
					completed[0] = true
					done := allDone()
					mu.Unlock()
					if done {
						destination.Complete(ctx)
					}
				},
			)))

			sub.AddUnsubscribable(other1.Subscribe(ctx, NewObserver(
				func(ctx context.Context, v B) {
					mu.Lock()
					b = combineSlot[B]{true, v}
					emit(ctx)
					mu.Unlock()
				},
				func(ctx context.Context, err error) { destination.Error(ctx, err) },
				func(ctx context.Context) {
					mu.Lock()
					completed[1] = true
					done := allDone()
					mu.Unlock()
					if done {
						destination.Complete(ctx)
					}
				},
			)))

			sub.AddUnsubscribable(other2.Subscribe(ctx, NewObserver(
				func(ctx context.Context, v C) {
					mu.Lock()
					c = combineSlot[C]{true, v}
					emit(ctx)
					mu.Unlock()
				},
				func(ctx context.Context, err error) { destination.Error(ctx, err) },
				func(ctx context.Context) {
					mu.Lock()
					completed[2] = true
					done := allDone()
					mu.Unlock()
					if done {
						destination.Complete(ctx)
					}
				},
			)))

			return sub.Unsubscribe
		})
	}
}

// Tuple3 is a 3-ary product used by CombineLatestWith2.
type Tuple3[A, B, C any] struct {
	A A
	B B
	C C
}

// Tuple2 is a 2-ary product used by WithLatestFrom.
type Tuple2[A, B any] struct {
	A A
	B B
}

// WithLatestFrom emits a pair (sourceValue, latestOtherValue) every time
// source emits, provided other has emitted at least once. It never emits on
// other's behalf: other only supplies the "latest held" half of the pair,
// mirroring the store reducer's "event zipped with latest state" shape.
func WithLatestFrom[A, B any](other Observable[B]) func(Observable[A]) Observable[Tuple2[A, B]] {
	return func(source Observable[A]) Observable[Tuple2[A, B]] {
		return NewObservable(func(ctx context.Context, destination Observer[Tuple2[A, B]]) Teardown {
			sub := NewSubscription(nil)

			var mu sync.Mutex
			var latest combineSlot[B]

			sub.AddUnsubscribable(other.Subscribe(ctx, NewObserver(
				func(ctx context.Context, v B) {
					mu.Lock()
					latest = combineSlot[B]{true, v}
					mu.Unlock()
				},
				func(ctx context.Context, err error) { destination.Error(ctx, err) },
				func(context.Context) {},
			)))

			sub.AddUnsubscribable(source.Subscribe(ctx, NewObserver(
				func(ctx context.Context, v A) {
					mu.Lock()
					l := latest
					mu.Unlock()

					if l.has {
						destination.Next(ctx, Tuple2[A, B]{A: v, B: l.value})
					}
				},
				func(ctx context.Context, err error) { destination.Error(ctx, err) },
				destination.Complete,
			)))

			return sub.Unsubscribe
		})
	}
}
