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

import "context"

// Map projects each emitted value through project.
func Map[T, R any](project func(item T) R) func(Observable[T]) Observable[R] {
	return func(source Observable[T]) Observable[R] {
		return NewObservable(func(ctx context.Context, destination Observer[R]) Teardown {
			sub := source.Subscribe(ctx, NewObserver(
				func(ctx context.Context, value T) { destination.Next(ctx, project(value)) },
				destination.Error,
				destination.Complete,
			))

			return sub.Unsubscribe
		})
	}
}

// Filter only forwards values for which predicate returns true.
func Filter[T any](predicate func(item T) bool) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
			sub := source.Subscribe(ctx, NewObserver(
				func(ctx context.Context, value T) {
					if predicate(value) {
						destination.Next(ctx, value)
					}
				},
				destination.Error,
				destination.Complete,
			))

			return sub.Unsubscribe
		})
	}
}

// Scan folds every emitted value into an accumulator, starting at seed, and
// emits the running accumulator after each input value.
func Scan[T, R any](reduce func(accumulator R, item T) R, seed R) func(Observable[T]) Observable[R] {
	return func(source Observable[T]) Observable[R] {
		return NewObservable(func(ctx context.Context, destination Observer[R]) Teardown {
			acc := seed

			sub := source.Subscribe(ctx, NewObserver(
				func(ctx context.Context, value T) {
					acc = reduce(acc, value)
					destination.Next(ctx, acc)
				},
				destination.Error,
				destination.Complete,
			))

			return sub.Unsubscribe
		})
	}
}

// Tap calls the given callbacks as a side effect, without altering the
// stream. Any of the callbacks may be nil.
func Tap[T any](onNext func(value T), onError func(err error), onComplete func()) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
			sub := source.Subscribe(ctx, NewObserver(
				func(ctx context.Context, value T) {
					if onNext != nil {
						onNext(value)
					}

					destination.Next(ctx, value)
				},
				func(ctx context.Context, err error) {
					if onError != nil {
						onError(err)
					}

					destination.Error(ctx, err)
				},
				func(ctx context.Context) {
					if onComplete != nil {
						onComplete()
					}

					destination.Complete(ctx)
				},
			))

			return sub.Unsubscribe
		})
	}
}
