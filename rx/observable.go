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

// Package rx is a small reactive-streams core: Observable/Observer/Subject,
// subscription-scoped disposal, and the handful of operators the signal
// store composes (Share, ShareReplay, DistinctUntilChanged, Map, Filter,
// Scan, Merge, CombineLatestWith2, WithLatestFrom, Tap).
//
// It is not a general-purpose Rx library; it carries only what the store
// in ../signal and ../store needs. Cold observables are plain functions;
// hot observables are Subjects.
package rx

import (
	"context"

	"github.com/samber/lo"
)

// Observable is a factory for streams of values. Subscribing attaches an
// Observer that receives zero or more values, then at most one of an error
// or a completion signal.
type Observable[T any] interface {
	Subscribe(ctx context.Context, destination Observer[T]) Subscription
}

var _ Observable[int] = (*observableImpl[int])(nil)

// NewObservable creates an Observable from a subscribe function. The
// function receives the Observer to emit to, and returns a Teardown run on
// unsubscription.
func NewObservable[T any](subscribe func(ctx context.Context, destination Observer[T]) Teardown) Observable[T] {
	return &observableImpl[T]{subscribe: subscribe}
}

type observableImpl[T any] struct {
	subscribe func(ctx context.Context, destination Observer[T]) Teardown
}

func (o *observableImpl[T]) Subscribe(ctx context.Context, destination Observer[T]) Subscription {
	subscriber := NewSubscriber(destination)

	lo.TryCatchWithErrorValue(
		func() error {
			subscriber.Add(o.subscribe(ctx, subscriber))
			return nil
		},
		func(e any) {
			err := newObservableError(recoverValueToError(e))
			subscriber.Error(ctx, err)
			subscriber.Unsubscribe()
		},
	)

	return subscriber
}

// Empty returns an Observable that completes immediately without emitting
// any value.
func Empty[T any]() Observable[T] {
	return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
		destination.Complete(ctx)
		return nil
	})
}

// Never returns an Observable that neither emits nor completes nor errors.
func Never[T any]() Observable[T] {
	return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
		return nil
	})
}

// Of emits each of values in order, then completes, synchronously, on
// subscribe.
func Of[T any](values ...T) Observable[T] {
	return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
		for _, v := range values {
			if destination.IsClosed() {
				return nil
			}

			destination.Next(ctx, v)
		}

		destination.Complete(ctx)

		return nil
	})
}

// Throw returns an Observable that immediately errors with err on subscribe.
func Throw[T any](err error) Observable[T] {
	return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
		destination.Error(ctx, err)
		return nil
	})
}
