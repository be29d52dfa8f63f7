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
	"sync/atomic"

	"github.com/samber/lo"
)

// Observer is the consumer of an Observable. It receives zero or more Next
// notifications, then at most one of Error or Complete. Once closed it must
// not receive any further notification.
type Observer[T any] interface {
	Next(ctx context.Context, value T)
	Error(ctx context.Context, err error)
	Complete(ctx context.Context)

	IsClosed() bool
	HasThrown() bool
	IsCompleted() bool
}

var _ Observer[int] = (*observerImpl[int])(nil)

// NewObserver creates an Observer from the three standard callbacks.
func NewObserver[T any](onNext func(ctx context.Context, value T), onError func(ctx context.Context, err error), onComplete func(ctx context.Context)) Observer[T] {
	return &observerImpl[T]{
		onNext:     onNext,
		onError:    onError,
		onComplete: onComplete,
	}
}

type observerImpl[T any] struct {
	// 0: active, 1: errored, 2: completed
	status     int32
	onNext     func(context.Context, T)
	onError    func(context.Context, error)
	onComplete func(context.Context)
}

func (o *observerImpl[T]) Next(ctx context.Context, value T) {
	if o.onNext == nil || atomic.LoadInt32(&o.status) != 0 {
		OnDroppedNotification(ctx, NewNotificationNext(value))
		return
	}

	o.tryNext(ctx, value)
}

func (o *observerImpl[T]) Error(ctx context.Context, err error) {
	if o.onError == nil || !atomic.CompareAndSwapInt32(&o.status, 0, 1) {
		OnDroppedNotification(ctx, NewNotificationError[T](err))
		return
	}

	o.tryError(ctx, err)
}

func (o *observerImpl[T]) Complete(ctx context.Context) {
	if o.onComplete == nil || !atomic.CompareAndSwapInt32(&o.status, 0, 2) {
		OnDroppedNotification(ctx, NewNotificationComplete[T]())
		return
	}

	o.tryComplete(ctx)
}

func (o *observerImpl[T]) tryNext(ctx context.Context, value T) {
	lo.TryCatchWithErrorValue(
		func() error {
			o.onNext(ctx, value)
			return nil
		},
		func(e any) {
			err := recoverValueToError(e)
			if o.onError == nil {
				OnUnhandledError(ctx, err)
			} else {
				o.tryError(ctx, err)
			}
		},
	)
}

func (o *observerImpl[T]) tryError(ctx context.Context, err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			o.onError(ctx, err)
			return nil
		},
		func(e any) {
			OnUnhandledError(ctx, recoverValueToError(e))
		},
	)
}

func (o *observerImpl[T]) tryComplete(ctx context.Context) {
	lo.TryCatchWithErrorValue(
		func() error {
			o.onComplete(ctx)
			return nil
		},
		func(e any) {
			OnUnhandledError(ctx, recoverValueToError(e))
		},
	)
}

func (o *observerImpl[T]) IsClosed() bool    { return atomic.LoadInt32(&o.status) != 0 }
func (o *observerImpl[T]) HasThrown() bool   { return atomic.LoadInt32(&o.status) == 1 }
func (o *observerImpl[T]) IsCompleted() bool { return atomic.LoadInt32(&o.status) == 2 }

// OnNext builds a partial Observer that only reacts to Next; errors and
// completion are silently ignored. Useful for tests and fire-and-forget taps.
func OnNext[T any](onNext func(ctx context.Context, value T)) Observer[T] {
	return NewObserver(onNext, func(context.Context, error) {}, func(context.Context) {})
}

// NoopObserver discards every notification it receives.
func NoopObserver[T any]() Observer[T] {
	return NewObserver(
		func(context.Context, T) {},
		func(context.Context, error) {},
		func(context.Context) {},
	)
}
