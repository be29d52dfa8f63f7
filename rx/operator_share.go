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
	"sync/atomic"
)

// DistinctUntilChanged suppresses a value that equals (via equal) the
// previously emitted value. The first value is always forwarded.
func DistinctUntilChanged[T any](equal func(prev, next T) bool) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
			var mu sync.Mutex
			var prev combineSlot[T]

			sub := source.Subscribe(ctx, NewObserver(
				func(ctx context.Context, value T) {
					mu.Lock()
					skip := prev.has && equal(prev.value, value)
					prev = combineSlot[T]{true, value}
					mu.Unlock()

					if !skip {
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

// Share multicasts source through an internal publish Subject: the source is
// subscribed to lazily, on the first downstream subscriber, and unsubscribed
// from when the last downstream subscriber leaves. Late subscribers do not
// receive values emitted before they joined.
func Share[T any]() func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		var mu sync.Mutex
		var subject Subject[T]
		var sourceSub Subscription

		return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
			mu.Lock()
			connect := subject == nil
			if connect {
				subject = NewPublishSubject[T]()
			}
			s := subject
			mu.Unlock()

			inner := s.Subscribe(ctx, destination)

			// The first subscriber is attached before the source is connected,
			// so it receives whatever the source emits synchronously.
			if connect {
				src := source.Subscribe(ctx, s.AsObserver())

				mu.Lock()
				if subject == s {
					sourceSub = src
				} else {
					src.Unsubscribe()
				}
				mu.Unlock()
			}

			return func() {
				inner.Unsubscribe()

				mu.Lock()
				defer mu.Unlock()

				if subject == s && !s.HasObserver() {
					if sourceSub != nil {
						sourceSub.Unsubscribe()
					}

					subject = nil
					sourceSub = nil
				}
			}
		})
	}
}

// ShareReplayLatest multicasts source like ShareReplay, but requires no seed
// value: a subscriber that joins before source has emitted anything receives
// no replay at all (rather than a zero value), and starts receiving once the
// first value is produced. This is the controlled subject's behavior pipe
// building block (spec: "share with replay-latest + distinct-consecutive").
func ShareReplayLatest[T any]() func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		var mu sync.Mutex
		var subject *lazyReplaySubject[T]
		var sourceSub Subscription

		return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
			mu.Lock()
			if subject == nil {
				subject = newLazyReplaySubject[T]()
				sourceSub = source.Subscribe(ctx, subject)
			}
			s := subject
			mu.Unlock()

			inner := s.Subscribe(ctx, destination)

			return func() {
				inner.Unsubscribe()

				mu.Lock()
				defer mu.Unlock()

				if subject == s && !s.HasObserver() {
					if sourceSub != nil {
						sourceSub.Unsubscribe()
					}

					subject = nil
					sourceSub = nil
				}
			}
		})
	}
}

var _ Subject[int] = (*lazyReplaySubject[int])(nil)

// lazyReplaySubject is a behavior-subject variant with no seed: it only
// replays to a new subscriber once a value has actually been pushed, and
// drops its retained value on error/complete like behaviorSubjectImpl does.
type lazyReplaySubject[T any] struct {
	mu     sync.Mutex
	status Kind
	err    error

	hasValue bool
	value    T

	observers     sync.Map
	observerIndex uint32
}

func newLazyReplaySubject[T any]() *lazyReplaySubject[T] {
	return &lazyReplaySubject[T]{status: KindNext}
}

// NewReplayLatestSubject creates a Subject that holds no value until first
// fed, then replays its latest value to every new subscriber for as long as
// the subject itself lives — unlike ShareReplayLatest's internal replay
// slot, this one is not torn down when the observer count drops to zero.
// This is the controlled subject's behavior-pipe building block: a
// behavior's current value must survive being briefly unobserved.
func NewReplayLatestSubject[T any]() Subject[T] {
	return newLazyReplaySubject[T]()
}

func (s *lazyReplaySubject[T]) Subscribe(ctx context.Context, destination Observer[T]) Subscription {
	subscriber := NewSubscriber(destination)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case KindError:
		subscriber.Error(ctx, s.err)
		return subscriber
	case KindComplete:
		subscriber.Complete(ctx)
		return subscriber
	}

	if s.hasValue {
		subscriber.Next(ctx, s.value)
	}

	index := atomic.AddUint32(&s.observerIndex, 1) - 1
	s.observers.Store(index, subscriber)
	subscriber.Add(func() { s.observers.Delete(index) })

	return subscriber
}

func (s *lazyReplaySubject[T]) unsubscribeAll() {
	s.observers.Range(func(key, _ any) bool {
		s.observers.Delete(key)
		return true
	})
}

func (s *lazyReplaySubject[T]) Next(ctx context.Context, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != KindNext {
		OnDroppedNotification(ctx, NewNotificationNext(value))
		return
	}

	s.hasValue = true
	s.value = value

	s.observers.Range(func(_, observer any) bool {
		observer.(Observer[T]).Next(ctx, value) //nolint:forcetypeassert
		return true
	})
}

func (s *lazyReplaySubject[T]) Error(ctx context.Context, err error) {
	s.mu.Lock()

	if s.status == KindNext {
		s.status = KindError
		s.err = err
		var zero T
		s.value = zero
		s.hasValue = false

		s.observers.Range(func(_, observer any) bool {
			observer.(Observer[T]).Error(ctx, err) //nolint:forcetypeassert
			return true
		})
	} else {
		OnDroppedNotification(ctx, NewNotificationError[T](err))
	}

	s.mu.Unlock()
	s.unsubscribeAll()
}

func (s *lazyReplaySubject[T]) Complete(ctx context.Context) {
	s.mu.Lock()

	if s.status == KindNext {
		s.status = KindComplete
		var zero T
		s.value = zero
		s.hasValue = false

		s.observers.Range(func(_, observer any) bool {
			observer.(Observer[T]).Complete(ctx) //nolint:forcetypeassert
			return true
		})
	} else {
		OnDroppedNotification(ctx, NewNotificationComplete[T]())
	}

	s.mu.Unlock()
	s.unsubscribeAll()
}

func (s *lazyReplaySubject[T]) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status != KindNext
}

func (s *lazyReplaySubject[T]) HasThrown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status == KindError
}

func (s *lazyReplaySubject[T]) IsCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status == KindComplete
}

func (s *lazyReplaySubject[T]) HasObserver() bool {
	has := false
	s.observers.Range(func(_, _ any) bool {
		has = true
		return false
	})

	return has
}

func (s *lazyReplaySubject[T]) CountObservers() int {
	count := 0
	s.observers.Range(func(_, _ any) bool {
		count++
		return true
	})

	return count
}

func (s *lazyReplaySubject[T]) AsObservable() Observable[T] { return s }
func (s *lazyReplaySubject[T]) AsObserver() Observer[T]     { return s }

// ShareReplay multicasts source through an internal BehaviorSubject seeded
// with initial: the source is subscribed to lazily on the first downstream
// subscriber, and every later subscriber immediately receives the last
// emitted value (or initial, if none yet). Like Share, the upstream
// subscription is torn down once the last downstream subscriber leaves, and
// the replay slot is released with it.
func ShareReplay[T any](initial T) func(Observable[T]) Observable[T] {
	return func(source Observable[T]) Observable[T] {
		var mu sync.Mutex
		var subject Subject[T]
		var sourceSub Subscription

		return NewObservable(func(ctx context.Context, destination Observer[T]) Teardown {
			mu.Lock()
			if subject == nil {
				subject = NewBehaviorSubject[T](initial)
				sourceSub = source.Subscribe(ctx, subject.AsObserver())
			}
			s := subject
			mu.Unlock()

			inner := s.Subscribe(ctx, destination)

			return func() {
				inner.Unsubscribe()

				mu.Lock()
				defer mu.Unlock()

				if subject == s && !s.HasObserver() {
					if sourceSub != nil {
						sourceSub.Unsubscribe()
					}

					subject = nil
					sourceSub = nil
				}
			}
		})
	}
}
