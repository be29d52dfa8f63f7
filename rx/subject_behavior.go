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

	"github.com/samber/lo"
)

var _ Subject[int] = (*behaviorSubjectImpl[int])(nil)

// NewBehaviorSubject creates a Subject that replays its current value to
// each new subscriber. After error or completion, new subscriptions
// immediately receive that error/completion instead of the last value. This
// is the behavior pipe's "replay-last-to-new-subscribers" building block.
func NewBehaviorSubject[T any](initial T) Subject[T] {
	return &behaviorSubjectImpl[T]{
		status: KindNext,
		last:   lo.T2(context.Background(), initial),
	}
}

type behaviorSubjectImpl[T any] struct {
	mu     sync.Mutex
	status Kind

	observers     sync.Map
	observerIndex uint32

	last lo.Tuple2[context.Context, T]
	err  error
}

func (s *behaviorSubjectImpl[T]) Subscribe(ctx context.Context, destination Observer[T]) Subscription {
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

	subscriber.Next(s.last.A, s.last.B)

	index := atomic.AddUint32(&s.observerIndex, 1) - 1
	s.observers.Store(index, subscriber)
	subscriber.Add(func() { s.observers.Delete(index) })

	return subscriber
}

func (s *behaviorSubjectImpl[T]) unsubscribeAll() {
	s.observers.Range(func(key, _ any) bool {
		s.observers.Delete(key)
		return true
	})
}

func (s *behaviorSubjectImpl[T]) Next(ctx context.Context, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != KindNext {
		OnDroppedNotification(ctx, NewNotificationNext(value))
		return
	}

	// Drop the reference to the previous value before broadcasting so that,
	// if the subject is discarded right after, nothing but `value` is kept
	// alive through the replay slot.
	s.last = lo.T2(ctx, value)

	s.observers.Range(func(_, observer any) bool {
		observer.(Observer[T]).Next(ctx, value) //nolint:forcetypeassert
		return true
	})
}

func (s *behaviorSubjectImpl[T]) Error(ctx context.Context, err error) {
	s.mu.Lock()

	if s.status == KindNext {
		s.status = KindError
		s.err = err
		var zero T
		s.last = lo.T2(ctx, zero) // release any retained value

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

func (s *behaviorSubjectImpl[T]) Complete(ctx context.Context) {
	s.mu.Lock()

	if s.status == KindNext {
		s.status = KindComplete
		var zero T
		s.last = lo.T2(ctx, zero) // release any retained value

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

func (s *behaviorSubjectImpl[T]) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status != KindNext
}

func (s *behaviorSubjectImpl[T]) HasThrown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status == KindError
}

func (s *behaviorSubjectImpl[T]) IsCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status == KindComplete
}

func (s *behaviorSubjectImpl[T]) HasObserver() bool {
	has := false
	s.observers.Range(func(_, _ any) bool {
		has = true
		return false
	})

	return has
}

func (s *behaviorSubjectImpl[T]) CountObservers() int {
	count := 0
	s.observers.Range(func(_, _ any) bool {
		count++
		return true
	})

	return count
}

func (s *behaviorSubjectImpl[T]) AsObservable() Observable[T] { return s }
func (s *behaviorSubjectImpl[T]) AsObserver() Observer[T]     { return s }
