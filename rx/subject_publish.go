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

var _ Subject[int] = (*publishSubjectImpl[int])(nil)

// NewPublishSubject creates a Subject with no replay: subscribers only
// receive values emitted after they subscribe. This is the event pipe's
// building block (spec: "share without replay").
func NewPublishSubject[T any]() Subject[T] {
	return &publishSubjectImpl[T]{status: KindNext}
}

type publishSubjectImpl[T any] struct {
	mu     sync.Mutex
	status Kind
	err    error

	observers     sync.Map // uint32 -> Subscriber[T]
	observerIndex uint32
}

func (s *publishSubjectImpl[T]) Subscribe(ctx context.Context, destination Observer[T]) Subscription {
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

	index := atomic.AddUint32(&s.observerIndex, 1) - 1
	s.observers.Store(index, subscriber)
	subscriber.Add(func() { s.observers.Delete(index) })

	return subscriber
}

func (s *publishSubjectImpl[T]) unsubscribeAll() {
	s.observers.Range(func(key, _ any) bool {
		s.observers.Delete(key)
		return true
	})
}

func (s *publishSubjectImpl[T]) Next(ctx context.Context, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != KindNext {
		OnDroppedNotification(ctx, NewNotificationNext(value))
		return
	}

	s.observers.Range(func(_, observer any) bool {
		observer.(Observer[T]).Next(ctx, value) //nolint:forcetypeassert
		return true
	})
}

func (s *publishSubjectImpl[T]) Error(ctx context.Context, err error) {
	s.mu.Lock()

	if s.status == KindNext {
		s.status = KindError
		s.err = err

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

func (s *publishSubjectImpl[T]) Complete(ctx context.Context) {
	s.mu.Lock()

	if s.status == KindNext {
		s.status = KindComplete

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

func (s *publishSubjectImpl[T]) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status != KindNext
}

func (s *publishSubjectImpl[T]) HasThrown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status == KindError
}

func (s *publishSubjectImpl[T]) IsCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status == KindComplete
}

func (s *publishSubjectImpl[T]) HasObserver() bool {
	has := false
	s.observers.Range(func(_, _ any) bool {
		has = true
		return false
	})

	return has
}

func (s *publishSubjectImpl[T]) CountObservers() int {
	count := 0
	s.observers.Range(func(_, _ any) bool {
		count++
		return true
	})

	return count
}

func (s *publishSubjectImpl[T]) AsObservable() Observable[T] { return s }
func (s *publishSubjectImpl[T]) AsObserver() Observer[T]     { return s }
