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

// Subscriber is an Observer with Subscription capabilities. Every Observer
// passed to Subscribe is wrapped in one so operators can tear it down.
type Subscriber[T any] interface {
	Subscription
	Observer[T]
}

var _ Subscriber[int] = (*subscriberImpl[int])(nil)

// NewSubscriber wraps destination in a Subscriber. If destination is already
// a Subscriber it is returned unchanged.
func NewSubscriber[T any](destination Observer[T]) Subscriber[T] {
	if subscriber, ok := destination.(Subscriber[T]); ok {
		return subscriber
	}

	subscriber := &subscriberImpl[T]{
		Subscription: NewSubscription(nil),
		destination:  destination,
	}

	if subscription, ok := destination.(Subscription); ok {
		subscription.Add(subscriber.Unsubscribe)
	}

	return subscriber
}

type subscriberImpl[T any] struct {
	Subscription
	destination Observer[T]

	mu     sync.Mutex
	status int32 // 0: active, 1: errored, 2: completed
}

func (s *subscriberImpl[T]) Next(ctx context.Context, v T) {
	if s.destination == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if atomic.LoadInt32(&s.status) == 0 {
		s.destination.Next(ctx, v)
	} else {
		OnDroppedNotification(ctx, NewNotificationNext(v))
	}
}

func (s *subscriberImpl[T]) Error(ctx context.Context, err error) {
	s.mu.Lock()

	if atomic.CompareAndSwapInt32(&s.status, 0, 1) {
		if s.destination != nil {
			s.destination.Error(ctx, err)
		}
	} else {
		OnDroppedNotification(ctx, NewNotificationError[T](err))
	}

	s.mu.Unlock()
	s.unsubscribe()
}

func (s *subscriberImpl[T]) Complete(ctx context.Context) {
	s.mu.Lock()

	if atomic.CompareAndSwapInt32(&s.status, 0, 2) {
		if s.destination != nil {
			s.destination.Complete(ctx)
		}
	} else {
		OnDroppedNotification(ctx, NewNotificationComplete[T]())
	}

	s.mu.Unlock()
	s.unsubscribe()
}

func (s *subscriberImpl[T]) IsClosed() bool    { return atomic.LoadInt32(&s.status) != 0 }
func (s *subscriberImpl[T]) HasThrown() bool   { return atomic.LoadInt32(&s.status) == 1 }
func (s *subscriberImpl[T]) IsCompleted() bool { return atomic.LoadInt32(&s.status) == 2 }

func (s *subscriberImpl[T]) Unsubscribe() {
	if atomic.CompareAndSwapInt32(&s.status, 0, 2) {
		s.unsubscribe()
	}
}

func (s *subscriberImpl[T]) unsubscribe() {
	s.Subscription.Unsubscribe()
}
