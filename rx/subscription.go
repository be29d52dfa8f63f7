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
	"errors"
	"sync"

	"github.com/samber/lo"
)

// Teardown cleans up the resources held by a subscription. Called at most
// once, when the Subscription is unsubscribed.
type Teardown func()

// Unsubscribable is anything that can be unsubscribed from.
type Unsubscribable interface {
	Unsubscribe()
}

// Subscription represents an ongoing subscription to an Observable and
// provides a way to cancel it.
type Subscription interface {
	Unsubscribable

	Add(teardown Teardown)
	AddUnsubscribable(unsubscribable Unsubscribable)
	IsClosed() bool
}

var _ Subscription = (*subscriptionImpl)(nil)

// NewSubscription creates a Subscription. If teardown is non-nil it becomes
// the first registered finalizer.
func NewSubscription(teardown Teardown) Subscription {
	finalizers := make([]func(), 0, 2)
	if teardown != nil {
		finalizers = append(finalizers, teardown)
	}

	return &subscriptionImpl{finalizers: finalizers}
}

type subscriptionImpl struct {
	mu         sync.Mutex
	done       bool
	finalizers []func()
}

func (s *subscriptionImpl) Add(teardown Teardown) {
	if teardown == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		teardown()
		return
	}

	s.finalizers = append(s.finalizers, teardown)
}

func (s *subscriptionImpl) AddUnsubscribable(unsubscribable Unsubscribable) {
	if unsubscribable == nil {
		return
	}

	s.Add(unsubscribable.Unsubscribe)
}

func (s *subscriptionImpl) Unsubscribe() {
	s.mu.Lock()

	if s.done {
		s.mu.Unlock()
		return
	}

	s.done = true
	finalizers := s.finalizers
	s.finalizers = nil
	s.mu.Unlock()

	var errs []error

	for _, finalizer := range finalizers {
		if err := execFinalizer(finalizer); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		panic(errors.Join(errs...))
	}
}

func (s *subscriptionImpl) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.done
}

func execFinalizer(finalizer func()) (err error) {
	lo.TryCatchWithErrorValue(
		func() error {
			finalizer()
			return nil
		},
		func(e any) {
			err = recoverValueToError(e)
		},
	)

	return err
}
