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

	"github.com/samber/ro-signals/id"
	"github.com/samber/ro-signals/rx"
	"github.com/samber/ro-signals/signal"
)

// AddBehavior attaches source as bid's own source (source-id = bid's
// symbol). Fails with ErrDuplicateBehaviorSource if bid already carries a
// source under that source-id, with ErrInvalidIdentifier if bid is the zero
// identifier, and with ErrInvalidSource if source is nil.
func AddBehavior[T any](ctx context.Context, s *Store, bid id.ID[T], source rx.Observable[T], lazy bool, initial id.InitialValue[T]) error {
	if bid.IsZero() {
		return ErrInvalidIdentifier
	}

	if source == nil {
		return ErrInvalidSource
	}

	cs := getOrCreateBehavior(ctx, s, bid, nil)

	err := cs.AddSource(ctx, bid.Symbol(), source, lazy, initial)
	if err != nil {
		return ErrDuplicateBehaviorSource
	}

	return nil
}

// AddDerivedState attaches source as a lazy source of bid: the behavior is
// only subscribed, and source only evaluated, while bid has downstream
// observers.
func AddDerivedState[T any](ctx context.Context, s *Store, bid id.ID[T], source rx.Observable[T], initial id.InitialValue[T]) error {
	return AddBehavior(ctx, s, bid, source, true, initial)
}

// AddState registers bid as a state behavior seeded by initial (typically
// later driven by AddReducer). initial is held by a non-lazy source record
// under bid's own symbol whose observable never emits, so ResetBehaviors
// re-seeds the state from it. If bid already carries a source under that
// source-id, AddState does nothing. The registry entry is created eagerly so
// withLatestFrom-style reducer pipes always have somewhere to read the
// current state from.
func AddState[T any](ctx context.Context, s *Store, bid id.ID[T], initial id.InitialValue[T]) {
	cs := getOrCreateBehavior(ctx, s, bid, nil)

	_ = cs.AddSource(ctx, bid.Symbol(), rx.Never[T](), false, initial)
}

// AddStatelessBehavior is the lazy=true alias of AddBehavior, kept for
// compatibility with the older overlapping API the unified form superseded.
func AddStatelessBehavior[T any](ctx context.Context, s *Store, bid id.ID[T], source rx.Observable[T], initial id.InitialValue[T]) error {
	return AddBehavior(ctx, s, bid, source, true, initial)
}

// AddStatefulBehavior is the lazy=false alias of AddBehavior.
func AddStatefulBehavior[T any](ctx context.Context, s *Store, bid id.ID[T], source rx.Observable[T], initial id.InitialValue[T]) error {
	return AddBehavior(ctx, s, bid, source, false, initial)
}

// GetBehavior returns bid's downstream stream. On a child store, the
// returned stream switches: while the child's own controlled subject has at
// least one source, it is subscribed; otherwise the child delegates to its
// parent's GetBehavior(bid), recursively. A source added to the child at
// runtime cuts it over from parent to child observation transparently to
// whoever is already subscribed.
func GetBehavior[T any](s *Store, bid id.ID[T]) rx.Observable[T] {
	// getOrCreateBehavior requires a ctx only for the registry-mutation
	// notification; GetBehavior never adds a source itself, so a background
	// context is sufficient here — no user value flows through it.
	own := getOrCreateBehavior(context.Background(), s, bid, nil)

	if s.parent == nil {
		return own.Observable()
	}

	parentStream := GetBehavior(s.parent, bid)

	return switchOnSourceCount(own, parentStream)
}

// switchOnSourceCount builds the child/parent delegation stream described
// for GetBehavior: subscribe own's stream while own has ≥1 source, else
// subscribe parentStream, switching live as own's source count crosses zero.
func switchOnSourceCount[T any](own *signal.ControlledSubject[T], parentStream rx.Observable[T]) rx.Observable[T] {
	return rx.NewObservable(func(ctx context.Context, destination rx.Observer[T]) rx.Teardown {
		var mu sync.Mutex
		var inner rx.Subscription
		usingOwn := false

		switchTo := func(useOwn bool) {
			mu.Lock()
			defer mu.Unlock()

			if inner != nil {
				inner.Unsubscribe()
			}

			usingOwn = useOwn
			if useOwn {
				inner = own.Observable().Subscribe(ctx, destination)
			} else {
				inner = parentStream.Subscribe(ctx, destination)
			}
		}

		countSub := own.SourceCountObservable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, n int) {
			mu.Lock()
			shouldUseOwn := n > 0
			needSwitch := inner == nil || shouldUseOwn != usingOwn
			mu.Unlock()

			if needSwitch {
				switchTo(shouldUseOwn)
			}
		}))

		return func() {
			countSub.Unsubscribe()
			mu.Lock()
			defer mu.Unlock()
			if inner != nil {
				inner.Unsubscribe()
			}
		}
	})
}

// ConnectToBehavior wires source into target, a behavior. lazy defaults to
// true when sourceIsBehavior, false otherwise (matching connect's default
// for an event source), unless lazy is explicitly given. target must not
// already carry a source (ErrDuplicateBehaviorSource otherwise).
func ConnectToBehavior[T any](ctx context.Context, s *Store, source rx.Observable[T], sourceIsBehavior bool, target id.ID[T], lazy *bool) error {
	useLazy := sourceIsBehavior
	if lazy != nil {
		useLazy = *lazy
	}

	if !target.IsZero() && getOrCreateBehavior(ctx, s, target, nil).SourceCount() > 0 {
		return ErrDuplicateBehaviorSource
	}

	return AddBehavior(ctx, s, target, source, useLazy, id.None[T]())
}
