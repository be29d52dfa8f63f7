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

package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/samber/ro-signals/id"
	"github.com/samber/ro-signals/queue"
	"github.com/samber/ro-signals/rx"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBehaviorNoEmissionBeforeAnySource(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	got := -1
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got = v }))

	is.Equal(-1, got)
}

func TestBehaviorReplaysLastValueToNewSubscriber(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	cs.Next(ctx, 1)
	cs.Next(ctx, 2)

	var got []int
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got = append(got, v) }))

	is.Equal([]int{2}, got)
}

func TestBehaviorDistinctnessSkipsConsecutiveDuplicates(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	var got []int
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got = append(got, v) }))

	cs.Next(ctx, 1)
	cs.Next(ctx, 1)
	cs.Next(ctx, 2)

	is.Equal([]int{1, 2}, got)
}

func TestLazySourceSubscribesOnFirstObserverOnly(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	subscribed := false
	source := rx.NewObservable(func(ctx context.Context, destination rx.Observer[int]) rx.Teardown {
		subscribed = true
		destination.Next(ctx, 7)
		return nil
	})

	is.NoError(cs.AddSource(ctx, "src", source, true, id.None[int]()))
	is.False(subscribed)

	var got int
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got = v }))

	is.True(subscribed)
	is.Equal(7, got)
}

func TestNonLazySourceSubscribesImmediately(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	subscribed := false
	source := rx.NewObservable(func(ctx context.Context, destination rx.Observer[int]) rx.Teardown {
		subscribed = true
		return nil
	})

	is.NoError(cs.AddSource(ctx, "src", source, false, id.None[int]()))
	is.True(subscribed)
}

func TestLazySourceUnsubscribedWhenLastObserverLeaves(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	torndown := false
	source := rx.NewObservable(func(ctx context.Context, destination rx.Observer[int]) rx.Teardown {
		return func() { torndown = true }
	})

	is.NoError(cs.AddSource(ctx, "src", source, true, id.None[int]()))

	sub := cs.Observable().Subscribe(ctx, rx.NoopObserver[int]())
	is.False(torndown)

	sub.Unsubscribe()
	is.True(torndown)
}

func TestInitialValueEmittedOnceToLateSubscriber(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	source := rx.Never[int]()
	is.NoError(cs.AddSource(ctx, "src", source, true, id.Value(42)))

	var got []int
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got = append(got, v) }))

	is.Equal([]int{42}, got)

	var late int
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { late = v }))
	is.Equal(42, late)
}

func TestAddSourceDuplicateIDFails(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	is.NoError(cs.AddSource(ctx, "src", rx.Never[int](), true, id.None[int]()))
	err := cs.AddSource(ctx, "src", rx.Never[int](), true, id.None[int]())
	is.ErrorIs(err, ErrDuplicateSource)
}

func TestRemoveSourceIsIdempotentAndUnsubscribes(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	torndown := false
	source := rx.NewObservable(func(ctx context.Context, destination rx.Observer[int]) rx.Teardown {
		return func() { torndown = true }
	})

	is.NoError(cs.AddSource(ctx, "src", source, false, id.None[int]()))
	is.True(cs.HasSource("src"))

	cs.RemoveSource(ctx, "src")
	is.True(torndown)
	is.False(cs.HasSource("src"))

	cs.RemoveSource(ctx, "src") // idempotent
}

func TestUpstreamErrorPropagatesAndRebootstraps(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	boom := errors.New("boom")
	source := rx.Throw[int](boom)

	var gotErr error
	cs.Observable().Subscribe(ctx, rx.NewObserver(
		func(context.Context, int) {},
		func(ctx context.Context, err error) { gotErr = err },
		func(context.Context) {},
	))

	is.NoError(cs.AddSource(ctx, "src", source, true, id.None[int]()))
	is.Equal(boom, gotErr)
	is.False(cs.HasSource("src")) // offending record removed

	// subsequent subscribers are unaffected by the now-discarded subject
	completed := false
	cs.Observable().Subscribe(ctx, rx.NewObserver(
		func(context.Context, int) {},
		func(context.Context, error) { is.Fail("should not see the old error again") },
		func(context.Context) { completed = true },
	))
	is.False(completed)
}

func TestPanickingInitialGetterSurfacesAsUpstreamError(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	var gotErr error
	cs.Observable().Subscribe(ctx, rx.NewObserver(
		func(context.Context, int) {},
		func(ctx context.Context, err error) { gotErr = err },
		func(context.Context) {},
	))

	boom := errors.New("getter boom")
	is.NoError(cs.AddSource(ctx, "src", rx.Never[int](), true, id.Getter(func() int { panic(boom) })))

	is.ErrorIs(gotErr, boom)
	is.False(cs.HasSource("src")) // offending record removed, like any upstream error
}

func TestResetHandleRemovesThenReaddsSources(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	is.NoError(cs.AddSource(ctx, "src", rx.Never[int](), false, id.Value(5)))
	is.Equal(1, cs.SourceCount())

	handle := cs.GetResetHandle()
	handle.RemoveSources(ctx)
	is.Equal(0, cs.SourceCount())

	var got int
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got = v }))
	is.Equal(5, got) // removing sources does not clear the subject's current value

	handle.ReaddSources(ctx)
	is.Equal(1, cs.SourceCount())

	var got2 int
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got2 = v }))
	is.Equal(5, got2)
}

func TestEventPipeDelaysByOneTurnAndDoesNotReplay(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	dq := queue.New()
	t.Cleanup(dq.Close)
	cs := NewEventControlledSubject[int](dq)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cs.NextEvent(ctx, 1).Wait(ctx) // delivered before anybody subscribed: lost

	done := make(chan int, 1)
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { done <- v }))

	cs.Next(ctx, 2)

	select {
	case v := <-done:
		is.Equal(2, v)
	case <-ctx.Done():
		is.Fail("timed out waiting for delayed event")
	}
}

func TestEventPipeMulticastsToAllCurrentObservers(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	dq := queue.New()
	t.Cleanup(dq.Close)
	cs := NewEventControlledSubject[int](dq)
	ctx := context.Background()

	a := make(chan int, 1)
	b := make(chan int, 1)
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { a <- v }))
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { b <- v }))

	cs.Next(ctx, 9)

	is.Equal(9, <-a)
	is.Equal(9, <-b)
}

func TestNextEventCompletionResolvesOnlyAfterDelayedDelivery(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	dq := queue.New()
	t.Cleanup(dq.Close)
	cs := NewEventControlledSubject[int](dq)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var delivered int
	cs.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { delivered = v }))

	completion := cs.NextEvent(ctx, 11)

	select {
	case <-completion.Done():
		is.Equal(11, delivered, "completion must not resolve before delivery")
	case <-ctx.Done():
		is.Fail("timed out waiting for dispatch completion")
	}
	is.True(completion.Value())
}

func TestNextEventCompletionResolvesSynchronouslyForBehaviors(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	cs := NewBehaviorControlledSubject[int](nil)
	ctx := context.Background()

	completion := cs.NextEvent(ctx, 3)

	select {
	case <-completion.Done():
		is.True(completion.Value())
	default:
		is.Fail("behavior completion must resolve synchronously")
	}
}

func TestChainedBehaviorResolvesThroughUpstreamInitialValue(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	ctx := context.Background()

	a := NewBehaviorControlledSubject[int](nil)
	b := NewBehaviorControlledSubject[int](nil)

	// B derives from A*10; A's only source never emits but carries an
	// initial value, which is what B sees on its first subscription.
	aTimes10 := rx.Pipe1(a.Observable(), rx.Map(func(v int) int { return v * 10 }))
	is.NoError(b.AddSource(ctx, "fromA", aTimes10, true, id.None[int]()))
	is.NoError(a.AddSource(ctx, "seed", rx.Never[int](), true, id.Value(1)))

	var got []int
	b.Observable().Subscribe(ctx, rx.OnNext(func(ctx context.Context, v int) { got = append(got, v) }))

	is.Equal([]int{10}, got)
}
